package ipc

import "github.com/nstehr/flotilla/model"

const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeGameState = "game_state"
	TypeActions   = "actions"
	TypeError     = "error"
)

// HelloMessage opens a session. Config may be omitted for the standard game.
type HelloMessage struct {
	Player int           `json:"player"`
	Config *model.Config `json:"config,omitempty"`
	// Params is an optional parameter document overriding the process-wide set.
	Params string `json:"params,omitempty"`
}

type AckMessage struct {
	Status  string `json:"status"`
	Session string `json:"session,omitempty"`
}

// ActionsMessage answers one game_state with the commands for that step.
type ActionsMessage struct {
	Step    int           `json:"step"`
	Actions model.Actions `json:"actions"`
}

// ErrorMessage reports a failed request; Type names the message that failed.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
