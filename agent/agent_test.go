package agent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/nstehr/flotilla/ipc"
	"github.com/nstehr/flotilla/model"
)

// session wires an agent to one end of an in-memory pipe and returns the
// host end.
func session(t *testing.T) net.Conn {
	t.Helper()
	host, side := net.Pipe()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := New(context.Background(), Options{TurnTimeout: 5 * time.Second, Logger: logger})
	c := ipc.NewConnection(side, nil, logger)
	c.RegisterHandler(ipc.TypeHello, a.HandleHello)
	c.RegisterHandler(ipc.TypeGameState, a.HandleGameState)
	go c.ReadLoop()
	t.Cleanup(func() { host.Close() })
	return host
}

func roundTrip(t *testing.T, conn net.Conn, msgType string, data any) ipc.Envelope {
	t.Helper()
	env, err := ipc.NewEnvelope(msgType, data)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	conn.SetDeadline(time.Now().Add(10 * time.Second))
	if err := ipc.WriteEnvelope(conn, env); err != nil {
		t.Fatalf("WriteEnvelope: %v", err)
	}
	resp, err := ipc.ReadEnvelope(conn)
	if err != nil {
		t.Fatalf("ReadEnvelope: %v", err)
	}
	return resp
}

func TestSessionHandshakeAndTurn(t *testing.T) {
	conn := session(t)

	cfg := model.DefaultConfig()
	resp := roundTrip(t, conn, ipc.TypeHello, ipc.HelloMessage{Player: 0, Config: &cfg})
	if resp.Type != ipc.TypeAck {
		t.Fatalf("hello reply = %s, want %s", resp.Type, ipc.TypeAck)
	}
	var ack ipc.AckMessage
	if err := json.Unmarshal(resp.Data, &ack); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if ack.Status != "ok" || ack.Session == "" {
		t.Errorf("ack = %+v, want ok with a session id", ack)
	}

	resp = roundTrip(t, conn, ipc.TypeGameState, baseBoard(20))
	if resp.Type != ipc.TypeActions {
		t.Fatalf("game_state reply = %s, want %s", resp.Type, ipc.TypeActions)
	}
	var msg ipc.ActionsMessage
	if err := json.Unmarshal(resp.Data, &msg); err != nil {
		t.Fatalf("decode actions: %v", err)
	}
	if msg.Step != 20 {
		t.Errorf("actions step = %d, want 20", msg.Step)
	}
	for id := range msg.Actions {
		switch id {
		case "s1", "s2", "y1":
		default:
			t.Errorf("action for unknown id %q", id)
		}
	}
}

func TestGameStateBeforeHello(t *testing.T) {
	conn := session(t)
	resp := roundTrip(t, conn, ipc.TypeGameState, baseBoard(1))
	if resp.Type != ipc.TypeError {
		t.Fatalf("reply = %s, want %s", resp.Type, ipc.TypeError)
	}
	var msg ipc.ErrorMessage
	if err := resp.Decode(&msg); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if msg.Type != ipc.TypeGameState || msg.Error == "" {
		t.Errorf("error message = %+v, want failed %s with a reason", msg, ipc.TypeGameState)
	}
}

func TestHelloRejectsBadParams(t *testing.T) {
	conn := session(t)
	resp := roundTrip(t, conn, ipc.TypeHello, ipc.HelloMessage{Player: 1, Params: "early: [1, 2"})
	if resp.Type != ipc.TypeError {
		t.Errorf("reply = %s, want %s", resp.Type, ipc.TypeError)
	}
}
