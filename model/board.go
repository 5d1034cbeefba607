package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidBoard is returned by Validate for snapshots the engine cannot
// reason about.
var ErrInvalidBoard = errors.New("invalid board")

// Config carries the game constants supplied once per episode.
type Config struct {
	Size         int `json:"size"`
	EpisodeSteps int `json:"episodeSteps"`
	SpawnCost    int `json:"spawnCost"`
	ConvertCost  int `json:"convertCost"`
}

// DefaultConfig matches the standard four-player game.
func DefaultConfig() Config {
	return Config{Size: 21, EpisodeSteps: 400, SpawnCost: 500, ConvertCost: 500}
}

// Board is one turn's snapshot. Positions are linear cell indices:
// row = pos / Size, col = pos % Size, row 0 at the top.
type Board struct {
	Size         int       `json:"size"`
	Step         int       `json:"step"`
	EpisodeSteps int       `json:"episodeSteps"`
	Halite       []float64 `json:"halite"`
	Players      []Player  `json:"players"`
	Me           int       `json:"me"`
}

type Player struct {
	ID        int        `json:"id"`
	Halite    int        `json:"halite"`
	Ships     []Ship     `json:"ships"`
	Shipyards []Shipyard `json:"shipyards"`
}

type Ship struct {
	ID    string `json:"id"`
	Owner int    `json:"owner"`
	Pos   int    `json:"pos"`
	Cargo int    `json:"cargo"`
}

type Shipyard struct {
	ID    string `json:"id"`
	Owner int    `json:"owner"`
	Pos   int    `json:"pos"`
}

// Action is the wire name of a ship or shipyard command. The zero value means
// no action and is omitted from the reply.
type Action string

const (
	ActionNone    Action = ""
	ActionNorth   Action = "NORTH"
	ActionEast    Action = "EAST"
	ActionSouth   Action = "SOUTH"
	ActionWest    Action = "WEST"
	ActionConvert Action = "CONVERT"
	ActionSpawn   Action = "SPAWN"
)

// Actions maps ship and shipyard ids to their command for the turn.
type Actions map[string]Action

// Cells returns the number of cells on the board.
func (b *Board) Cells() int { return b.Size * b.Size }

// LastStep is the final step on which an action still takes effect.
func (b *Board) LastStep() int { return b.EpisodeSteps - 2 }

// Self returns the player the engine acts for.
func (b *Board) Self() *Player { return &b.Players[b.Me] }

// Opponents returns every player other than Me, in id order.
func (b *Board) Opponents() []*Player {
	out := make([]*Player, 0, len(b.Players)-1)
	for i := range b.Players {
		if i != b.Me {
			out = append(out, &b.Players[i])
		}
	}
	return out
}

// EnemyShips returns the ships of all opponents.
func (b *Board) EnemyShips() []Ship {
	var out []Ship
	for _, p := range b.Opponents() {
		out = append(out, p.Ships...)
	}
	return out
}

// EnemyShipyards returns the shipyards of all opponents.
func (b *Board) EnemyShipyards() []Shipyard {
	var out []Shipyard
	for _, p := range b.Opponents() {
		out = append(out, p.Shipyards...)
	}
	return out
}

// Validate checks the snapshot for structural consistency and normalizes
// owner fields from the player roster. It is the only method that mutates the
// board.
func (b *Board) Validate() error {
	if b.Size <= 0 || b.Size%2 == 0 {
		return fmt.Errorf("%w: size %d must be odd and positive", ErrInvalidBoard, b.Size)
	}
	if len(b.Halite) != b.Cells() {
		return fmt.Errorf("%w: %d halite cells for size %d", ErrInvalidBoard, len(b.Halite), b.Size)
	}
	if b.EpisodeSteps <= 1 {
		return fmt.Errorf("%w: episode length %d", ErrInvalidBoard, b.EpisodeSteps)
	}
	if b.Me < 0 || b.Me >= len(b.Players) {
		return fmt.Errorf("%w: player %d not in roster of %d", ErrInvalidBoard, b.Me, len(b.Players))
	}
	for i, h := range b.Halite {
		if math.IsNaN(h) || math.IsInf(h, 0) {
			return fmt.Errorf("%w: halite %v at %d", ErrInvalidBoard, h, i)
		}
		if h < 0 {
			b.Halite[i] = 0
		}
	}
	seen := make(map[string]bool)
	for pi := range b.Players {
		p := &b.Players[pi]
		p.ID = pi
		for si := range p.Ships {
			s := &p.Ships[si]
			if s.Pos < 0 || s.Pos >= b.Cells() {
				return fmt.Errorf("%w: ship %s at %d", ErrInvalidBoard, s.ID, s.Pos)
			}
			if s.Cargo < 0 {
				return fmt.Errorf("%w: ship %s has cargo %d", ErrInvalidBoard, s.ID, s.Cargo)
			}
			if seen[s.ID] {
				return fmt.Errorf("%w: duplicate id %s", ErrInvalidBoard, s.ID)
			}
			seen[s.ID] = true
			s.Owner = pi
		}
		for yi := range p.Shipyards {
			y := &p.Shipyards[yi]
			if y.Pos < 0 || y.Pos >= b.Cells() {
				return fmt.Errorf("%w: shipyard %s at %d", ErrInvalidBoard, y.ID, y.Pos)
			}
			if seen[y.ID] {
				return fmt.Errorf("%w: duplicate id %s", ErrInvalidBoard, y.ID)
			}
			seen[y.ID] = true
			y.Owner = pi
		}
	}
	return nil
}
