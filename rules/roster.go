package rules

import (
	"fmt"
	"log/slog"
	"sort"
)

// Roster records the role of every ship for the current turn. It starts
// empty each turn; nothing carries over except what the caller re-applies.
type Roster struct {
	roles map[string]Role
}

func NewRoster() *Roster {
	return &Roster{roles: make(map[string]Role)}
}

// Role returns the ship's role, or Unassigned.
func (r *Roster) Role(id string) Role { return r.roles[id] }

// Has reports whether the ship already holds a role.
func (r *Roster) Has(id string) bool {
	_, ok := r.roles[id]
	return ok
}

// Assign sets a role, validating it against the transition table.
func (r *Roster) Assign(id string, role Role) error {
	from := r.roles[id]
	if !CanTransition(from, role) {
		return fmt.Errorf("ship %s: %v -> %v not allowed", id, from, role)
	}
	r.roles[id] = role
	return nil
}

// Set is Assign for call sites where a rejected transition only needs to be
// logged; the ship keeps its previous role.
func (r *Roster) Set(id string, role Role) {
	if err := r.Assign(id, role); err != nil {
		slog.Warn("role transition rejected", "error", err)
	}
}

// Count returns the number of ships holding role.
func (r *Roster) Count(role Role) int {
	n := 0
	for _, v := range r.roles {
		if v == role {
			n++
		}
	}
	return n
}

// With returns the ids holding role, sorted.
func (r *Roster) With(role Role) []string {
	var ids []string
	for id, v := range r.roles {
		if v == role {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Breakdown returns per-role counts for logging.
func (r *Roster) Breakdown() map[string]int {
	out := make(map[string]int)
	for _, v := range r.roles {
		out[v.String()]++
	}
	return out
}

// Len returns the number of ships with a role.
func (r *Roster) Len() int { return len(r.roles) }
