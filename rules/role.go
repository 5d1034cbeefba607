package rules

import "fmt"

// Role is the behaviour a ship follows for one turn. The set is closed; every
// ship holds exactly one role once classification finishes.
type Role uint8

const (
	Unassigned Role = iota
	Mining
	Returning
	Hunting
	Guarding
	ShipyardGuarding
	Defending
	Converting
	Constructing
	ConstructionGuarding
	Ending
)

var roleNames = [...]string{
	Unassigned:           "UNASSIGNED",
	Mining:               "MINING",
	Returning:            "RETURNING",
	Hunting:              "HUNTING",
	Guarding:             "GUARDING",
	ShipyardGuarding:     "SHIPYARD_GUARDING",
	Defending:            "DEFENDING",
	Converting:           "CONVERTING",
	Constructing:         "CONSTRUCTING",
	ConstructionGuarding: "CONSTRUCTION_GUARDING",
	Ending:               "ENDING",
}

// Roles lists every assignable role in declaration order.
var Roles = []Role{
	Mining, Returning, Hunting, Guarding, ShipyardGuarding, Defending,
	Converting, Constructing, ConstructionGuarding, Ending,
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", r)
}

// ParseRole resolves a role name as produced by String.
func ParseRole(s string) (Role, error) {
	for i, name := range roleNames {
		if name == s && Role(i) != Unassigned {
			return Role(i), nil
		}
	}
	return Unassigned, fmt.Errorf("unknown role %q", s)
}

// transitions lists the roles a ship may move to after it already holds one
// within the same turn. Unassigned ships may take any role.
var transitions = map[Role][]Role{
	Mining:               {Returning, Hunting, Converting},
	Returning:            {Converting},
	Hunting:              {Guarding, Defending, Converting},
	Guarding:             {Hunting, Defending, ShipyardGuarding, Converting},
	ShipyardGuarding:     {Converting},
	Defending:            {Converting},
	Converting:           nil,
	Constructing:         {ShipyardGuarding, Converting},
	ConstructionGuarding: {Guarding, ShipyardGuarding, Converting},
	Ending:               {Converting},
}

// CanTransition reports whether a ship holding from may be reassigned to to.
// Reassigning a role to itself is always allowed.
func CanTransition(from, to Role) bool {
	if to == Unassigned {
		return false
	}
	if from == Unassigned || from == to {
		return true
	}
	for _, r := range transitions[from] {
		if r == to {
			return true
		}
	}
	return false
}
