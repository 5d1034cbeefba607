package rules

import "github.com/nstehr/flotilla/params"

// RoleEnv is the per-ship view the ladder conditions are evaluated against.
// Fields and methods are callable from expr.
type RoleEnv struct {
	Step             int
	LastStep         int
	Cargo            int
	ShipyardDistance int
	// NearVulnerableEnemy is set when a trapped enemy with at least this
	// ship's cargo sits within two cells.
	NearVulnerableEnemy bool

	Params *params.Set
}

// P returns the active parameter stored under key, or 0 when unknown.
func (e RoleEnv) P(key string) float64 {
	if e.Params == nil {
		return 0
	}
	v, _ := e.Params.Lookup(key)
	return v
}
