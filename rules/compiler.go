package rules

// DefaultRules returns the classification ladder. Conditions read parameter
// values through P so that a phase switch changes thresholds without
// recompiling.
func DefaultRules() []*Rule {
	return []*Rule{
		{
			Name:     "end-game-return",
			Priority: 400,
			Role:     Ending,
			ConditionSrc: `Step >= P("end_start") &&
				ShipyardDistance + Step + P("end_return_extra_moves") >= LastStep &&
				Cargo >= P("ending_cargo_threshold")`,
		},
		{
			Name:         "full-cargo",
			Priority:     300,
			Role:         Returning,
			ConditionSrc: `Cargo >= P("return_cargo")`,
		},
		{
			Name:         "vulnerable-enemy-nearby",
			Priority:     200,
			Role:         Hunting,
			ConditionSrc: `NearVulnerableEnemy`,
		},
		{
			Name:         "default-mining",
			Priority:     0,
			Role:         Mining,
			ConditionSrc: `true`,
		},
	}
}
