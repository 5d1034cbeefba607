package rules

import (
	"testing"

	"github.com/nstehr/flotilla/params"
)

func TestDefaultRulesCompile(t *testing.T) {
	l, err := NewLadder(DefaultRules())
	if err != nil {
		t.Fatalf("NewLadder(DefaultRules()) failed: %v", err)
	}
	if len(l.rules) != 4 {
		t.Errorf("expected 4 rules, got %d", len(l.rules))
	}
	// Verify priority ordering (descending).
	for i := 1; i < len(l.rules); i++ {
		if l.rules[i].Priority > l.rules[i-1].Priority {
			t.Errorf("rules not sorted by priority: %s (%d) > %s (%d)",
				l.rules[i].Name, l.rules[i].Priority,
				l.rules[i-1].Name, l.rules[i-1].Priority)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	if _, err := NewLadder([]*Rule{{Name: "bad", Role: Mining, ConditionSrc: `Cargo >`}}); err == nil {
		t.Errorf("syntax error accepted")
	}
	if _, err := NewLadder([]*Rule{{Name: "notbool", Role: Mining, ConditionSrc: `Cargo + 1`}}); err == nil {
		t.Errorf("non-boolean condition accepted")
	}
	if _, err := NewLadder([]*Rule{{Name: "norole", ConditionSrc: `true`}}); err == nil {
		t.Errorf("rule without role accepted")
	}
}

func TestCompileChecksParamKeys(t *testing.T) {
	tests := []struct {
		name string
		src  string
		ok   bool
	}{
		{"known key", `Cargo >= P("return_cargo")`, true},
		{"misspelled key", `Cargo >= P("retrun_cargo")`, false},
		{"nested misspelling", `Step > 3 && (Cargo > 0 || Step >= P("end_strat"))`, false},
		{"computed key", `Cargo >= P("return_" + "cargo")`, false},
		{"no params", `NearVulnerableEnemy`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewLadder([]*Rule{{Name: tc.name, Role: Returning, ConditionSrc: tc.src}})
			if (err == nil) != tc.ok {
				t.Errorf("NewLadder error = %v, want ok %v", err, tc.ok)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	l, err := NewLadder(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	p := &params.Default().Late
	returnCargo := p.ReturnCargo

	tests := []struct {
		name string
		env  RoleEnv
		want Role
	}{
		{"empty ship mines", RoleEnv{Step: 50, LastStep: 398, Cargo: 0, ShipyardDistance: 4}, Mining},
		{"full ship returns", RoleEnv{Step: 50, LastStep: 398, Cargo: returnCargo, ShipyardDistance: 4}, Returning},
		{"vulnerable enemy", RoleEnv{Step: 50, LastStep: 398, Cargo: 0, NearVulnerableEnemy: true}, Hunting},
		{"full cargo beats hunting", RoleEnv{Step: 50, LastStep: 398, Cargo: returnCargo, NearVulnerableEnemy: true}, Returning},
		{"end game", RoleEnv{Step: 390, LastStep: 398, Cargo: 200, ShipyardDistance: 6}, Ending},
		{"end game too early", RoleEnv{Step: p.EndStart - 1, LastStep: 398, Cargo: 200, ShipyardDistance: 1}, Mining},
		{"end game empty", RoleEnv{Step: 390, LastStep: 398, Cargo: 0, ShipyardDistance: 6}, Mining},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.env.Params = p
			if got := l.Classify(tc.env); got != tc.want {
				t.Errorf("Classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClassifyWithoutParams(t *testing.T) {
	l, err := NewLadder(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	// Without a parameter set every threshold reads as zero, so even an
	// empty ship at step 0 satisfies the end-game rule.
	if got := l.Classify(RoleEnv{}); got != Ending {
		t.Errorf("Classify(zero env) = %v, want ENDING", got)
	}
}

func TestNames(t *testing.T) {
	l, err := NewLadder(DefaultRules())
	if err != nil {
		t.Fatal(err)
	}
	names := l.Names()
	if names[0] != "end-game-return" || names[len(names)-1] != "default-mining" {
		t.Errorf("Names() = %v", names)
	}
}
