package rules

import "github.com/expr-lang/expr/vm"

// Rule is one rung of the role ladder: a condition and the role it grants.
// The ladder evaluates rules by priority and the first match wins.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Role         Role        // granted when the condition holds
	ConditionSrc string      // expr source (preserved for logging)
	program      *vm.Program // compiled bytecode
}
