package rules

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"
	"github.com/nstehr/flotilla/params"
)

// Ladder classifies ships by running compiled rules in priority order; the
// first rule whose condition holds decides the role.
type Ladder struct {
	rules    []*Rule
	fallback Role
}

// NewLadder compiles all rule conditions into expr bytecode and sorts by
// priority. Ships no rule matches fall back to Mining.
func NewLadder(rules []*Rule) (*Ladder, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Ladder{rules: compiled, fallback: Mining}, nil
}

// Classify returns the role granted by the highest-priority matching rule.
// Evaluation errors skip the rule; Classify never fails.
func (l *Ladder) Classify(env RoleEnv) Role {
	for _, r := range l.rules {
		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "error", err)
			continue
		}
		if match, ok := result.(bool); ok && match {
			return r.Role
		}
	}
	return l.fallback
}

// Names lists the rule names in evaluation order.
func (l *Ladder) Names() []string {
	names := make([]string, len(l.rules))
	for i, r := range l.rules {
		names[i] = r.Name
	}
	return names
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		if r.Role == Unassigned {
			return nil, fmt.Errorf("rule %q grants no role", r.Name)
		}
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(RoleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		if err := checkParamKeys(r.ConditionSrc); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}

// paramRefs collects the keys passed to P in a condition.
type paramRefs struct {
	keys    []string
	dynamic bool
}

func (v *paramRefs) Visit(node *ast.Node) {
	call, ok := (*node).(*ast.CallNode)
	if !ok {
		return
	}
	if id, ok := call.Callee.(*ast.IdentifierNode); !ok || id.Value != "P" {
		return
	}
	if len(call.Arguments) == 1 {
		if s, ok := call.Arguments[0].(*ast.StringNode); ok {
			v.keys = append(v.keys, s.Value)
			return
		}
	}
	v.dynamic = true
}

// checkParamKeys rejects conditions that read a parameter P does not know,
// since an unknown key would silently read as 0.
func checkParamKeys(src string) error {
	tree, err := parser.Parse(src)
	if err != nil {
		return err
	}
	refs := &paramRefs{}
	ast.Walk(&tree.Node, refs)
	if refs.dynamic {
		return fmt.Errorf("P must be called with a literal key")
	}
	for _, k := range refs.keys {
		if !params.HasKey(k) {
			return fmt.Errorf("unknown parameter %q", k)
		}
	}
	return nil
}
