package rules

import (
	"slices"
	"testing"
)

func TestRosterAssign(t *testing.T) {
	r := NewRoster()
	if r.Has("a") || r.Role("a") != Unassigned {
		t.Fatalf("empty roster reports a role")
	}
	if err := r.Assign("a", Mining); err != nil {
		t.Fatalf("Assign(Mining): %v", err)
	}
	if err := r.Assign("a", Hunting); err != nil {
		t.Fatalf("Assign(Hunting): %v", err)
	}
	if err := r.Assign("a", Mining); err == nil {
		t.Errorf("Hunting -> Mining accepted")
	}
	if got := r.Role("a"); got != Hunting {
		t.Errorf("Role(a) = %v, want HUNTING", got)
	}
}

func TestRosterSetKeepsRoleOnReject(t *testing.T) {
	r := NewRoster()
	r.Set("a", Converting)
	r.Set("a", Mining)
	if got := r.Role("a"); got != Converting {
		t.Errorf("Role(a) = %v, want CONVERTING", got)
	}
}

func TestRosterQueries(t *testing.T) {
	r := NewRoster()
	r.Set("c", Mining)
	r.Set("a", Mining)
	r.Set("b", Returning)

	if got := r.Count(Mining); got != 2 {
		t.Errorf("Count(Mining) = %d, want 2", got)
	}
	if got := r.With(Mining); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("With(Mining) = %v, want [a c]", got)
	}
	bd := r.Breakdown()
	if bd["MINING"] != 2 || bd["RETURNING"] != 1 {
		t.Errorf("Breakdown() = %v", bd)
	}
	if r.Len() != 3 {
		t.Errorf("Len() = %d, want 3", r.Len())
	}
}
