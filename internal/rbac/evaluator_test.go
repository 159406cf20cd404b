package rbac

import "testing"

func TestAuthorize_RoleSatisfiesItself(t *testing.T) {
	e := NewEvaluator(DefaultHierarchy())
	if !e.Authorize([]string{RoleUser}, RoleUser) {
		t.Fatalf("expected role to satisfy itself")
	}
}

func TestAuthorize_MonotoneInHierarchy(t *testing.T) {
	e := NewEvaluator(DefaultHierarchy())

	// admin dominates manager dominates user; holding a dominating role must
	// grant every role below it.
	cases := []struct {
		held     string
		required string
		want     bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleUser, true},
		{RoleManager, RoleUser, true},
		{RoleManager, RoleAdmin, false},
		{RoleUser, RoleManager, false},
		{RoleUser, RoleAdmin, false},
	}
	for _, tc := range cases {
		if got := e.Authorize([]string{tc.held}, tc.required); got != tc.want {
			t.Fatalf("Authorize(%q, %q) = %v, want %v", tc.held, tc.required, got, tc.want)
		}
	}
}

func TestAuthorize_FailsClosed(t *testing.T) {
	e := NewEvaluator(DefaultHierarchy())

	if e.Authorize([]string{"superuser"}, RoleUser) {
		t.Fatalf("unknown held role must grant nothing")
	}
	if e.Authorize([]string{RoleAdmin}, "deployer") {
		t.Fatalf("unknown required role must not be satisfiable")
	}
	if e.Authorize(nil, RoleUser) {
		t.Fatalf("empty role set must deny")
	}
	if e.Authorize([]string{RoleAdmin}, "") {
		t.Fatalf("empty required role must deny")
	}
}

func TestAuthorize_AnyHeldRoleSuffices(t *testing.T) {
	e := NewEvaluator(DefaultHierarchy())
	if !e.Authorize([]string{"auditor", RoleManager}, RoleUser) {
		t.Fatalf("expected one satisfying role among several to allow")
	}
}

func TestNewEvaluator_ToleratesCycles(t *testing.T) {
	// Hierarchies are expected to be DAGs, but construction must still
	// terminate if someone configures a loop.
	e := NewEvaluator(Hierarchy{"a": {"b"}, "b": {"a"}})
	if !e.Authorize([]string{"a"}, "b") {
		t.Fatalf("expected a to dominate b")
	}
}
