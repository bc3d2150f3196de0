package policy

import "testing"

func TestForPicksMostGenerousRole(t *testing.T) {
	limits := New(map[string]int{"verified": 3, "burning": 20, "booster": 20})

	if got := limits.For([]string{"verified", "burning"}, false); got != 20 {
		t.Fatalf("expected 20 for multi-role identity, got %s", got)
	}
	if got := limits.For([]string{"verified"}, false); got != 3 {
		t.Fatalf("expected 3 for verified, got %s", got)
	}
}

func TestForNoMatchingRole(t *testing.T) {
	limits := New(map[string]int{"verified": 3})

	if got := limits.For([]string{"lurker"}, false); got != 0 {
		t.Fatalf("expected 0 for unmatched roles, got %s", got)
	}
	if got := limits.For(nil, false); got != 0 {
		t.Fatalf("expected 0 for no roles, got %s", got)
	}
}

func TestForUnrestricted(t *testing.T) {
	limits := New(map[string]int{"verified": 3})

	got := limits.For(nil, true)
	if !got.IsUnlimited() {
		t.Fatalf("expected unlimited for unrestricted identity, got %s", got)
	}
}

func TestForZeroLimitRoleStillMatches(t *testing.T) {
	limits := New(map[string]int{"suspended": 0, "verified": 3})

	if got := limits.For([]string{"suspended"}, false); got != 0 {
		t.Fatalf("expected 0 for zero-limit role, got %s", got)
	}
	// The generous role still wins over a zero-limit one.
	if got := limits.For([]string{"suspended", "verified"}, false); got != 3 {
		t.Fatalf("expected 3 when a non-zero role is present, got %s", got)
	}
}

func TestLimitString(t *testing.T) {
	if Unlimited.String() != "unlimited" {
		t.Fatalf("unexpected string for Unlimited: %s", Unlimited.String())
	}
	if Limit(7).String() != "7" {
		t.Fatalf("unexpected string for 7: %s", Limit(7).String())
	}
}
