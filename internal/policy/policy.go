// Package policy decides how many links an identity may claim per period.
package policy

import "fmt"

// Limit is a weekly claim allowance. Unrestricted identities get Unlimited;
// everyone else gets the most generous limit among their matching roles, and
// zero when no role matches.
type Limit int

// Unlimited marks an unmetered identity.
const Unlimited Limit = -1

// IsUnlimited reports whether the limit is unmetered.
func (l Limit) IsUnlimited() bool { return l < 0 }

// Count returns the numeric allowance. Callers must check IsUnlimited first.
func (l Limit) Count() int {
	if l < 0 {
		return 0
	}
	return int(l)
}

func (l Limit) String() string {
	if l.IsUnlimited() {
		return "unlimited"
	}
	return fmt.Sprintf("%d", int(l))
}

// Limits maps role ids to their configured weekly allowance.
type Limits struct {
	byRole map[string]int
}

// New constructs a limit table from a role→allowance mapping.
func New(byRole map[string]int) *Limits {
	table := make(map[string]int, len(byRole))
	for role, limit := range byRole {
		if limit < 0 {
			limit = 0
		}
		table[role] = limit
	}
	return &Limits{byRole: table}
}

// For computes the limit for an identity holding the given roles.
// Roles are re-read by the caller on every claim, never cached here, so a role
// change takes effect on the identity's next claim attempt.
func (l *Limits) For(roles []string, unrestricted bool) Limit {
	if unrestricted {
		return Unlimited
	}

	matched := false
	best := 0
	for _, role := range roles {
		limit, ok := l.byRole[role]
		if !ok {
			continue
		}
		if !matched || limit > best {
			best = limit
		}
		matched = true
	}

	if !matched {
		return 0
	}
	return Limit(best)
}
