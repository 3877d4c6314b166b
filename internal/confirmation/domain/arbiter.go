package domain

import "time"

type Outcome string

const (
	// OutcomeNone leaves the report resolved and waiting for votes.
	OutcomeNone   Outcome = "none"
	OutcomeClose  Outcome = "closed"
	OutcomeRevert Outcome = "reverted"
	// OutcomeStalled is a mixed tally past the window. Nothing changes
	// automatically; an administrator has to decide.
	OutcomeStalled Outcome = "stalled"
)

const (
	DefaultCloseThreshold = 3
	DefaultWindow         = 72 * time.Hour
)

type Policy struct {
	CloseThreshold int64
	Window         time.Duration
}

func DefaultPolicy() Policy {
	return Policy{CloseThreshold: DefaultCloseThreshold, Window: DefaultWindow}
}

func (p Policy) withDefaults() Policy {
	if p.CloseThreshold <= 0 {
		p.CloseThreshold = DefaultCloseThreshold
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	return p
}

// Expired reports whether the confirmation window of a report resolved at
// resolvedAt has elapsed at now.
func (p Policy) Expired(resolvedAt, now time.Time) bool {
	return now.Sub(resolvedAt) >= p.withDefaults().Window
}

// Decide applies the arbiter rules in order: close on enough confirmations,
// revert on a not-yet majority, then the timeout rules once the window has
// elapsed.
func Decide(t Tally, resolvedAt, now time.Time, p Policy) Outcome {
	p = p.withDefaults()

	if t.Confirmed >= p.CloseThreshold {
		return OutcomeClose
	}
	if t.NotYet > t.Confirmed && t.NotYet > 0 {
		return OutcomeRevert
	}
	if !p.Expired(resolvedAt, now) {
		return OutcomeNone
	}

	switch {
	case t.Confirmed >= 1 && t.NotYet == 0:
		return OutcomeClose
	case t.Confirmed == 0 && t.NotYet == 0:
		return OutcomeRevert
	default:
		return OutcomeStalled
	}
}
