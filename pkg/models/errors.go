package models

import "time"

// ── Error taxonomy ───────────────────────────────────────────

type ErrNotFound struct {
	Entity string
	Key    string
}

func (e *ErrNotFound) Error() string {
	return e.Entity + " not found: " + e.Key
}

// ErrValidation reports malformed input: an unknown enum value, a negative
// score, an empty required field.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// ErrIllegalState reports an operation invoked out of order, such as
// concluding a session twice or stepping a completed session.
type ErrIllegalState struct {
	Entity string
	Reason string
}

func (e *ErrIllegalState) Error() string {
	return e.Entity + ": " + e.Reason
}

// ErrOnCooldown is returned when a healing action is re-requested inside
// its cooldown window.
type ErrOnCooldown struct {
	ActionID  string
	Remaining time.Duration
}

func (e *ErrOnCooldown) Error() string {
	return "action " + e.ActionID + " on cooldown for " + e.Remaining.Round(time.Second).String()
}
