package token

import (
	"github.com/xraph/subledger/types"
)

// State is the registry state of a payment token.
type State string

const (
	StateNotRegistered State = "not_registered"
	StateDisabled      State = "disabled"
	StateEnabled       State = "enabled"
)

// IsEnabled reports whether the token is accepted for pricing and payment.
func (s State) IsEnabled() bool { return s == StateEnabled }

// StateOf maps an optional registration to its state. A nil registration is
// NotRegistered.
func StateOf(r *Registration) State {
	switch {
	case r == nil:
		return StateNotRegistered
	case r.Allowed:
		return StateEnabled
	default:
		return StateDisabled
	}
}

// Registration is an AllowedSet entry. Entries are upserted, never removed.
type Registration struct {
	types.Entity
	Token   types.Address `json:"token"`
	Allowed bool          `json:"allowed"`
}
