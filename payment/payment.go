// Package payment defines the port the ledger uses to move funds.
//
// A Gateway settles a purchase in one all-or-nothing step: either every leg
// of a Settlement is applied or none is.
package payment

import (
	"context"
	"errors"

	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

var (
	ErrInsufficientFunds     = errors.New("payment: insufficient funds")
	ErrInsufficientAllowance = errors.New("payment: insufficient allowance")
	ErrRejected              = errors.New("payment: transfer rejected by receiver")
)

// Leg is a single credit of a settlement.
type Leg struct {
	To     types.Address `json:"to"`
	Amount types.Amount  `json:"amount"`
}

// Settlement moves funds from Payer to every leg's receiver. For fungible
// tokens the total is drawn against the allowance Payer granted Spender.
type Settlement struct {
	ID      id.SettlementID `json:"id"`
	Token   types.Token     `json:"token"`
	Payer   types.Address   `json:"payer"`
	Spender types.Address   `json:"spender"`
	Legs    []Leg           `json:"legs"`
}

// Total returns the checked sum of all legs.
func (s Settlement) Total() (types.Amount, error) {
	amounts := make([]types.Amount, 0, len(s.Legs))
	for _, l := range s.Legs {
		amounts = append(amounts, l.Amount)
	}
	return types.Sum(amounts...)
}

// Gateway is the external fund-transfer service.
type Gateway interface {
	// Allowance returns what owner has approved spender to draw in tok.
	Allowance(ctx context.Context, tok types.Token, owner, spender types.Address) (types.Amount, error)

	// Settle applies every leg of s or none of them.
	Settle(ctx context.Context, s Settlement) error
}
