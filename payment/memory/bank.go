// Package memory provides an in-memory payment.Gateway: a bank of native and
// fungible-token balances with ERC-20 style allowances. It is safe for
// concurrent use and intended for tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/xraph/subledger/payment"
	"github.com/xraph/subledger/types"
)

// Compile-time interface check.
var _ payment.Gateway = (*Bank)(nil)

type balanceKey struct {
	token  types.Token
	holder types.Address
}

type allowanceKey struct {
	token   types.Token
	owner   types.Address
	spender types.Address
}

// Bank is an in-memory ledger of balances and allowances.
type Bank struct {
	mu         sync.RWMutex
	balances   map[balanceKey]types.Amount
	allowances map[allowanceKey]types.Amount
	rejecting  map[types.Address]bool
	settled    int
}

// New creates an empty bank.
func New() *Bank {
	return &Bank{
		balances:   make(map[balanceKey]types.Amount),
		allowances: make(map[allowanceKey]types.Amount),
		rejecting:  make(map[types.Address]bool),
	}
}

// Deposit credits holder with amount of tok.
func (b *Bank) Deposit(tok types.Token, holder types.Address, amount types.Amount) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	k := balanceKey{tok, holder}
	next, err := types.CheckedAdd(b.balances[k], amount)
	if err != nil {
		return fmt.Errorf("memory: deposit: %w", err)
	}
	b.balances[k] = next
	return nil
}

// BalanceOf returns the balance of holder in tok.
func (b *Bank) BalanceOf(tok types.Token, holder types.Address) types.Amount {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.balances[balanceKey{tok, holder}]
}

// Approve sets the allowance owner grants spender in tok, replacing any
// previous value.
func (b *Bank) Approve(tok types.Token, owner, spender types.Address, amount types.Amount) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.allowances[allowanceKey{tok, owner, spender}] = amount
}

// Reject makes every credit to addr fail with payment.ErrRejected while on is
// true. It models a receiver whose accept-transfer logic refuses funds.
func (b *Bank) Reject(addr types.Address, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on {
		b.rejecting[addr] = true
		return
	}
	delete(b.rejecting, addr)
}

// Settled returns the number of settlements applied.
func (b *Bank) Settled() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.settled
}

// Allowance implements payment.Gateway.
func (b *Bank) Allowance(_ context.Context, tok types.Token, owner, spender types.Address) (types.Amount, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.allowances[allowanceKey{tok, owner, spender}], nil
}

// Settle implements payment.Gateway. All checks run against a staged copy of
// the touched balances, which replaces the live entries only when every leg
// has been applied.
func (b *Bank) Settle(ctx context.Context, s payment.Settlement) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	total, err := s.Total()
	if err != nil {
		return fmt.Errorf("memory: settle %s: %w", s.ID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, leg := range s.Legs {
		if !leg.Amount.IsZero() && b.rejecting[leg.To] {
			return fmt.Errorf("memory: settle %s: credit %s: %w", s.ID, leg.To.Hex(), payment.ErrRejected)
		}
	}

	akey := allowanceKey{s.Token, s.Payer, s.Spender}
	var remaining types.Amount
	if !s.Token.IsNative() {
		remaining, err = types.CheckedSub(b.allowances[akey], total)
		if err != nil {
			return fmt.Errorf("memory: settle %s: %w", s.ID, payment.ErrInsufficientAllowance)
		}
	}

	staged := make(map[balanceKey]types.Amount, len(s.Legs)+1)
	get := func(k balanceKey) types.Amount {
		if v, ok := staged[k]; ok {
			return v
		}
		return b.balances[k]
	}

	payer := balanceKey{s.Token, s.Payer}
	debited, err := types.CheckedSub(get(payer), total)
	if err != nil {
		return fmt.Errorf("memory: settle %s: %w", s.ID, payment.ErrInsufficientFunds)
	}
	staged[payer] = debited

	for _, leg := range s.Legs {
		if leg.Amount.IsZero() {
			continue
		}
		k := balanceKey{s.Token, leg.To}
		credited, addErr := types.CheckedAdd(get(k), leg.Amount)
		if addErr != nil {
			return fmt.Errorf("memory: settle %s: credit %s: %w", s.ID, leg.To.Hex(), addErr)
		}
		staged[k] = credited
	}

	for k, v := range staged {
		b.balances[k] = v
	}
	if !s.Token.IsNative() {
		b.allowances[akey] = remaining
	}
	b.settled++
	return nil
}
