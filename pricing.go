package subledger

import (
	"context"
	"fmt"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/pricing"
	"github.com/xraph/subledger/types"
)

// ──────────────────────────────────────────────────
// Fees
// ──────────────────────────────────────────────────

// SetFeeNative sets the per-unit fee charged in the native currency.
func (l *Ledger) SetFeeNative(ctx context.Context, caller types.Address, fee types.Amount) error {
	return l.setFee(ctx, caller, types.Native(), fee)
}

// SetFeeToken sets the per-unit fee charged in tok. The token does not have
// to be registered yet.
func (l *Ledger) SetFeeToken(ctx context.Context, caller, tok types.Address, fee types.Amount) error {
	if tok == types.ZeroAddress {
		return ErrInvalidToken
	}
	return l.setFee(ctx, caller, types.ERC20(tok), fee)
}

func (l *Ledger) setFee(ctx context.Context, caller types.Address, tok types.Token, fee types.Amount) error {
	l.mu.Lock()
	if err := l.requireAdministrator(caller); err != nil {
		l.mu.Unlock()
		return err
	}
	err := l.store.PutFee(ctx, &pricing.Fee{
		Entity: types.NewEntityAt(l.now()),
		Token:  tok,
		Amount: fee,
	})
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("subledger: set fee: %w", err)
	}

	l.logger.Info("fee changed",
		"token", tok.String(),
		"fee", fee.String(),
	)
	l.plugins.EmitFeeChanged(ctx, &event.FeeChanged{Token: tok, Fee: fee})
	return nil
}

// FeeNative returns the per-unit native fee.
func (l *Ledger) FeeNative(ctx context.Context) (types.Amount, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.unitFee(ctx, types.Native())
}

// FeeToken returns the per-unit fee of a registered token.
func (l *Ledger) FeeToken(ctx context.Context, tok types.Address) (types.Amount, error) {
	if tok == types.ZeroAddress {
		return types.Amount{}, ErrInvalidToken
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	t := types.ERC20(tok)
	if err := l.requireRegistered(ctx, t); err != nil {
		return types.Amount{}, err
	}
	return l.unitFee(ctx, t)
}

// ──────────────────────────────────────────────────
// Prices
// ──────────────────────────────────────────────────

// SetPriceNative sets the native unit price of beneficiary. The zero address
// sets the default price.
func (l *Ledger) SetPriceNative(ctx context.Context, caller, beneficiary types.Address, price types.Amount) error {
	return l.setPrice(ctx, caller, types.Native(), types.BeneficiaryFromAddress(beneficiary), price, false)
}

// SetPriceToken sets the unit price of beneficiary in tok. The token does not
// have to be enabled yet.
func (l *Ledger) SetPriceToken(ctx context.Context, caller, tok, beneficiary types.Address, price types.Amount) error {
	if tok == types.ZeroAddress {
		return ErrInvalidToken
	}
	return l.setPrice(ctx, caller, types.ERC20(tok), types.BeneficiaryFromAddress(beneficiary), price, false)
}

// SetPriceByDirectionNative lets caller set its own native unit price as a
// beneficiary. It requires no administrator rights.
func (l *Ledger) SetPriceByDirectionNative(ctx context.Context, caller types.Address, price types.Amount) error {
	if caller == types.ZeroAddress {
		return ErrInvalidAddress
	}
	return l.setPrice(ctx, caller, types.Native(), types.Account(caller), price, true)
}

// SetPriceByDirectionToken lets caller set its own unit price in a registered
// token. Disabled tokens may still be priced.
func (l *Ledger) SetPriceByDirectionToken(ctx context.Context, caller, tok types.Address, price types.Amount) error {
	if caller == types.ZeroAddress {
		return ErrInvalidAddress
	}
	if tok == types.ZeroAddress {
		return ErrInvalidToken
	}
	return l.setPrice(ctx, caller, types.ERC20(tok), types.Account(caller), price, true)
}

func (l *Ledger) setPrice(ctx context.Context, caller types.Address, tok types.Token, ben types.Beneficiary, price types.Amount, direction bool) error {
	l.mu.Lock()
	if direction {
		if err := l.requireRegistered(ctx, tok); err != nil {
			l.mu.Unlock()
			return err
		}
	} else if err := l.requireAdministrator(caller); err != nil {
		l.mu.Unlock()
		return err
	}

	err := l.store.PutPrice(ctx, &pricing.Price{
		Entity:      types.NewEntityAt(l.now()),
		Token:       tok,
		Beneficiary: ben,
		Amount:      price,
	})
	l.mu.Unlock()
	if err != nil {
		return fmt.Errorf("subledger: set price: %w", err)
	}

	l.logger.Info("price changed",
		"token", tok.String(),
		"beneficiary", ben.String(),
		"price", price.String(),
		"direction", direction,
	)
	l.plugins.EmitPriceChanged(ctx, &event.PriceChanged{
		Token:       tok,
		Beneficiary: ben,
		Price:       price,
		ChangedBy:   caller,
		Direction:   direction,
	})
	return nil
}

// ──────────────────────────────────────────────────
// Quotes
// ──────────────────────────────────────────────────

// QuoteNative returns the price breakdown of units bought in the native
// currency for beneficiary. The zero address quotes the default price.
func (l *Ledger) QuoteNative(ctx context.Context, beneficiary types.Address, units uint64) (*pricing.Quote, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.quote(ctx, types.Native(), types.BeneficiaryFromAddress(beneficiary), units)
}

// QuoteToken returns the price breakdown of units bought in tok. The token
// must be enabled.
func (l *Ledger) QuoteToken(ctx context.Context, tok, beneficiary types.Address, units uint64) (*pricing.Quote, error) {
	if tok == types.ZeroAddress {
		return nil, ErrInvalidToken
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.quote(ctx, types.ERC20(tok), types.BeneficiaryFromAddress(beneficiary), units)
}

// PriceNative returns the total payable for units in the native currency.
func (l *Ledger) PriceNative(ctx context.Context, beneficiary types.Address, units uint64) (types.Amount, error) {
	q, err := l.QuoteNative(ctx, beneficiary, units)
	if err != nil {
		return types.Amount{}, err
	}
	return q.Total, nil
}

// PriceToken returns the total payable for units in tok.
func (l *Ledger) PriceToken(ctx context.Context, tok, beneficiary types.Address, units uint64) (types.Amount, error) {
	q, err := l.QuoteToken(ctx, tok, beneficiary, units)
	if err != nil {
		return types.Amount{}, err
	}
	return q.Total, nil
}

// quote computes fee*units + price*units. Callers hold mu.
func (l *Ledger) quote(ctx context.Context, tok types.Token, ben types.Beneficiary, units uint64) (*pricing.Quote, error) {
	if units == 0 {
		return nil, ErrInvalidAmount
	}
	if err := l.requireEnabled(ctx, tok); err != nil {
		return nil, err
	}

	fee, err := l.unitFee(ctx, tok)
	if err != nil {
		return nil, err
	}
	price, err := l.unitPrice(ctx, tok, ben)
	if err != nil {
		return nil, err
	}

	q, err := pricing.Compute(tok, ben, fee, price, units)
	if err != nil {
		return nil, fmt.Errorf("subledger: quote %d units of %s: %w", units, tok, err)
	}
	return q, nil
}

// unitFee returns the stored fee of tok, or zero.
func (l *Ledger) unitFee(ctx context.Context, tok types.Token) (types.Amount, error) {
	f, err := l.store.GetFee(ctx, tok)
	if err != nil {
		if IsNotFound(err) {
			return types.ZeroAmount(), nil
		}
		return types.Amount{}, err
	}
	return f.Amount, nil
}

// unitPrice resolves the price of ben: its own entry when one has been set,
// even to zero, else the default entry, else zero.
func (l *Ledger) unitPrice(ctx context.Context, tok types.Token, ben types.Beneficiary) (types.Amount, error) {
	if !ben.IsDefault() {
		p, err := l.store.GetPrice(ctx, tok, ben)
		if err == nil {
			return p.Amount, nil
		}
		if !IsNotFound(err) {
			return types.Amount{}, err
		}
	}

	p, err := l.store.GetPrice(ctx, tok, types.DefaultBeneficiary())
	if err != nil {
		if IsNotFound(err) {
			return types.ZeroAmount(), nil
		}
		return types.Amount{}, err
	}
	return p.Amount, nil
}
