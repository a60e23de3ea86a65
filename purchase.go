package subledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xraph/subledger/asset"
	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/payment"
	"github.com/xraph/subledger/pricing"
	"github.com/xraph/subledger/receipt"
	"github.com/xraph/subledger/types"
)

// Result describes a successful mint or extend.
type Result struct {
	AssetID        uint64           `json:"asset_id"`
	Kind           receipt.Kind     `json:"kind"`
	Quote          *pricing.Quote   `json:"quote"`
	Refund         types.Amount     `json:"refund"`
	PrevExpiration time.Time        `json:"prev_expiration"`
	Expiration     time.Time        `json:"expiration"`
	Receipt        *receipt.Receipt `json:"receipt,omitempty"`
}

type purchase struct {
	kind        receipt.Kind
	caller      types.Address
	beneficiary types.Address
	assetID     uint64
	token       types.Token
	viaToken    bool
	units       uint64
	value       types.Amount
}

// ──────────────────────────────────────────────────
// Mint
// ──────────────────────────────────────────────────

// Mint buys units of subscription time for a new asset owned by caller,
// paying in the native currency. value is what caller offers; only the quoted
// total is drawn and the rest is reported as Result.Refund.
func (l *Ledger) Mint(ctx context.Context, caller, beneficiary types.Address, units uint64, value types.Amount) (*Result, error) {
	return l.purchase(ctx, purchase{
		kind:        receipt.KindMint,
		caller:      caller,
		beneficiary: beneficiary,
		token:       types.Native(),
		units:       units,
		value:       value,
	})
}

// MintWithToken buys units for a new asset owned by caller, paying in an
// enabled token drawn against the allowance caller granted the ledger
// account.
func (l *Ledger) MintWithToken(ctx context.Context, caller, beneficiary, tok types.Address, units uint64) (*Result, error) {
	return l.purchase(ctx, purchase{
		kind:        receipt.KindMint,
		caller:      caller,
		beneficiary: beneficiary,
		token:       types.TokenFromAddress(tok),
		viaToken:    true,
		units:       units,
	})
}

// ──────────────────────────────────────────────────
// Extend
// ──────────────────────────────────────────────────

// Extend advances the expiration of an existing asset, paying in the native
// currency. Anyone may pay for any asset; the price is quoted against the
// beneficiary recorded at mint time.
func (l *Ledger) Extend(ctx context.Context, caller types.Address, assetID, units uint64, value types.Amount) (*Result, error) {
	return l.purchase(ctx, purchase{
		kind:    receipt.KindExtend,
		caller:  caller,
		assetID: assetID,
		token:   types.Native(),
		units:   units,
		value:   value,
	})
}

// ExtendWithToken advances the expiration of an existing asset, paying in an
// enabled token.
func (l *Ledger) ExtendWithToken(ctx context.Context, caller types.Address, assetID uint64, tok types.Address, units uint64) (*Result, error) {
	return l.purchase(ctx, purchase{
		kind:     receipt.KindExtend,
		caller:   caller,
		assetID:  assetID,
		token:    types.TokenFromAddress(tok),
		viaToken: true,
		units:    units,
	})
}

// ──────────────────────────────────────────────────
// Purchase pipeline
// ──────────────────────────────────────────────────

func (l *Ledger) purchase(ctx context.Context, p purchase) (*Result, error) {
	l.mu.Lock()
	res, beneficiary, err := l.purchaseLocked(ctx, p)
	l.mu.Unlock()

	if err != nil {
		l.logger.Warn("purchase rejected",
			"kind", p.kind,
			"caller", p.caller.Hex(),
			"asset_id", p.assetID,
			"token", p.token.String(),
			"units", p.units,
			"error", err,
		)
		l.plugins.EmitPurchaseFailed(ctx, &event.PurchaseFailed{
			Kind:    string(p.kind),
			Payer:   p.caller,
			AssetID: p.assetID,
			Token:   p.token,
			Units:   p.units,
			Err:     err,
		})
		return nil, err
	}

	var receiptID id.ReceiptID
	if res.Receipt != nil {
		receiptID = res.Receipt.ID
	}

	switch p.kind {
	case receipt.KindMint:
		l.logger.Info("asset minted",
			"asset_id", res.AssetID,
			"owner", p.caller.Hex(),
			"beneficiary", beneficiary.Hex(),
			"units", p.units,
			"total", res.Quote.Total.String(),
		)
		l.plugins.EmitAssetMinted(ctx, &event.AssetMinted{
			AssetID:     res.AssetID,
			Owner:       p.caller,
			Beneficiary: beneficiary,
			Token:       p.token,
			Units:       p.units,
			Total:       res.Quote.Total,
			Expiration:  res.Expiration,
			ReceiptID:   receiptID,
		})
	case receipt.KindExtend:
		l.logger.Info("asset extended",
			"asset_id", res.AssetID,
			"payer", p.caller.Hex(),
			"units", p.units,
			"total", res.Quote.Total.String(),
			"expiration", res.Expiration,
		)
		l.plugins.EmitAssetExtended(ctx, &event.AssetExtended{
			AssetID:        res.AssetID,
			Payer:          p.caller,
			Token:          p.token,
			Units:          p.units,
			Total:          res.Quote.Total,
			PrevExpiration: res.PrevExpiration,
			Expiration:     res.Expiration,
			ReceiptID:      receiptID,
		})
	}

	l.plugins.EmitAssetActivated(ctx, &event.AssetActivated{
		AssetID: res.AssetID,
		Units:   p.units,
		Total:   res.Quote.Total,
	})
	return res, nil
}

// purchaseLocked validates, quotes, checks funds, writes the asset, settles
// and compensates the write if settlement fails. It returns the beneficiary
// the purchase was priced for. Callers hold mu.
func (l *Ledger) purchaseLocked(ctx context.Context, p purchase) (*Result, types.Address, error) {
	if p.units == 0 {
		return nil, types.ZeroAddress, ErrInvalidAmount
	}

	var existing *asset.Asset
	beneficiary := p.beneficiary
	if p.kind == receipt.KindExtend {
		a, err := l.getAsset(ctx, p.assetID)
		if err != nil {
			return nil, types.ZeroAddress, err
		}
		existing = a
		beneficiary = a.Beneficiary
	}
	if beneficiary == types.ZeroAddress || p.caller == types.ZeroAddress {
		return nil, types.ZeroAddress, ErrInvalidAddress
	}
	if p.viaToken && p.token.IsNative() {
		return nil, types.ZeroAddress, ErrInvalidToken
	}

	q, err := l.quote(ctx, p.token, types.Account(beneficiary), p.units)
	if err != nil {
		return nil, types.ZeroAddress, err
	}

	refund, err := l.checkFunds(ctx, p, q.Total)
	if err != nil {
		return nil, types.ZeroAddress, err
	}

	if err := ctx.Err(); err != nil {
		return nil, types.ZeroAddress, err
	}

	now := l.now()
	res := &Result{Kind: p.kind, Quote: q, Refund: refund}

	// Write the asset first; the compensation below undoes it if the
	// settlement is refused. It must outlive a cancelled caller context.
	undoCtx := context.WithoutCancel(ctx)
	var undo func() error
	if existing == nil {
		res.Expiration, err = asset.Advance(now, l.unitDuration, p.units)
		if err != nil {
			return nil, types.ZeroAddress, expirationError(err)
		}
		last, lastErr := l.store.LastAssetID(ctx)
		if lastErr != nil {
			return nil, types.ZeroAddress, fmt.Errorf("subledger: allocate asset: %w", lastErr)
		}
		if last == math.MaxUint64 {
			return nil, types.ZeroAddress, fmt.Errorf("subledger: allocate asset: %w", ErrArithmeticOverflow)
		}
		a := &asset.Asset{
			Entity:      types.NewEntityAt(now),
			ID:          last + 1,
			Owner:       p.caller,
			Beneficiary: beneficiary,
			Expiration:  res.Expiration,
		}
		if err := l.store.CreateAsset(ctx, a); err != nil {
			return nil, types.ZeroAddress, fmt.Errorf("subledger: allocate asset: %w", err)
		}
		res.AssetID = a.ID
		undo = func() error { return l.store.DeleteAsset(undoCtx, a.ID) }
	} else {
		res.AssetID = existing.ID
		res.PrevExpiration = existing.Expiration
		res.Expiration, err = asset.Advance(existing.Expiration, l.unitDuration, p.units)
		if err != nil {
			return nil, types.ZeroAddress, expirationError(err)
		}
		if err := l.store.UpdateAssetExpiration(ctx, existing.ID, res.Expiration); err != nil {
			return nil, types.ZeroAddress, fmt.Errorf("subledger: extend asset %d: %w", existing.ID, err)
		}
		undo = func() error { return l.store.UpdateAssetExpiration(undoCtx, existing.ID, existing.Expiration) }
	}

	settlement := l.settlement(p, beneficiary, q)
	if len(settlement.Legs) > 0 {
		if err := l.gateway.Settle(ctx, settlement); err != nil {
			if undoErr := undo(); undoErr != nil {
				l.logger.Error("failed to compensate asset write",
					"asset_id", res.AssetID,
					"kind", p.kind,
					"error", undoErr,
				)
			}
			return nil, types.ZeroAddress, settlementError(p, err)
		}
	}

	res.Receipt = l.writeReceipt(ctx, p, res, beneficiary, settlement.ID, now)
	return res, beneficiary, nil
}

// checkFunds compares what the caller offered or approved with total and
// returns the native excess.
func (l *Ledger) checkFunds(ctx context.Context, p purchase, total types.Amount) (types.Amount, error) {
	if !p.viaToken {
		if p.value.LessThan(total) {
			return types.Amount{}, fmt.Errorf("%w: offered %s, quoted %s", ErrInsufficientValue, p.value, total)
		}
		return types.CheckedSub(p.value, total)
	}

	allowance, err := l.gateway.Allowance(ctx, p.token, p.caller, l.account)
	if err != nil {
		return types.Amount{}, fmt.Errorf("%w: %w", ErrInsufficientApproval, err)
	}
	if allowance.LessThan(total) {
		return types.Amount{}, fmt.Errorf("%w: approved %s, quoted %s", ErrInsufficientApproval, allowance, total)
	}
	return types.ZeroAmount(), nil
}

// settlement builds the fee and price legs, skipping zero amounts.
func (l *Ledger) settlement(p purchase, beneficiary types.Address, q *pricing.Quote) payment.Settlement {
	s := payment.Settlement{
		ID:      id.NewSettlementID(),
		Token:   p.token,
		Payer:   p.caller,
		Spender: l.account,
	}
	if !q.FeeTotal.IsZero() {
		s.Legs = append(s.Legs, payment.Leg{To: l.administrator, Amount: q.FeeTotal})
	}
	if !q.PriceTotal.IsZero() {
		s.Legs = append(s.Legs, payment.Leg{To: beneficiary, Amount: q.PriceTotal})
	}
	return s
}

// writeReceipt records the purchase. A failed write is logged and does not
// undo the settled purchase.
func (l *Ledger) writeReceipt(ctx context.Context, p purchase, res *Result, beneficiary types.Address, settlementID id.SettlementID, now time.Time) *receipt.Receipt {
	r := &receipt.Receipt{
		Entity:       types.NewEntityAt(now),
		ID:           id.NewReceiptID(),
		Kind:         p.kind,
		AssetID:      res.AssetID,
		Payer:        p.caller,
		Beneficiary:  beneficiary,
		Token:        p.token,
		Units:        p.units,
		Fee:          res.Quote.FeeTotal,
		Price:        res.Quote.PriceTotal,
		Total:        res.Quote.Total,
		Refund:       res.Refund,
		SettlementID: settlementID,
	}
	if err := l.store.CreateReceipt(ctx, r); err != nil {
		l.logger.Error("failed to write receipt",
			"asset_id", res.AssetID,
			"receipt_id", r.ID.String(),
			"error", err,
		)
		return nil
	}
	return r
}

func expirationError(err error) error {
	if errors.Is(err, asset.ErrExpirationOverflow) {
		return fmt.Errorf("subledger: expiration: %w", ErrArithmeticOverflow)
	}
	return err
}

// settlementError attributes a refused settlement to the caller. Context
// errors pass through unchanged.
func settlementError(p purchase, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if p.viaToken {
		return fmt.Errorf("%w: %w", ErrInsufficientApproval, err)
	}
	if errors.Is(err, payment.ErrRejected) {
		return fmt.Errorf("%w: %w", ErrTransferRejected, err)
	}
	return fmt.Errorf("%w: %w", ErrInsufficientValue, err)
}
