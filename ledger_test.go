package subledger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger"
	paymem "github.com/xraph/subledger/payment/memory"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

func TestAdministratorGate(t *testing.T) {
	f := newFixture(t)

	gated := map[string]func(caller types.Address) error{
		"SetFeeNative":    func(c types.Address) error { return f.l.SetFeeNative(f.ctx, c, centiEther) },
		"SetFeeToken":     func(c types.Address) error { return f.l.SetFeeToken(f.ctx, c, usdc, centiEther) },
		"SetPriceNative":  func(c types.Address) error { return f.l.SetPriceNative(f.ctx, c, creator, oneEther) },
		"SetPriceToken":   func(c types.Address) error { return f.l.SetPriceToken(f.ctx, c, usdc, creator, oneEther) },
		"SetAllowedToken": func(c types.Address) error { return f.l.SetAllowedToken(f.ctx, c, usdc, true) },
		"SetBaseURI":      func(c types.Address) error { return f.l.SetBaseURI(f.ctx, c, "ipfs://x/") },
		"TransferAdmin":   func(c types.Address) error { return f.l.TransferAdministration(f.ctx, c, other) },
	}

	for name, call := range gated {
		t.Run(name, func(t *testing.T) {
			err := call(buyer)
			require.ErrorIs(t, err, subledger.ErrNotOwner)
			assert.True(t, subledger.IsAuthorizationError(err))
			require.ErrorIs(t, call(types.ZeroAddress), subledger.ErrNotOwner)
		})
	}

	assert.Empty(t, f.events.fees)
	assert.Empty(t, f.events.prices)
	assert.Empty(t, f.events.tokens)
}

func TestTransferAdministration(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.l.TransferAdministration(f.ctx, admin, types.ZeroAddress), subledger.ErrInvalidAddress)
	require.NoError(t, f.l.TransferAdministration(f.ctx, admin, other))
	assert.Equal(t, other, f.l.Administrator(f.ctx))

	require.ErrorIs(t, f.l.SetFeeNative(f.ctx, admin, centiEther), subledger.ErrNotOwner)
	require.NoError(t, f.l.SetFeeNative(f.ctx, other, centiEther))

	require.Len(t, f.events.transfers, 1)
	assert.Equal(t, admin, f.events.transfers[0].Previous)
	assert.Equal(t, other, f.events.transfers[0].Next)
}

func TestStartRestoresPersistedAdministrator(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.l.TransferAdministration(f.ctx, admin, other))

	// A second ledger over the same store ignores its configured value.
	l2 := subledger.New(f.store, paymem.New(), subledger.WithAdministrator(admin))
	require.NoError(t, l2.Start(f.ctx))
	assert.Equal(t, other, l2.Administrator(f.ctx))
}

func TestAllowedTokenStates(t *testing.T) {
	f := newFixture(t)
	second := types.Address{0xdd}

	state, err := f.l.AllowedToken(f.ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, token.StateNotRegistered, state)

	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, true))
	state, err = f.l.AllowedToken(f.ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, token.StateEnabled, state)

	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, second, true))
	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, false))
	state, err = f.l.AllowedToken(f.ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, token.StateDisabled, state)

	list, err := f.l.AllowedTokenList(f.ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, usdc, list[0].Token)
	assert.False(t, list[0].Allowed)
	assert.Equal(t, second, list[1].Token)
	assert.True(t, list[1].Allowed)

	require.ErrorIs(t, f.l.SetAllowedToken(f.ctx, admin, types.ZeroAddress, true), subledger.ErrInvalidToken)

	require.Len(t, f.events.tokens, 3)
	assert.False(t, f.events.tokens[2].Allowed)
}

func TestFeeToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.l.FeeToken(f.ctx, types.ZeroAddress)
	require.ErrorIs(t, err, subledger.ErrInvalidToken)

	// A fee may be set before registration but is not readable until then.
	require.NoError(t, f.l.SetFeeToken(f.ctx, admin, usdc, types.NewAmount(500)))
	_, err = f.l.FeeToken(f.ctx, usdc)
	require.ErrorIs(t, err, subledger.ErrUnregisteredToken)

	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, false))
	fee, err := f.l.FeeToken(f.ctx, usdc)
	require.NoError(t, err)
	assert.Equal(t, types.NewAmount(500), fee)

	require.ErrorIs(t, f.l.SetFeeToken(f.ctx, admin, types.ZeroAddress, fee), subledger.ErrInvalidToken)

	native, err := f.l.FeeNative(f.ctx)
	require.NoError(t, err)
	assert.True(t, native.IsZero())
}

func TestQuoteLinearInUnits(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.l.SetFeeNative(f.ctx, admin, centiEther))
	require.NoError(t, f.l.SetPriceNative(f.ctx, admin, types.ZeroAddress, oneEther))

	one, err := f.l.PriceNative(f.ctx, creator, 1)
	require.NoError(t, err)

	for units := uint64(1); units <= 12; units++ {
		got, err := f.l.PriceNative(f.ctx, creator, units)
		require.NoError(t, err)
		want, err := one.MulUnits(units)
		require.NoError(t, err)
		assert.Equal(t, want, got, "units=%d", units)
	}
}

func TestQuoteFallsBackToDefault(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.l.SetFeeNative(f.ctx, admin, centiEther))
	require.NoError(t, f.l.SetPriceNative(f.ctx, admin, types.ZeroAddress, oneEther))

	for _, ben := range []types.Address{creator, other, buyer} {
		got, err := f.l.PriceNative(f.ctx, ben, 3)
		require.NoError(t, err)
		def, err := f.l.PriceNative(f.ctx, types.ZeroAddress, 3)
		require.NoError(t, err)
		assert.Equal(t, def, got)
	}

	q, err := f.l.QuoteNative(f.ctx, creator, 2)
	require.NoError(t, err)
	assert.Equal(t, oneEther, q.UnitPrice)
	assert.Equal(t, centiEther, q.UnitFee)
	assert.Equal(t, mustAdd(t, centiEther, centiEther), q.FeeTotal)
	assert.Equal(t, twoEther, q.PriceTotal)
}

func TestExplicitZeroPriceIsHonored(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.l.SetFeeNative(f.ctx, admin, centiEther))
	require.NoError(t, f.l.SetPriceNative(f.ctx, admin, types.ZeroAddress, oneEther))
	require.NoError(t, f.l.SetPriceNative(f.ctx, admin, creator, types.ZeroAmount()))

	got, err := f.l.PriceNative(f.ctx, creator, 1)
	require.NoError(t, err)
	assert.Equal(t, centiEther, got)
}

func TestDirectionPrice(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.l.SetFeeNative(f.ctx, admin, centiEther))
	require.NoError(t, f.l.SetPriceNative(f.ctx, admin, types.ZeroAddress, oneEther))

	require.NoError(t, f.l.SetPriceByDirectionNative(f.ctx, creator, twoEther))

	got, err := f.l.PriceNative(f.ctx, creator, 1)
	require.NoError(t, err)
	assert.Equal(t, mustAdd(t, centiEther, twoEther), got)

	// Others keep the default.
	def, err := f.l.PriceNative(f.ctx, other, 1)
	require.NoError(t, err)
	assert.Equal(t, mustAdd(t, centiEther, oneEther), def)

	require.ErrorIs(t, f.l.SetPriceByDirectionNative(f.ctx, types.ZeroAddress, twoEther), subledger.ErrInvalidAddress)

	require.Len(t, f.events.prices, 2)
	last := f.events.prices[1]
	assert.True(t, last.Direction)
	assert.Equal(t, types.Account(creator), last.Beneficiary)
	assert.Equal(t, creator, last.ChangedBy)
}

func TestDirectionPriceToken(t *testing.T) {
	f := newFixture(t)

	require.ErrorIs(t, f.l.SetPriceByDirectionToken(f.ctx, creator, types.ZeroAddress, oneEther), subledger.ErrInvalidToken)
	require.ErrorIs(t, f.l.SetPriceByDirectionToken(f.ctx, creator, usdc, oneEther), subledger.ErrUnregisteredToken)

	// Registered but disabled tokens may still be priced.
	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, false))
	require.NoError(t, f.l.SetPriceByDirectionToken(f.ctx, creator, usdc, types.NewAmount(300)))

	_, err := f.l.PriceToken(f.ctx, usdc, creator, 1)
	require.ErrorIs(t, err, subledger.ErrUnregisteredToken)

	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, true))
	got, err := f.l.PriceToken(f.ctx, usdc, creator, 2)
	require.NoError(t, err)
	assert.Equal(t, types.NewAmount(600), got)
}

func TestQuoteTokenRegistration(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.l.SetFeeToken(f.ctx, admin, usdc, types.NewAmount(10)))
	require.NoError(t, f.l.SetPriceToken(f.ctx, admin, usdc, types.ZeroAddress, types.NewAmount(90)))

	_, err := f.l.QuoteToken(f.ctx, usdc, creator, 1)
	require.ErrorIs(t, err, subledger.ErrUnregisteredToken)

	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, true))
	got, err := f.l.PriceToken(f.ctx, usdc, creator, 1)
	require.NoError(t, err)
	assert.Equal(t, types.NewAmount(100), got)

	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, false))
	_, err = f.l.QuoteToken(f.ctx, usdc, creator, 1)
	require.ErrorIs(t, err, subledger.ErrUnregisteredToken)

	_, err = f.l.QuoteToken(f.ctx, types.ZeroAddress, creator, 1)
	require.ErrorIs(t, err, subledger.ErrInvalidToken)
}

func TestQuoteZeroUnits(t *testing.T) {
	f := newFixture(t)
	_, err := f.l.QuoteNative(f.ctx, creator, 0)
	require.ErrorIs(t, err, subledger.ErrInvalidAmount)
}

func TestMaxFee(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.l.SetFeeNative(f.ctx, admin, subledger.MaxAmount()))
	fee, err := f.l.FeeNative(f.ctx)
	require.NoError(t, err)
	assert.True(t, fee.IsMax())

	total, err := f.l.PriceNative(f.ctx, creator, 1)
	require.NoError(t, err)
	assert.True(t, total.IsMax())

	_, err = f.l.PriceNative(f.ctx, creator, 2)
	require.ErrorIs(t, err, subledger.ErrArithmeticOverflow)
	assert.True(t, subledger.IsArithmeticError(err))

	// MAX fee plus any price overflows the sum.
	require.NoError(t, f.l.SetPriceNative(f.ctx, admin, types.ZeroAddress, types.NewAmount(1)))
	_, err = f.l.PriceNative(f.ctx, creator, 1)
	require.ErrorIs(t, err, subledger.ErrArithmeticOverflow)

	_, err = subledger.ParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	require.ErrorIs(t, err, subledger.ErrArithmeticOverflow)
	_, err = subledger.ParseAmount("-1")
	require.ErrorIs(t, err, subledger.ErrArithmeticUnderflow)
}

func TestFeeAndPriceEvents(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.l.SetFeeNative(f.ctx, admin, centiEther))
	require.NoError(t, f.l.SetPriceToken(f.ctx, admin, usdc, creator, types.NewAmount(5)))

	require.Len(t, f.events.fees, 1)
	assert.True(t, f.events.fees[0].Token.IsNative())
	assert.Equal(t, centiEther, f.events.fees[0].Fee)

	require.Len(t, f.events.prices, 1)
	assert.Equal(t, types.ERC20(usdc), f.events.prices[0].Token)
	assert.Equal(t, types.Account(creator), f.events.prices[0].Beneficiary)
	assert.False(t, f.events.prices[0].Direction)
}

func TestBaseURI(t *testing.T) {
	f := newFixture(t)

	uri, err := f.l.BaseURI(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, uri)

	require.NoError(t, f.l.SetBaseURI(f.ctx, admin, "ipfs://cid/"))
	uri, err = f.l.BaseURI(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://cid/", uri)

	require.Len(t, f.events.baseURIs, 1)
	assert.Equal(t, "ipfs://cid/", f.events.baseURIs[0].URI)
}
