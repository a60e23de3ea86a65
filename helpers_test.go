package subledger_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/event"
	paymem "github.com/xraph/subledger/payment/memory"
	storemem "github.com/xraph/subledger/store/memory"
	"github.com/xraph/subledger/types"
)

var (
	admin   = types.Address{0xad}
	account = types.Address{0x1e}
	buyer   = types.Address{0xb0}
	creator = types.Address{0xc0}
	other   = types.Address{0x0e}
	usdc    = types.Address{0xcc}

	// 0.01, 1.0 and 2.0 in 18-decimal native units.
	centiEther = types.MustParseAmount("10000000000000000")
	oneEther   = types.MustParseAmount("1000000000000000000")
	twoEther   = types.MustParseAmount("2000000000000000000")

	epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// events captures every notification the ledger emits.
type events struct {
	mu        sync.Mutex
	prices    []*event.PriceChanged
	fees      []*event.FeeChanged
	tokens    []*event.AllowedTokenChanged
	activated []*event.AssetActivated
	minted    []*event.AssetMinted
	extended  []*event.AssetExtended
	failed    []*event.PurchaseFailed
	baseURIs  []*event.BaseURIChanged
	transfers []*event.AdministrationTransferred
}

func (e *events) Name() string { return "test-events" }

func (e *events) OnPriceChanged(_ context.Context, ev *event.PriceChanged) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.prices = append(e.prices, ev)
	return nil
}

func (e *events) OnFeeChanged(_ context.Context, ev *event.FeeChanged) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fees = append(e.fees, ev)
	return nil
}

func (e *events) OnAllowedTokenChanged(_ context.Context, ev *event.AllowedTokenChanged) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tokens = append(e.tokens, ev)
	return nil
}

func (e *events) OnAssetActivated(_ context.Context, ev *event.AssetActivated) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activated = append(e.activated, ev)
	return nil
}

func (e *events) OnAssetMinted(_ context.Context, ev *event.AssetMinted) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.minted = append(e.minted, ev)
	return nil
}

func (e *events) OnAssetExtended(_ context.Context, ev *event.AssetExtended) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extended = append(e.extended, ev)
	return nil
}

func (e *events) OnPurchaseFailed(_ context.Context, ev *event.PurchaseFailed) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failed = append(e.failed, ev)
	return nil
}

func (e *events) OnBaseURIChanged(_ context.Context, ev *event.BaseURIChanged) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.baseURIs = append(e.baseURIs, ev)
	return nil
}

func (e *events) OnAdministrationTransferred(_ context.Context, ev *event.AdministrationTransferred) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transfers = append(e.transfers, ev)
	return nil
}

type fixture struct {
	ctx    context.Context
	l      *subledger.Ledger
	store  *storemem.Store
	bank   *paymem.Bank
	clock  *fakeClock
	events *events
}

func newFixture(t *testing.T, opts ...subledger.Option) *fixture {
	t.Helper()

	f := &fixture{
		ctx:    context.Background(),
		store:  storemem.New(),
		bank:   paymem.New(),
		clock:  &fakeClock{now: epoch},
		events: &events{},
	}

	base := []subledger.Option{
		subledger.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		subledger.WithAdministrator(admin),
		subledger.WithAccount(account),
		subledger.WithClock(f.clock.Now),
		subledger.WithPlugin(f.events),
	}
	f.l = subledger.New(f.store, f.bank, append(base, opts...)...)
	require.NoError(t, f.l.Start(f.ctx))

	hundred, err := oneEther.MulUnits(100)
	require.NoError(t, err)
	require.NoError(t, f.bank.Deposit(types.Native(), buyer, hundred))
	require.NoError(t, f.bank.Deposit(types.Native(), other, hundred))

	return f
}

// enableUSDC registers usdc and funds buyer with an allowance for the
// ledger account.
func (f *fixture) enableUSDC(t *testing.T, balance, allowance types.Amount) {
	t.Helper()
	require.NoError(t, f.l.SetAllowedToken(f.ctx, admin, usdc, true))
	require.NoError(t, f.bank.Deposit(types.ERC20(usdc), buyer, balance))
	f.bank.Approve(types.ERC20(usdc), buyer, account, allowance)
}

func (f *fixture) nativeBalance(addr types.Address) types.Amount {
	return f.bank.BalanceOf(types.Native(), addr)
}

func mustAdd(t *testing.T, a, b types.Amount) types.Amount {
	t.Helper()
	sum, err := types.CheckedAdd(a, b)
	require.NoError(t, err)
	return sum
}

func mustSub(t *testing.T, a, b types.Amount) types.Amount {
	t.Helper()
	diff, err := types.CheckedSub(a, b)
	require.NoError(t, err)
	return diff
}
