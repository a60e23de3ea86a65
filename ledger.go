package subledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/subledger/payment"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/types"
)

// DefaultUnitDuration is the subscription time bought by one unit.
const DefaultUnitDuration = 30 * 24 * time.Hour

// Ledger is the subscription-asset issuance and renewal engine.
//
// Every mutating operation holds the write lock for its full duration,
// settlement included, so operations apply one at a time and either fully
// succeed or leave no trace. Queries share the read lock and observe a
// consistent snapshot. Plugins are notified after the lock is released.
type Ledger struct {
	store   store.Store
	gateway payment.Gateway
	plugins *plugin.Registry
	logger  *slog.Logger

	mu sync.RWMutex

	// Configuration
	administrator types.Address
	account       types.Address
	unitDuration  time.Duration
	clock         func() time.Time
	skipMigrate   bool
}

// New creates a new Ledger instance backed by s that moves funds through gw.
func New(s store.Store, gw payment.Gateway, opts ...Option) *Ledger {
	l := &Ledger{
		store:        s,
		gateway:      gw,
		plugins:      plugin.NewRegistry(),
		logger:       slog.Default(),
		unitDuration: DefaultUnitDuration,
		clock:        time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAdministrator sets the administrator used when the store has none
// persisted.
func WithAdministrator(addr types.Address) Option {
	return func(l *Ledger) {
		l.administrator = addr
	}
}

// WithAccount sets the ledger's own account: the spender that token
// allowances must be granted to.
func WithAccount(addr types.Address) Option {
	return func(l *Ledger) {
		l.account = addr
	}
}

// WithUnitDuration sets the subscription time bought by one unit. Values
// below one second are ignored.
func WithUnitDuration(d time.Duration) Option {
	return func(l *Ledger) {
		if d >= time.Second {
			l.unitDuration = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.clock = now
		}
	}
}

// WithoutMigrate makes Start skip store migration, for schemas managed
// outside the ledger.
func WithoutMigrate() Option {
	return func(l *Ledger) {
		l.skipMigrate = true
	}
}

// Start migrates the store, reconciles the administrator with the persisted
// value and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if !l.skipMigrate {
		if err := l.store.Migrate(ctx); err != nil {
			return err
		}
	}

	if err := l.loadAdministrator(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("subledger started",
		"administrator", l.administrator.Hex(),
		"account", l.account.Hex(),
		"unit_duration", l.unitDuration,
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Store returns the underlying store.
func (l *Ledger) Store() store.Store { return l.store }

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry { return l.plugins }

// Account returns the ledger's spender account.
func (l *Ledger) Account() types.Address { return l.account }

// UnitDuration returns the subscription time bought by one unit.
func (l *Ledger) UnitDuration() time.Duration { return l.unitDuration }

func (l *Ledger) loadAdministrator(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	persisted, err := l.store.GetSetting(ctx, store.SettingAdministrator)
	switch {
	case err == nil:
		addr, parseErr := types.ParseAddress(persisted)
		if parseErr != nil {
			return fmt.Errorf("subledger: load administrator: %w", parseErr)
		}
		if l.administrator != types.ZeroAddress && addr != l.administrator {
			l.logger.Warn("configured administrator ignored, using persisted value",
				"configured", l.administrator.Hex(),
				"persisted", addr.Hex(),
			)
		}
		l.administrator = addr
		return nil
	case errors.Is(err, ErrSettingNotFound):
		if l.administrator == types.ZeroAddress {
			l.logger.Warn("no administrator configured, gated operations will be rejected")
			return nil
		}
		return l.store.PutSetting(ctx, store.SettingAdministrator, l.administrator.Hex())
	default:
		return fmt.Errorf("subledger: load administrator: %w", err)
	}
}

// requireAdministrator gates administrative operations. Callers hold mu.
func (l *Ledger) requireAdministrator(caller types.Address) error {
	if caller == types.ZeroAddress || caller != l.administrator {
		return ErrNotOwner
	}
	return nil
}

func (l *Ledger) now() time.Time {
	return l.clock().UTC()
}
