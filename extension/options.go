package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/payment"
	"github.com/xraph/subledger/plugin"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/store/mongo"
	"github.com/xraph/subledger/store/postgres"
	"github.com/xraph/subledger/store/sqlite"
)

// Option configures the subledger Forge extension.
type Option func(*Extension)

// WithStore sets the store for the ledger engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPostgres backs the ledger with a PostgreSQL grove database.
func WithPostgres(db *grove.DB) Option {
	return WithStore(postgres.New(db))
}

// WithSQLite backs the ledger with a SQLite grove database.
func WithSQLite(db *grove.DB) Option {
	return WithStore(sqlite.New(db))
}

// WithMongo backs the ledger with a MongoDB grove database.
func WithMongo(db *grove.DB) Option {
	return WithStore(mongo.New(db))
}

// WithGateway sets the payment gateway. Without one the extension settles
// against an in-memory bank.
func WithGateway(gw payment.Gateway) Option {
	return func(e *Extension) {
		e.gateway = gw
	}
}

// WithLedgerOption passes a subledger.Option through to the underlying engine.
func WithLedgerOption(opt subledger.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers a subledger plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, subledger.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithAdministrator sets the administrator address (hex).
func WithAdministrator(addr string) Option {
	return func(e *Extension) { e.config.Administrator = addr }
}

// WithAccount sets the ledger's own address (hex).
func WithAccount(addr string) Option {
	return func(e *Extension) { e.config.Account = addr }
}

// WithUnitDuration sets the subscription time bought by one unit.
func WithUnitDuration(d time.Duration) Option {
	return func(e *Extension) { e.config.UnitDuration = d }
}

// WithBaseURI seeds the metadata base URI.
func WithBaseURI(uri string) Option {
	return func(e *Extension) { e.config.BaseURI = uri }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
