// Package extension provides the Forge extension adapter for subledger.
//
// It implements the forge.Extension interface to integrate subledger
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.subledger" or
// "subledger" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/payment"
	paymentmem "github.com/xraph/subledger/payment/memory"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "subledger"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Subscription asset issuance and renewal ledger"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts subledger as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *subledger.Ledger
	store      store.Store
	gateway    payment.Gateway
	ledgerOpts []subledger.Option
}

// New creates a new subledger Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *subledger.Ledger { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// initializes the ledger engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	fallback, err := e.resolveBackends()
	if err != nil {
		return err
	}
	if fallback {
		e.Logger().Warn("subledger: no payment gateway configured; settling against an empty in-memory bank")
	}

	e.engine = subledger.New(e.store, e.gateway, e.buildLedgerOpts()...)

	return vessel.Provide(fapp.Container(), func() (*subledger.Ledger, error) {
		return e.engine, nil
	})
}

// ErrGatewayRequired is returned by Register when RequireConfig is set and
// no gateway was supplied.
var ErrGatewayRequired = errors.New("subledger: payment gateway required")

// resolveBackends fills in the in-memory store and bank when none were
// given. It reports whether the bank fallback was used.
func (e *Extension) resolveBackends() (bool, error) {
	if e.store == nil {
		e.store = memory.New()
	}
	if e.gateway != nil {
		return false, nil
	}
	if e.config.RequireConfig {
		return false, ErrGatewayRequired
	}
	e.gateway = paymentmem.New()
	return true, nil
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("subledger: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	if err := e.seedBaseURI(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("subledger: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildLedgerOpts constructs subledger.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []subledger.Option {
	opts := make([]subledger.Option, 0, len(e.ledgerOpts)+4)

	if admin := e.config.administrator(); admin != subledger.ZeroAddress {
		opts = append(opts, subledger.WithAdministrator(admin))
	}
	if acct := e.config.account(); acct != subledger.ZeroAddress {
		opts = append(opts, subledger.WithAccount(acct))
	}
	if e.config.UnitDuration > 0 {
		opts = append(opts, subledger.WithUnitDuration(e.config.UnitDuration))
	}
	if e.config.DisableMigrate {
		opts = append(opts, subledger.WithoutMigrate())
	}

	// Pass-through options last so they win.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// seedBaseURI writes the configured base URI when none is stored yet.
func (e *Extension) seedBaseURI(ctx context.Context) error {
	if e.config.BaseURI == "" {
		return nil
	}
	current, err := e.engine.BaseURI(ctx)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	admin := e.engine.Administrator(ctx)
	if admin == subledger.ZeroAddress {
		e.Logger().Warn("subledger: base_uri configured without an administrator; skipping",
			forge.F("base_uri", e.config.BaseURI),
		)
		return nil
	}
	if err := e.engine.SetBaseURI(ctx, admin, e.config.BaseURI); err != nil {
		return fmt.Errorf("subledger: seed base uri: %w", err)
	}
	return nil
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("subledger: configuration is required but not found in config files; " +
				"ensure 'extensions.subledger' or 'subledger' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	e.Logger().Debug("subledger: configuration loaded",
		forge.F("administrator", e.config.Administrator),
		forge.F("account", e.config.Account),
		forge.F("unit_duration", e.config.UnitDuration),
		forge.F("base_uri", e.config.BaseURI),
		forge.F("disable_migrate", e.config.DisableMigrate),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.subledger" first (namespaced pattern).
	if cm.IsSet("extensions.subledger") {
		if err := cm.Bind("extensions.subledger", &cfg); err == nil {
			e.Logger().Debug("subledger: loaded config from file",
				forge.F("key", "extensions.subledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("subledger: failed to bind extensions.subledger config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "subledger" key.
	if cm.IsSet("subledger") {
		if err := cm.Bind("subledger", &cfg); err == nil {
			e.Logger().Debug("subledger: loaded config from file",
				forge.F("key", "subledger"),
			)
			return cfg, true
		}
		e.Logger().Warn("subledger: failed to bind subledger config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.UnitDuration == 0 {
		cfg.UnitDuration = defaults.UnitDuration
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	if yamlConfig.Administrator == "" {
		yamlConfig.Administrator = programmaticConfig.Administrator
	}
	if yamlConfig.Account == "" {
		yamlConfig.Account = programmaticConfig.Account
	}
	if yamlConfig.BaseURI == "" {
		yamlConfig.BaseURI = programmaticConfig.BaseURI
	}
	if yamlConfig.UnitDuration == 0 {
		yamlConfig.UnitDuration = programmaticConfig.UnitDuration
	}

	return mergeWithDefaults(yamlConfig)
}
