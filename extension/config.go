package extension

import (
	"time"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/types"
)

// Config holds the subledger extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.subledger" or "subledger" keys).
type Config struct {
	// Administrator is the hex address allowed to manage tokens, prices,
	// fees and metadata. A value already persisted in the store wins.
	Administrator string `json:"administrator" mapstructure:"administrator" yaml:"administrator"`

	// Account is the ledger's own hex address, the spender that payers
	// approve for token purchases.
	Account string `json:"account" mapstructure:"account" yaml:"account"`

	// UnitDuration is the subscription time bought by one unit (default: 720h).
	UnitDuration time.Duration `json:"unit_duration" mapstructure:"unit_duration" yaml:"unit_duration"`

	// BaseURI seeds the metadata base URI on first start.
	BaseURI string `json:"base_uri" mapstructure:"base_uri" yaml:"base_uri"`

	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error. It also
	// makes WithGateway mandatory.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		UnitDuration: subledger.DefaultUnitDuration,
	}
}

// Validate checks the address and duration fields.
func (c Config) Validate() error {
	var errs subledger.MultiError

	if c.Administrator != "" {
		if _, err := types.ParseAddress(c.Administrator); err != nil {
			errs.Add(subledger.ValidationError{Field: "administrator", Message: err.Error()})
		}
	}
	if c.Account != "" {
		if _, err := types.ParseAddress(c.Account); err != nil {
			errs.Add(subledger.ValidationError{Field: "account", Message: err.Error()})
		}
	}
	if c.UnitDuration != 0 && c.UnitDuration < time.Second {
		errs.Add(subledger.ValidationError{Field: "unit_duration", Message: "must be at least 1s"})
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// administrator returns the parsed administrator, or the zero address.
func (c Config) administrator() types.Address {
	addr, _ := types.ParseAddress(c.Administrator) //nolint:errcheck // validated in Register
	return addr
}

// account returns the parsed account, or the zero address.
func (c Config) account() types.Address {
	addr, _ := types.ParseAddress(c.Account) //nolint:errcheck // validated in Register
	return addr
}
