// Package plugin provides an extensible plugin system for subledger.
// Plugins hook into ledger notifications to extend functionality. Hooks run
// after the state change they describe has been committed and can never
// change the outcome of the operation.
package plugin

import (
	"context"

	"github.com/xraph/subledger/event"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the ledger starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, l interface{}) error
}

// OnShutdown is called when the ledger stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Registry and pricing hooks
// ──────────────────────────────────────────────────

// OnPriceChanged is called when a price entry is written.
type OnPriceChanged interface {
	Plugin
	OnPriceChanged(ctx context.Context, e *event.PriceChanged) error
}

// OnFeeChanged is called when a token fee is written.
type OnFeeChanged interface {
	Plugin
	OnFeeChanged(ctx context.Context, e *event.FeeChanged) error
}

// OnAllowedTokenChanged is called when a token is enabled or disabled.
type OnAllowedTokenChanged interface {
	Plugin
	OnAllowedTokenChanged(ctx context.Context, e *event.AllowedTokenChanged) error
}

// ──────────────────────────────────────────────────
// Asset hooks
// ──────────────────────────────────────────────────

// OnAssetActivated is called after every successful mint and extend.
type OnAssetActivated interface {
	Plugin
	OnAssetActivated(ctx context.Context, e *event.AssetActivated) error
}

// OnAssetMinted is called after a new asset has been paid for.
type OnAssetMinted interface {
	Plugin
	OnAssetMinted(ctx context.Context, e *event.AssetMinted) error
}

// OnAssetExtended is called after an asset's expiration has advanced.
type OnAssetExtended interface {
	Plugin
	OnAssetExtended(ctx context.Context, e *event.AssetExtended) error
}

// OnPurchaseFailed is called when a mint or extend is rejected.
type OnPurchaseFailed interface {
	Plugin
	OnPurchaseFailed(ctx context.Context, e *event.PurchaseFailed) error
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnBaseURIChanged is called when the metadata base URI changes.
type OnBaseURIChanged interface {
	Plugin
	OnBaseURIChanged(ctx context.Context, e *event.BaseURIChanged) error
}

// OnAdministrationTransferred is called when the administrator changes.
type OnAdministrationTransferred interface {
	Plugin
	OnAdministrationTransferred(ctx context.Context, e *event.AdministrationTransferred) error
}
