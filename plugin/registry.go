package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/subledger/event"
)

// DefaultTimeout bounds a single hook call.
const DefaultTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit                      []OnInit
	onShutdown                  []OnShutdown
	onPriceChanged              []OnPriceChanged
	onFeeChanged                []OnFeeChanged
	onAllowedTokenChanged       []OnAllowedTokenChanged
	onAssetActivated            []OnAssetActivated
	onAssetMinted               []OnAssetMinted
	onAssetExtended             []OnAssetExtended
	onPurchaseFailed            []OnPurchaseFailed
	onBaseURIChanged            []OnBaseURIChanged
	onAdministrationTransferred []OnAdministrationTransferred
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets the per-hook timeout.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnPriceChanged); ok {
		r.onPriceChanged = append(r.onPriceChanged, v)
	}
	if v, ok := p.(OnFeeChanged); ok {
		r.onFeeChanged = append(r.onFeeChanged, v)
	}
	if v, ok := p.(OnAllowedTokenChanged); ok {
		r.onAllowedTokenChanged = append(r.onAllowedTokenChanged, v)
	}
	if v, ok := p.(OnAssetActivated); ok {
		r.onAssetActivated = append(r.onAssetActivated, v)
	}
	if v, ok := p.(OnAssetMinted); ok {
		r.onAssetMinted = append(r.onAssetMinted, v)
	}
	if v, ok := p.(OnAssetExtended); ok {
		r.onAssetExtended = append(r.onAssetExtended, v)
	}
	if v, ok := p.(OnPurchaseFailed); ok {
		r.onPurchaseFailed = append(r.onPurchaseFailed, v)
	}
	if v, ok := p.(OnBaseURIChanged); ok {
		r.onBaseURIChanged = append(r.onBaseURIChanged, v)
	}
	if v, ok := p.(OnAdministrationTransferred); ok {
		r.onAdministrationTransferred = append(r.onAdministrationTransferred, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name string
	typ  reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnPriceChanged", reflect.TypeOf((*OnPriceChanged)(nil)).Elem()},
	{"OnFeeChanged", reflect.TypeOf((*OnFeeChanged)(nil)).Elem()},
	{"OnAllowedTokenChanged", reflect.TypeOf((*OnAllowedTokenChanged)(nil)).Elem()},
	{"OnAssetActivated", reflect.TypeOf((*OnAssetActivated)(nil)).Elem()},
	{"OnAssetMinted", reflect.TypeOf((*OnAssetMinted)(nil)).Elem()},
	{"OnAssetExtended", reflect.TypeOf((*OnAssetExtended)(nil)).Elem()},
	{"OnPurchaseFailed", reflect.TypeOf((*OnPurchaseFailed)(nil)).Elem()},
	{"OnBaseURIChanged", reflect.TypeOf((*OnBaseURIChanged)(nil)).Elem()},
	{"OnAdministrationTransferred", reflect.TypeOf((*OnAdministrationTransferred)(nil)).Elem()},
}

// implementedInterfaces returns the hook names implemented by the plugin.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.typ) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, ledger interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	dispatch(ctx, r, "OnInit", plugins, func(p OnInit) error {
		return p.OnInit(ctx, ledger)
	})
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	dispatch(ctx, r, "OnShutdown", plugins, func(p OnShutdown) error {
		return p.OnShutdown(ctx)
	})
}

// EmitPriceChanged emits a price changed event.
func (r *Registry) EmitPriceChanged(ctx context.Context, e *event.PriceChanged) {
	r.mu.RLock()
	plugins := r.onPriceChanged
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPriceChanged", plugins, func(p OnPriceChanged) error {
		return p.OnPriceChanged(ctx, e)
	})
}

// EmitFeeChanged emits a fee changed event.
func (r *Registry) EmitFeeChanged(ctx context.Context, e *event.FeeChanged) {
	r.mu.RLock()
	plugins := r.onFeeChanged
	r.mu.RUnlock()

	dispatch(ctx, r, "OnFeeChanged", plugins, func(p OnFeeChanged) error {
		return p.OnFeeChanged(ctx, e)
	})
}

// EmitAllowedTokenChanged emits an allowed token changed event.
func (r *Registry) EmitAllowedTokenChanged(ctx context.Context, e *event.AllowedTokenChanged) {
	r.mu.RLock()
	plugins := r.onAllowedTokenChanged
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAllowedTokenChanged", plugins, func(p OnAllowedTokenChanged) error {
		return p.OnAllowedTokenChanged(ctx, e)
	})
}

// EmitAssetActivated emits an asset activated event.
func (r *Registry) EmitAssetActivated(ctx context.Context, e *event.AssetActivated) {
	r.mu.RLock()
	plugins := r.onAssetActivated
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAssetActivated", plugins, func(p OnAssetActivated) error {
		return p.OnAssetActivated(ctx, e)
	})
}

// EmitAssetMinted emits an asset minted event.
func (r *Registry) EmitAssetMinted(ctx context.Context, e *event.AssetMinted) {
	r.mu.RLock()
	plugins := r.onAssetMinted
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAssetMinted", plugins, func(p OnAssetMinted) error {
		return p.OnAssetMinted(ctx, e)
	})
}

// EmitAssetExtended emits an asset extended event.
func (r *Registry) EmitAssetExtended(ctx context.Context, e *event.AssetExtended) {
	r.mu.RLock()
	plugins := r.onAssetExtended
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAssetExtended", plugins, func(p OnAssetExtended) error {
		return p.OnAssetExtended(ctx, e)
	})
}

// EmitPurchaseFailed emits a purchase failed event.
func (r *Registry) EmitPurchaseFailed(ctx context.Context, e *event.PurchaseFailed) {
	r.mu.RLock()
	plugins := r.onPurchaseFailed
	r.mu.RUnlock()

	dispatch(ctx, r, "OnPurchaseFailed", plugins, func(p OnPurchaseFailed) error {
		return p.OnPurchaseFailed(ctx, e)
	})
}

// EmitBaseURIChanged emits a base URI changed event.
func (r *Registry) EmitBaseURIChanged(ctx context.Context, e *event.BaseURIChanged) {
	r.mu.RLock()
	plugins := r.onBaseURIChanged
	r.mu.RUnlock()

	dispatch(ctx, r, "OnBaseURIChanged", plugins, func(p OnBaseURIChanged) error {
		return p.OnBaseURIChanged(ctx, e)
	})
}

// EmitAdministrationTransferred emits an administration transferred event.
func (r *Registry) EmitAdministrationTransferred(ctx context.Context, e *event.AdministrationTransferred) {
	r.mu.RLock()
	plugins := r.onAdministrationTransferred
	r.mu.RUnlock()

	dispatch(ctx, r, "OnAdministrationTransferred", plugins, func(p OnAdministrationTransferred) error {
		return p.OnAdministrationTransferred(ctx, e)
	})
}

// dispatch invokes hook on every plugin, logging failures.
func dispatch[T Plugin](ctx context.Context, r *Registry, hook string, plugins []T, call func(T) error) {
	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the purchase pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(r.timeout):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
