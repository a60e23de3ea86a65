// Package observability provides a metrics extension for subledger that
// records notification counts through a MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                      = (*MetricsExtension)(nil)
	_ plugin.OnInit                      = (*MetricsExtension)(nil)
	_ plugin.OnAllowedTokenChanged       = (*MetricsExtension)(nil)
	_ plugin.OnPriceChanged              = (*MetricsExtension)(nil)
	_ plugin.OnFeeChanged                = (*MetricsExtension)(nil)
	_ plugin.OnAssetMinted               = (*MetricsExtension)(nil)
	_ plugin.OnAssetExtended             = (*MetricsExtension)(nil)
	_ plugin.OnAssetActivated            = (*MetricsExtension)(nil)
	_ plugin.OnPurchaseFailed            = (*MetricsExtension)(nil)
	_ plugin.OnBaseURIChanged            = (*MetricsExtension)(nil)
	_ plugin.OnAdministrationTransferred = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records ledger activity metrics.
// Register it as a subledger plugin to track purchases automatically.
type MetricsExtension struct {
	factory MetricFactory

	// Registry metrics
	TokensEnabled  Counter
	TokensDisabled Counter

	// Pricing metrics
	PriceChanges          Counter
	DirectionPriceChanges Counter
	FeeChanges            Counter

	// Asset metrics
	AssetsMinted     Counter
	AssetsExtended   Counter
	AssetsActivated  Counter
	UnitsPurchased   Counter
	UnitsPerPurchase Histogram
	PurchasesNative  Counter
	PurchasesToken   Counter
	PurchaseFailures Counter
	PaymentFailures  Counter
	ArithmeticErrors Counter

	// Administration metrics
	BaseURIChanges          Counter
	AdministrationTransfers Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Registry metrics
		TokensEnabled:  factory.Counter("subledger.token.enabled"),
		TokensDisabled: factory.Counter("subledger.token.disabled"),

		// Pricing metrics
		PriceChanges:          factory.Counter("subledger.price.changed"),
		DirectionPriceChanges: factory.Counter("subledger.price.direction_changed"),
		FeeChanges:            factory.Counter("subledger.fee.changed"),

		// Asset metrics
		AssetsMinted:     factory.Counter("subledger.asset.minted"),
		AssetsExtended:   factory.Counter("subledger.asset.extended"),
		AssetsActivated:  factory.Counter("subledger.asset.activated"),
		UnitsPurchased:   factory.Counter("subledger.asset.units"),
		UnitsPerPurchase: factory.Histogram("subledger.asset.units_per_purchase"),
		PurchasesNative:  factory.Counter("subledger.purchase.native"),
		PurchasesToken:   factory.Counter("subledger.purchase.token"),
		PurchaseFailures: factory.Counter("subledger.purchase.failed"),
		PaymentFailures:  factory.Counter("subledger.purchase.payment_failed"),
		ArithmeticErrors: factory.Counter("subledger.purchase.arithmetic_failed"),

		// Administration metrics
		BaseURIChanges:          factory.Counter("subledger.base_uri.changed"),
		AdministrationTransfers: factory.Counter("subledger.administration.transferred"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	return nil
}

// ──────────────────────────────────────────────────
// Registry and pricing hooks
// ──────────────────────────────────────────────────

// OnAllowedTokenChanged implements plugin.OnAllowedTokenChanged.
func (m *MetricsExtension) OnAllowedTokenChanged(_ context.Context, e *event.AllowedTokenChanged) error {
	if e.Allowed {
		m.TokensEnabled.Inc()
	} else {
		m.TokensDisabled.Inc()
	}
	return nil
}

// OnPriceChanged implements plugin.OnPriceChanged.
func (m *MetricsExtension) OnPriceChanged(_ context.Context, e *event.PriceChanged) error {
	if e.Direction {
		m.DirectionPriceChanges.Inc()
	} else {
		m.PriceChanges.Inc()
	}
	return nil
}

// OnFeeChanged implements plugin.OnFeeChanged.
func (m *MetricsExtension) OnFeeChanged(_ context.Context, _ *event.FeeChanged) error {
	m.FeeChanges.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Asset hooks
// ──────────────────────────────────────────────────

// OnAssetMinted implements plugin.OnAssetMinted.
func (m *MetricsExtension) OnAssetMinted(_ context.Context, e *event.AssetMinted) error {
	m.AssetsMinted.Inc()
	m.countMedium(e.Token.IsNative())
	return nil
}

// OnAssetExtended implements plugin.OnAssetExtended.
func (m *MetricsExtension) OnAssetExtended(_ context.Context, e *event.AssetExtended) error {
	m.AssetsExtended.Inc()
	m.countMedium(e.Token.IsNative())
	return nil
}

// OnAssetActivated implements plugin.OnAssetActivated.
func (m *MetricsExtension) OnAssetActivated(_ context.Context, e *event.AssetActivated) error {
	units := float64(e.Units)
	m.AssetsActivated.Inc()
	m.UnitsPurchased.Add(units)
	m.UnitsPerPurchase.Observe(units)
	return nil
}

// OnPurchaseFailed implements plugin.OnPurchaseFailed.
func (m *MetricsExtension) OnPurchaseFailed(_ context.Context, e *event.PurchaseFailed) error {
	m.PurchaseFailures.Inc()
	switch {
	case subledger.IsPaymentError(e.Err):
		m.PaymentFailures.Inc()
	case subledger.IsArithmeticError(e.Err):
		m.ArithmeticErrors.Inc()
	}
	return nil
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnBaseURIChanged implements plugin.OnBaseURIChanged.
func (m *MetricsExtension) OnBaseURIChanged(_ context.Context, _ *event.BaseURIChanged) error {
	m.BaseURIChanges.Inc()
	return nil
}

// OnAdministrationTransferred implements plugin.OnAdministrationTransferred.
func (m *MetricsExtension) OnAdministrationTransferred(_ context.Context, _ *event.AdministrationTransferred) error {
	m.AdministrationTransfers.Inc()
	return nil
}

func (m *MetricsExtension) countMedium(native bool) {
	if native {
		m.PurchasesNative.Inc()
	} else {
		m.PurchasesToken.Inc()
	}
}
