package observability

import (
	"context"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/types"
)

func TestMetricsExtensionCounts(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	factory := NewPrometheusFactory(reg)
	m := NewMetricsExtension(factory)

	_ = m.OnAllowedTokenChanged(ctx, &event.AllowedTokenChanged{Allowed: true})
	_ = m.OnAllowedTokenChanged(ctx, &event.AllowedTokenChanged{})
	_ = m.OnPriceChanged(ctx, &event.PriceChanged{})
	_ = m.OnPriceChanged(ctx, &event.PriceChanged{Direction: true})
	_ = m.OnFeeChanged(ctx, &event.FeeChanged{})
	_ = m.OnAssetMinted(ctx, &event.AssetMinted{Token: types.Native()})
	_ = m.OnAssetExtended(ctx, &event.AssetExtended{Token: types.ERC20(types.Address{0xcc})})
	_ = m.OnAssetActivated(ctx, &event.AssetActivated{Units: 3})
	_ = m.OnAssetActivated(ctx, &event.AssetActivated{Units: 2})
	_ = m.OnBaseURIChanged(ctx, &event.BaseURIChanged{})
	_ = m.OnAdministrationTransferred(ctx, &event.AdministrationTransferred{})

	tests := []struct {
		name string
		c    Counter
		want float64
	}{
		{"TokensEnabled", m.TokensEnabled, 1},
		{"TokensDisabled", m.TokensDisabled, 1},
		{"PriceChanges", m.PriceChanges, 1},
		{"DirectionPriceChanges", m.DirectionPriceChanges, 1},
		{"FeeChanges", m.FeeChanges, 1},
		{"AssetsMinted", m.AssetsMinted, 1},
		{"AssetsExtended", m.AssetsExtended, 1},
		{"AssetsActivated", m.AssetsActivated, 2},
		{"UnitsPurchased", m.UnitsPurchased, 5},
		{"PurchasesNative", m.PurchasesNative, 1},
		{"PurchasesToken", m.PurchasesToken, 1},
		{"BaseURIChanges", m.BaseURIChanges, 1},
		{"AdministrationTransfers", m.AdministrationTransfers, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := testutil.ToFloat64(tt.c.(prometheus.Counter))
			if got != tt.want {
				t.Errorf("Got %v, want %v", got, tt.want)
			}
		})
	}

	n, err := testutil.GatherAndCount(reg, "subledger_asset_units_per_purchase")
	if err != nil || n != 1 {
		t.Errorf("expected units histogram to be registered, got %d, %v", n, err)
	}
}

func TestPurchaseFailureClassification(t *testing.T) {
	ctx := context.Background()
	m := NewMetricsExtension(NewPrometheusFactory(prometheus.NewRegistry()))

	_ = m.OnPurchaseFailed(ctx, &event.PurchaseFailed{Err: fmt.Errorf("mint: %w", subledger.ErrInsufficientValue)})
	_ = m.OnPurchaseFailed(ctx, &event.PurchaseFailed{Err: subledger.ErrTransferRejected})
	_ = m.OnPurchaseFailed(ctx, &event.PurchaseFailed{Err: subledger.ErrArithmeticOverflow})
	_ = m.OnPurchaseFailed(ctx, &event.PurchaseFailed{Err: subledger.ErrInvalidAmount})

	if got := testutil.ToFloat64(m.PurchaseFailures.(prometheus.Counter)); got != 4 {
		t.Errorf("PurchaseFailures: got %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.PaymentFailures.(prometheus.Counter)); got != 2 {
		t.Errorf("PaymentFailures: got %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ArithmeticErrors.(prometheus.Counter)); got != 1 {
		t.Errorf("ArithmeticErrors: got %v, want 1", got)
	}
}

func TestPrometheusFactoryReuse(t *testing.T) {
	reg := prometheus.NewRegistry()

	a := NewPrometheusFactory(reg).Counter("subledger.asset.minted")
	b := NewPrometheusFactory(reg).Counter("subledger.asset.minted")
	a.Inc()
	b.Inc()

	if got := testutil.ToFloat64(a.(prometheus.Counter)); got != 2 {
		t.Errorf("expected shared collector, got %v", got)
	}

	f := NewPrometheusFactory(reg)
	if f.Histogram("subledger.x") != f.Histogram("subledger.x") {
		t.Error("expected the same histogram for the same name")
	}
}

func TestMetricName(t *testing.T) {
	if got := metricName("subledger.price.direction-changed"); got != "subledger_price_direction_changed" {
		t.Errorf("Got %s", got)
	}
}
