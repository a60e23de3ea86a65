package audithook

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/types"
)

type captured struct {
	events []*AuditEvent
	err    error
}

func (c *captured) Record(_ context.Context, evt *AuditEvent) error {
	c.events = append(c.events, evt)
	return c.err
}

func TestHooksRecordActions(t *testing.T) {
	ctx := context.Background()
	usdc := types.Address{0xcc}
	creator := types.Address{0xc0}

	tests := []struct {
		name     string
		fire     func(e *Extension) error
		action   string
		resource string
		id       string
	}{
		{"token enabled", func(e *Extension) error {
			return e.OnAllowedTokenChanged(ctx, &event.AllowedTokenChanged{Token: usdc, Allowed: true})
		}, ActionTokenAllowed, ResourceToken, usdc.Hex()},
		{"token disabled", func(e *Extension) error {
			return e.OnAllowedTokenChanged(ctx, &event.AllowedTokenChanged{Token: usdc})
		}, ActionTokenDisallowed, ResourceToken, usdc.Hex()},
		{"admin price", func(e *Extension) error {
			return e.OnPriceChanged(ctx, &event.PriceChanged{Token: types.Native(), Beneficiary: types.DefaultBeneficiary()})
		}, ActionPriceChanged, ResourcePrice, types.Native().Key() + ":" + types.DefaultBeneficiary().Key()},
		{"direction price", func(e *Extension) error {
			return e.OnPriceChanged(ctx, &event.PriceChanged{Token: types.Native(), Beneficiary: types.Account(creator), Direction: true})
		}, ActionDirectionPriceChanged, ResourcePrice, types.Native().Key() + ":" + creator.Hex()},
		{"fee", func(e *Extension) error {
			return e.OnFeeChanged(ctx, &event.FeeChanged{Token: types.ERC20(usdc), Fee: types.NewAmount(5)})
		}, ActionFeeChanged, ResourceFee, usdc.Hex()},
		{"minted", func(e *Extension) error {
			return e.OnAssetMinted(ctx, &event.AssetMinted{AssetID: 7})
		}, ActionAssetMinted, ResourceAsset, "7"},
		{"extended", func(e *Extension) error {
			return e.OnAssetExtended(ctx, &event.AssetExtended{AssetID: 7})
		}, ActionAssetExtended, ResourceAsset, "7"},
		{"activated", func(e *Extension) error {
			return e.OnAssetActivated(ctx, &event.AssetActivated{AssetID: 7, Units: 1})
		}, ActionAssetActivated, ResourceAsset, "7"},
		{"base uri", func(e *Extension) error {
			return e.OnBaseURIChanged(ctx, &event.BaseURIChanged{URI: "ipfs://x/"})
		}, ActionBaseURIChanged, ResourceLedger, ""},
		{"administration", func(e *Extension) error {
			return e.OnAdministrationTransferred(ctx, &event.AdministrationTransferred{Previous: creator, Next: usdc})
		}, ActionAdministrationTransferred, ResourceLedger, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &captured{}
			if err := tt.fire(New(rec)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(rec.events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(rec.events))
			}
			got := rec.events[0]
			if got.Action != tt.action {
				t.Errorf("Action: got %s, want %s", got.Action, tt.action)
			}
			if got.Resource != tt.resource {
				t.Errorf("Resource: got %s, want %s", got.Resource, tt.resource)
			}
			if got.ResourceID != tt.id {
				t.Errorf("ResourceID: got %s, want %s", got.ResourceID, tt.id)
			}
			if got.Outcome != OutcomeSuccess {
				t.Errorf("Outcome: got %s", got.Outcome)
			}
		})
	}
}

func TestPurchaseFailedCarriesReason(t *testing.T) {
	rec := &captured{}
	e := New(rec)

	cause := errors.New("insufficient value")
	err := e.OnPurchaseFailed(context.Background(), &event.PurchaseFailed{Kind: "extend", AssetID: 3, Units: 2, Err: cause})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := rec.events[0]
	if got.Outcome != OutcomeFailure || got.Severity != SeverityWarning {
		t.Errorf("got outcome %s severity %s", got.Outcome, got.Severity)
	}
	if got.Reason != cause.Error() || got.Metadata["error"] != cause.Error() {
		t.Errorf("reason not propagated: %+v", got)
	}
	if got.ResourceID != "3" || got.Metadata["kind"] != "extend" {
		t.Errorf("unexpected event: %+v", got)
	}
}

func TestActionFiltering(t *testing.T) {
	ctx := context.Background()

	rec := &captured{}
	e := New(rec, WithEnabledActions(ActionFeeChanged))
	_ = e.OnBaseURIChanged(ctx, &event.BaseURIChanged{URI: "x"})
	_ = e.OnFeeChanged(ctx, &event.FeeChanged{Token: types.Native()})
	if len(rec.events) != 1 || rec.events[0].Action != ActionFeeChanged {
		t.Fatalf("enabled filter: got %+v", rec.events)
	}

	rec = &captured{}
	e = New(rec, WithDisabledActions(ActionAssetActivated))
	_ = e.OnAssetActivated(ctx, &event.AssetActivated{AssetID: 1})
	_ = e.OnAssetMinted(ctx, &event.AssetMinted{AssetID: 1})
	if len(rec.events) != 1 || rec.events[0].Action != ActionAssetMinted {
		t.Fatalf("disabled filter: got %+v", rec.events)
	}
}

func TestRecorderErrorIsSwallowed(t *testing.T) {
	rec := &captured{err: errors.New("backend down")}
	e := New(rec)
	if err := e.OnFeeChanged(context.Background(), &event.FeeChanged{Token: types.Native()}); err != nil {
		t.Fatalf("expected recorder error to be swallowed, got %v", err)
	}
	if len(rec.events) != 1 {
		t.Fatalf("expected the event to reach the recorder")
	}
}

func TestRecorderFunc(t *testing.T) {
	var called bool
	r := RecorderFunc(func(_ context.Context, _ *AuditEvent) error {
		called = true
		return nil
	})
	if err := r.Record(context.Background(), &AuditEvent{}); err != nil || !called {
		t.Fatalf("RecorderFunc did not forward: called=%v err=%v", called, err)
	}
}
