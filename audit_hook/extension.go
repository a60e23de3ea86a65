// Package audithook bridges subledger notifications to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                      = (*Extension)(nil)
	_ plugin.OnAllowedTokenChanged       = (*Extension)(nil)
	_ plugin.OnPriceChanged              = (*Extension)(nil)
	_ plugin.OnFeeChanged                = (*Extension)(nil)
	_ plugin.OnAssetMinted               = (*Extension)(nil)
	_ plugin.OnAssetExtended             = (*Extension)(nil)
	_ plugin.OnAssetActivated            = (*Extension)(nil)
	_ plugin.OnPurchaseFailed            = (*Extension)(nil)
	_ plugin.OnBaseURIChanged            = (*Extension)(nil)
	_ plugin.OnAdministrationTransferred = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges subledger notifications to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Registry and pricing hooks
// ──────────────────────────────────────────────────

// OnAllowedTokenChanged implements plugin.OnAllowedTokenChanged.
func (e *Extension) OnAllowedTokenChanged(ctx context.Context, evt *event.AllowedTokenChanged) error {
	action := ActionTokenAllowed
	if !evt.Allowed {
		action = ActionTokenDisallowed
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceToken, evt.Token.Hex(), CategoryRegistry, nil,
		"allowed", evt.Allowed,
	)
}

// OnPriceChanged implements plugin.OnPriceChanged.
func (e *Extension) OnPriceChanged(ctx context.Context, evt *event.PriceChanged) error {
	action := ActionPriceChanged
	if evt.Direction {
		action = ActionDirectionPriceChanged
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourcePrice, evt.Token.Key()+":"+evt.Beneficiary.Key(), CategoryPricing, nil,
		"token", evt.Token.String(),
		"beneficiary", evt.Beneficiary.String(),
		"price", evt.Price.String(),
		"changed_by", evt.ChangedBy.Hex(),
	)
}

// OnFeeChanged implements plugin.OnFeeChanged.
func (e *Extension) OnFeeChanged(ctx context.Context, evt *event.FeeChanged) error {
	return e.record(ctx, ActionFeeChanged, SeverityInfo, OutcomeSuccess,
		ResourceFee, evt.Token.Key(), CategoryPricing, nil,
		"token", evt.Token.String(),
		"fee", evt.Fee.String(),
	)
}

// ──────────────────────────────────────────────────
// Asset hooks
// ──────────────────────────────────────────────────

// OnAssetMinted implements plugin.OnAssetMinted.
func (e *Extension) OnAssetMinted(ctx context.Context, evt *event.AssetMinted) error {
	return e.record(ctx, ActionAssetMinted, SeverityInfo, OutcomeSuccess,
		ResourceAsset, assetResourceID(evt.AssetID), CategoryPayment, nil,
		"owner", evt.Owner.Hex(),
		"beneficiary", evt.Beneficiary.Hex(),
		"token", evt.Token.String(),
		"units", evt.Units,
		"total", evt.Total.String(),
		"expiration", evt.Expiration,
		"receipt_id", evt.ReceiptID.String(),
	)
}

// OnAssetExtended implements plugin.OnAssetExtended.
func (e *Extension) OnAssetExtended(ctx context.Context, evt *event.AssetExtended) error {
	return e.record(ctx, ActionAssetExtended, SeverityInfo, OutcomeSuccess,
		ResourceAsset, assetResourceID(evt.AssetID), CategoryPayment, nil,
		"payer", evt.Payer.Hex(),
		"token", evt.Token.String(),
		"units", evt.Units,
		"total", evt.Total.String(),
		"prev_expiration", evt.PrevExpiration,
		"expiration", evt.Expiration,
		"receipt_id", evt.ReceiptID.String(),
	)
}

// OnAssetActivated implements plugin.OnAssetActivated.
func (e *Extension) OnAssetActivated(ctx context.Context, evt *event.AssetActivated) error {
	return e.record(ctx, ActionAssetActivated, SeverityInfo, OutcomeSuccess,
		ResourceAsset, assetResourceID(evt.AssetID), CategoryPayment, nil,
		"units", evt.Units,
		"total", evt.Total.String(),
	)
}

// OnPurchaseFailed implements plugin.OnPurchaseFailed.
func (e *Extension) OnPurchaseFailed(ctx context.Context, evt *event.PurchaseFailed) error {
	var resourceID string
	if evt.AssetID != 0 {
		resourceID = assetResourceID(evt.AssetID)
	}
	return e.record(ctx, ActionPurchaseFailed, SeverityWarning, OutcomeFailure,
		ResourceAsset, resourceID, CategoryPayment, evt.Err,
		"kind", evt.Kind,
		"payer", evt.Payer.Hex(),
		"token", evt.Token.String(),
		"units", evt.Units,
	)
}

// ──────────────────────────────────────────────────
// Administration hooks
// ──────────────────────────────────────────────────

// OnBaseURIChanged implements plugin.OnBaseURIChanged.
func (e *Extension) OnBaseURIChanged(ctx context.Context, evt *event.BaseURIChanged) error {
	return e.record(ctx, ActionBaseURIChanged, SeverityInfo, OutcomeSuccess,
		ResourceLedger, "", CategoryAdmin, nil,
		"uri", evt.URI,
	)
}

// OnAdministrationTransferred implements plugin.OnAdministrationTransferred.
func (e *Extension) OnAdministrationTransferred(ctx context.Context, evt *event.AdministrationTransferred) error {
	return e.record(ctx, ActionAdministrationTransferred, SeverityCritical, OutcomeSuccess,
		ResourceLedger, "", CategoryAdmin, nil,
		"previous", evt.Previous.Hex(),
		"next", evt.Next.Hex(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func assetResourceID(assetID uint64) string {
	return strconv.FormatUint(assetID, 10)
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
