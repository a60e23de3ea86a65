package subledger

import (
	"context"
	"time"

	"github.com/xraph/subledger/asset"
	"github.com/xraph/subledger/types"
)

// ──────────────────────────────────────────────────
// Subscription assets
// ──────────────────────────────────────────────────

// OwnerAssets returns the ids of the assets attributed to owner, in mint
// order.
func (l *Ledger) OwnerAssets(ctx context.Context, owner types.Address) ([]uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	assets, err := l.store.ListAssetsByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(assets))
	for _, a := range assets {
		ids = append(ids, a.ID)
	}
	return ids, nil
}

// Asset returns the asset with the given id.
func (l *Ledger) Asset(ctx context.Context, assetID uint64) (*asset.Asset, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.getAsset(ctx, assetID)
}

// ExpirationOf returns the expiration of an asset.
func (l *Ledger) ExpirationOf(ctx context.Context, assetID uint64) (time.Time, error) {
	a, err := l.Asset(ctx, assetID)
	if err != nil {
		return time.Time{}, err
	}
	return a.Expiration, nil
}

// IsExpired reports whether an asset's expiration has passed.
func (l *Ledger) IsExpired(ctx context.Context, assetID uint64) (bool, error) {
	a, err := l.Asset(ctx, assetID)
	if err != nil {
		return false, err
	}
	return a.IsExpired(l.now()), nil
}

// getAsset maps a missing record to ErrUnknownAsset. Callers hold mu.
func (l *Ledger) getAsset(ctx context.Context, assetID uint64) (*asset.Asset, error) {
	a, err := l.store.GetAsset(ctx, assetID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUnknownAsset
		}
		return nil, err
	}
	return a, nil
}
