package subledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/xraph/subledger/event"
	"github.com/xraph/subledger/receipt"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/types"
)

// SetBaseURI replaces the metadata base URI.
func (l *Ledger) SetBaseURI(ctx context.Context, caller types.Address, uri string) error {
	l.mu.Lock()
	if err := l.requireAdministrator(caller); err != nil {
		l.mu.Unlock()
		return err
	}
	err := l.store.PutSetting(ctx, store.SettingBaseURI, uri)
	l.mu.Unlock()
	if err != nil {
		return err
	}

	l.logger.Info("base uri changed", "uri", uri)
	l.plugins.EmitBaseURIChanged(ctx, &event.BaseURIChanged{URI: uri})
	return nil
}

// BaseURI returns the metadata base URI, or "" when none is set.
func (l *Ledger) BaseURI(ctx context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.baseURI(ctx)
}

// TokenURI returns the metadata URI of an asset: the base URI followed by the
// decimal asset id.
func (l *Ledger) TokenURI(ctx context.Context, assetID uint64) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.getAsset(ctx, assetID); err != nil {
		return "", err
	}
	base, err := l.baseURI(ctx)
	if err != nil {
		return "", err
	}
	return base + strconv.FormatUint(assetID, 10), nil
}

// Receipts lists the purchase receipts of an asset, oldest first.
func (l *Ledger) Receipts(ctx context.Context, assetID uint64, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if _, err := l.getAsset(ctx, assetID); err != nil {
		return nil, err
	}
	return l.store.ListReceipts(ctx, assetID, opts)
}

func (l *Ledger) baseURI(ctx context.Context) (string, error) {
	uri, err := l.store.GetSetting(ctx, store.SettingBaseURI)
	if errors.Is(err, ErrSettingNotFound) {
		return "", nil
	}
	return uri, err
}
