package asset

import (
	"context"
	"time"

	"github.com/xraph/subledger/types"
)

type Store interface {
	LastID(ctx context.Context) (uint64, error)
	Create(ctx context.Context, a *Asset) error
	Get(ctx context.Context, assetID uint64) (*Asset, error)
	ListByOwner(ctx context.Context, owner types.Address) ([]*Asset, error)
	UpdateExpiration(ctx context.Context, assetID uint64, expiration time.Time) error
	Delete(ctx context.Context, assetID uint64) error
}
