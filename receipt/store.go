package receipt

import (
	"context"
)

type Store interface {
	Create(ctx context.Context, r *Receipt) error
	List(ctx context.Context, assetID uint64, opts ListOpts) ([]*Receipt, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
