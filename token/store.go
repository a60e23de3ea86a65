package token

import (
	"context"

	"github.com/xraph/subledger/types"
)

type Store interface {
	SetAllowed(ctx context.Context, r *Registration) error
	Get(ctx context.Context, tok types.Address) (*Registration, error)
	List(ctx context.Context) ([]*Registration, error)
}
