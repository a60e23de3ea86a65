package pricing

import (
	"context"

	"github.com/xraph/subledger/types"
)

type Store interface {
	PutPrice(ctx context.Context, p *Price) error
	GetPrice(ctx context.Context, tok types.Token, ben types.Beneficiary) (*Price, error)
	PutFee(ctx context.Context, f *Fee) error
	GetFee(ctx context.Context, tok types.Token) (*Fee, error)
}
