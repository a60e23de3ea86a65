package pricing

import (
	"errors"
	"testing"

	"github.com/xraph/subledger/types"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name      string
		fee       types.Amount
		price     types.Amount
		units     uint64
		wantFee   types.Amount
		wantPrice types.Amount
		wantTotal types.Amount
		wantErr   error
	}{
		{"Fee only", types.NewAmount(10), types.ZeroAmount(), 3, types.NewAmount(30), types.ZeroAmount(), types.NewAmount(30), nil},
		{"Fee and price", types.NewAmount(10), types.NewAmount(100), 2, types.NewAmount(20), types.NewAmount(200), types.NewAmount(220), nil},
		{"Free", types.ZeroAmount(), types.ZeroAmount(), 5, types.ZeroAmount(), types.ZeroAmount(), types.ZeroAmount(), nil},
		{"Max fee one unit", types.MaxAmount(), types.ZeroAmount(), 1, types.MaxAmount(), types.ZeroAmount(), types.MaxAmount(), nil},
		{"Max fee two units", types.MaxAmount(), types.ZeroAmount(), 2, types.Amount{}, types.Amount{}, types.Amount{}, types.ErrOverflow},
		{"Sum overflow", types.MaxAmount(), types.NewAmount(1), 1, types.Amount{}, types.Amount{}, types.Amount{}, types.ErrOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Compute(types.Native(), types.DefaultBeneficiary(), tt.fee, tt.price, tt.units)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error: got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !q.FeeTotal.Equal(tt.wantFee) {
				t.Errorf("FeeTotal: got %s, want %s", q.FeeTotal, tt.wantFee)
			}
			if !q.PriceTotal.Equal(tt.wantPrice) {
				t.Errorf("PriceTotal: got %s, want %s", q.PriceTotal, tt.wantPrice)
			}
			if !q.Total.Equal(tt.wantTotal) {
				t.Errorf("Total: got %s, want %s", q.Total, tt.wantTotal)
			}
			if q.Units != tt.units {
				t.Errorf("Units: got %d, want %d", q.Units, tt.units)
			}
		})
	}
}
