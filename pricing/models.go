// Package pricing holds per-token price and fee entries and the quote
// breakdown computed from them.
package pricing

import (
	"github.com/xraph/subledger/types"
)

// Price is a PriceEntry: the unit price of one beneficiary key on one
// payment token. An entry exists only once it has been explicitly set, and a
// stored zero is distinct from an absent entry.
type Price struct {
	types.Entity
	Token       types.Token       `json:"token"`
	Beneficiary types.Beneficiary `json:"beneficiary"`
	Amount      types.Amount      `json:"amount"`
}

// Fee is the per-unit protocol fee of a payment token.
type Fee struct {
	types.Entity
	Token  types.Token  `json:"token"`
	Amount types.Amount `json:"amount"`
}

// Quote is the breakdown of a purchase total.
type Quote struct {
	Token       types.Token       `json:"token"`
	Beneficiary types.Beneficiary `json:"beneficiary"`
	Units       uint64            `json:"units"`
	UnitPrice   types.Amount      `json:"unit_price"`
	UnitFee     types.Amount      `json:"unit_fee"`
	FeeTotal    types.Amount      `json:"fee_total"`
	PriceTotal  types.Amount      `json:"price_total"`
	Total       types.Amount      `json:"total"`
}

// Compute fills the totals of a quote from its unit values:
// total = fee*units + price*units, every step checked.
func Compute(tok types.Token, ben types.Beneficiary, unitFee, unitPrice types.Amount, units uint64) (*Quote, error) {
	feeTotal, err := unitFee.MulUnits(units)
	if err != nil {
		return nil, err
	}
	priceTotal, err := unitPrice.MulUnits(units)
	if err != nil {
		return nil, err
	}
	total, err := types.CheckedAdd(feeTotal, priceTotal)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Token:       tok,
		Beneficiary: ben,
		Units:       units,
		UnitPrice:   unitPrice,
		UnitFee:     unitFee,
		FeeTotal:    feeTotal,
		PriceTotal:  priceTotal,
		Total:       total,
	}, nil
}
