// Package receipt records the payment breakdown of every successful purchase.
package receipt

import (
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

// Kind is the purchase path that produced a receipt.
type Kind string

const (
	KindMint   Kind = "mint"
	KindExtend Kind = "extend"
)

// Receipt is written after a purchase has settled.
type Receipt struct {
	types.Entity
	ID           id.ReceiptID      `json:"id"`
	Kind         Kind              `json:"kind"`
	AssetID      uint64            `json:"asset_id"`
	Payer        types.Address     `json:"payer"`
	Beneficiary  types.Address     `json:"beneficiary"`
	Token        types.Token       `json:"token"`
	Units        uint64            `json:"units"`
	Fee          types.Amount      `json:"fee"`
	Price        types.Amount      `json:"price"`
	Total        types.Amount      `json:"total"`
	Refund       types.Amount      `json:"refund"`
	SettlementID id.SettlementID   `json:"settlement_id"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
