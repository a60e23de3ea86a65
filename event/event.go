// Package event defines the notification payloads emitted by the ledger.
// Every payload is delivered to plugins after the state change it describes
// has been committed.
package event

import (
	"time"

	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/types"
)

// PriceChanged is emitted when a PriceEntry is written, by the administrator
// or by a beneficiary setting its own direction price.
type PriceChanged struct {
	Token       types.Token       `json:"token"`
	Beneficiary types.Beneficiary `json:"beneficiary"`
	Price       types.Amount      `json:"price"`
	ChangedBy   types.Address     `json:"changed_by"`
	Direction   bool              `json:"direction"`
}

// FeeChanged is emitted when a token's per-unit fee is written.
type FeeChanged struct {
	Token types.Token  `json:"token"`
	Fee   types.Amount `json:"fee"`
}

// AllowedTokenChanged is emitted when a token is enabled or disabled.
type AllowedTokenChanged struct {
	Token   types.Address `json:"token"`
	Allowed bool          `json:"allowed"`
}

// AssetActivated is emitted on every successful mint and extend.
type AssetActivated struct {
	AssetID uint64       `json:"asset_id"`
	Units   uint64       `json:"units"`
	Total   types.Amount `json:"total"`
}

// BaseURIChanged is emitted when the metadata base URI is replaced.
type BaseURIChanged struct {
	URI string `json:"uri"`
}

// AssetMinted is emitted after a new asset has been allocated and paid for.
type AssetMinted struct {
	AssetID     uint64        `json:"asset_id"`
	Owner       types.Address `json:"owner"`
	Beneficiary types.Address `json:"beneficiary"`
	Token       types.Token   `json:"token"`
	Units       uint64        `json:"units"`
	Total       types.Amount  `json:"total"`
	Expiration  time.Time     `json:"expiration"`
	ReceiptID   id.ReceiptID  `json:"receipt_id"`
}

// AssetExtended is emitted after an asset's expiration has been advanced.
type AssetExtended struct {
	AssetID        uint64        `json:"asset_id"`
	Payer          types.Address `json:"payer"`
	Token          types.Token   `json:"token"`
	Units          uint64        `json:"units"`
	Total          types.Amount  `json:"total"`
	PrevExpiration time.Time     `json:"prev_expiration"`
	Expiration     time.Time     `json:"expiration"`
	ReceiptID      id.ReceiptID  `json:"receipt_id"`
}

// AdministrationTransferred is emitted when the administrator changes.
type AdministrationTransferred struct {
	Previous types.Address `json:"previous"`
	Next     types.Address `json:"next"`
}

// PurchaseFailed is emitted when a mint or extend is rejected.
type PurchaseFailed struct {
	Kind    string        `json:"kind"`
	Payer   types.Address `json:"payer"`
	AssetID uint64        `json:"asset_id,omitempty"`
	Token   types.Token   `json:"token"`
	Units   uint64        `json:"units"`
	Err     error         `json:"-"`
}
