// Package asset models subscription assets: sequentially numbered,
// owner-attributed records whose expiration only moves forward.
package asset

import (
	"time"

	"github.com/xraph/subledger/types"
)

// Status is the derived lifecycle state of an asset.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
)

// Asset is a minted subscription asset.
type Asset struct {
	types.Entity
	ID          uint64        `json:"id"`
	Owner       types.Address `json:"owner"`
	Beneficiary types.Address `json:"beneficiary"`
	Expiration  time.Time     `json:"expiration"`
}

// IsExpired reports whether now is at or past the expiration.
func (a *Asset) IsExpired(now time.Time) bool {
	return !now.Before(a.Expiration)
}

// StatusAt returns the lifecycle state at now.
func (a *Asset) StatusAt(now time.Time) Status {
	if a.IsExpired(now) {
		return StatusExpired
	}
	return StatusActive
}
