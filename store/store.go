package store

import (
	"context"
	"time"

	"github.com/xraph/subledger/asset"
	"github.com/xraph/subledger/pricing"
	"github.com/xraph/subledger/receipt"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// Well-known setting keys.
const (
	SettingBaseURI       = "base_uri"
	SettingAdministrator = "administrator"
)

// Store is the unified storage interface for all subledger records.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Token registry methods
	SetTokenAllowed(ctx context.Context, r *token.Registration) error
	GetTokenRegistration(ctx context.Context, tok types.Address) (*token.Registration, error)
	ListTokenRegistrations(ctx context.Context) ([]*token.Registration, error)

	// Pricing methods
	PutPrice(ctx context.Context, p *pricing.Price) error
	GetPrice(ctx context.Context, tok types.Token, ben types.Beneficiary) (*pricing.Price, error)
	PutFee(ctx context.Context, f *pricing.Fee) error
	GetFee(ctx context.Context, tok types.Token) (*pricing.Fee, error)

	// Asset methods
	LastAssetID(ctx context.Context) (uint64, error)
	CreateAsset(ctx context.Context, a *asset.Asset) error
	GetAsset(ctx context.Context, assetID uint64) (*asset.Asset, error)
	ListAssetsByOwner(ctx context.Context, owner types.Address) ([]*asset.Asset, error)
	UpdateAssetExpiration(ctx context.Context, assetID uint64, expiration time.Time) error
	DeleteAsset(ctx context.Context, assetID uint64) error

	// Receipt methods
	CreateReceipt(ctx context.Context, r *receipt.Receipt) error
	ListReceipts(ctx context.Context, assetID uint64, opts receipt.ListOpts) ([]*receipt.Receipt, error)

	// Setting methods
	GetSetting(ctx context.Context, key string) (string, error)
	PutSetting(ctx context.Context, key, value string) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
