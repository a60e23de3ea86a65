package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/asset"
	"github.com/xraph/subledger/pricing"
	"github.com/xraph/subledger/receipt"
	subledgerstore "github.com/xraph/subledger/store"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// Collection name constants.
const (
	colTokens   = "subledger_tokens"
	colPrices   = "subledger_prices"
	colFees     = "subledger_fees"
	colAssets   = "subledger_assets"
	colReceipts = "subledger_receipts"
	colSettings = "subledger_settings"
)

// compile-time interface check
var _ subledgerstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all subledger collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("subledger/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Token Store ====================

func (s *Store) SetTokenAllowed(ctx context.Context, r *token.Registration) error {
	m := toTokenModel(r)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Token}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"allowed":    m.Allowed,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: set token: %w", err)
	}
	return nil
}

func (s *Store) GetTokenRegistration(ctx context.Context, tok types.Address) (*token.Registration, error) {
	var m tokenModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tok.Hex()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrTokenNotRegistered
		}
		return nil, fmt.Errorf("subledger/mongo: get token: %w", err)
	}
	return fromTokenModel(&m)
}

func (s *Store) ListTokenRegistrations(ctx context.Context) ([]*token.Registration, error) {
	var models []tokenModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("subledger/mongo: list tokens: %w", err)
	}

	result := make([]*token.Registration, len(models))
	for i := range models {
		r, err := fromTokenModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Pricing Store ====================

func (s *Store) PutPrice(ctx context.Context, p *pricing.Price) error {
	m := toPriceModel(p)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Key}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"token":       m.Token,
				"beneficiary": m.Beneficiary,
				"amount":      m.Amount,
				"updated_at":  m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: put price: %w", err)
	}
	return nil
}

func (s *Store) GetPrice(ctx context.Context, tok types.Token, ben types.Beneficiary) (*pricing.Price, error) {
	var m priceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": priceKey(tok, ben)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrPriceNotSet
		}
		return nil, fmt.Errorf("subledger/mongo: get price: %w", err)
	}
	return fromPriceModel(&m)
}

func (s *Store) PutFee(ctx context.Context, f *pricing.Fee) error {
	m := toFeeModel(f)

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.Token}).
		SetUpdate(bson.M{
			"$set": bson.M{
				"amount":     m.Amount,
				"updated_at": m.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": m.CreatedAt},
		}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: put fee: %w", err)
	}
	return nil
}

func (s *Store) GetFee(ctx context.Context, tok types.Token) (*pricing.Fee, error) {
	var m feeModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": tok.Key()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrFeeNotSet
		}
		return nil, fmt.Errorf("subledger/mongo: get fee: %w", err)
	}
	return fromFeeModel(&m)
}

// ==================== Asset Store ====================

func (s *Store) LastAssetID(ctx context.Context) (uint64, error) {
	var m assetModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("subledger/mongo: last asset id: %w", err)
	}
	return uint64(m.ID), nil //nolint:gosec // ids are never negative
}

func (s *Store) CreateAsset(ctx context.Context, a *asset.Asset) error {
	m, err := toAssetModel(a)
	if err != nil {
		return fmt.Errorf("subledger/mongo: create asset: %w", err)
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subledger.ErrAlreadyExists
		}
		return fmt.Errorf("subledger/mongo: create asset: %w", err)
	}
	return nil
}

func (s *Store) GetAsset(ctx context.Context, assetID uint64) (*asset.Asset, error) {
	var m assetModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(assetID)}). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, subledger.ErrAssetNotFound
		}
		return nil, fmt.Errorf("subledger/mongo: get asset: %w", err)
	}
	return fromAssetModel(&m)
}

func (s *Store) ListAssetsByOwner(ctx context.Context, owner types.Address) ([]*asset.Asset, error) {
	var models []assetModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"owner": owner.Hex()}).
		Sort(bson.D{{Key: "_id", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("subledger/mongo: list assets: %w", err)
	}

	result := make([]*asset.Asset, len(models))
	for i := range models {
		a, err := fromAssetModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

func (s *Store) UpdateAssetExpiration(ctx context.Context, assetID uint64, expiration time.Time) error {
	res, err := s.mdb.NewUpdate((*assetModel)(nil)).
		Filter(bson.M{"_id": int64(assetID)}). //nolint:gosec // out-of-range ids simply miss
		Set("expiration", expiration.UTC()).
		Set("updated_at", now()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: update asset: %w", err)
	}
	if res.MatchedCount() == 0 {
		return subledger.ErrAssetNotFound
	}
	return nil
}

func (s *Store) DeleteAsset(ctx context.Context, assetID uint64) error {
	res, err := s.mdb.NewDelete((*assetModel)(nil)).
		Filter(bson.M{"_id": int64(assetID)}). //nolint:gosec // out-of-range ids simply miss
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: delete asset: %w", err)
	}
	if res.DeletedCount() == 0 {
		return subledger.ErrAssetNotFound
	}
	return nil
}

// ==================== Receipt Store ====================

func (s *Store) CreateReceipt(ctx context.Context, r *receipt.Receipt) error {
	m := toReceiptModel(r)
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subledger.ErrAlreadyExists
		}
		return fmt.Errorf("subledger/mongo: create receipt: %w", err)
	}
	return nil
}

func (s *Store) ListReceipts(ctx context.Context, assetID uint64, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	var models []receiptModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{"asset_id": int64(assetID)}). //nolint:gosec // out-of-range ids simply miss
		Sort(bson.D{{Key: "created_at", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("subledger/mongo: list receipts: %w", err)
	}

	result := make([]*receipt.Receipt, len(models))
	for i := range models {
		r, err := fromReceiptModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Setting Store ====================

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var m settingModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": key}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return "", subledger.ErrSettingNotFound
		}
		return "", fmt.Errorf("subledger/mongo: get setting: %w", err)
	}
	return m.Value, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	m := &settingModel{Key: key, Value: value, UpdatedAt: now()}

	_, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": key}).
		SetUpdate(bson.M{"$set": bson.M{
			"value":      m.Value,
			"updated_at": m.UpdatedAt,
		}}).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("subledger/mongo: put setting: %w", err)
	}
	return nil
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all subledger collections.
// Primary keys live in _id; only secondary lookups need indexes.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colTokens: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
		colPrices: {
			{
				Keys:    bson.D{{Key: "token", Value: 1}, {Key: "beneficiary", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colFees: {},
		colAssets: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "_id", Value: 1}}},
			{Keys: bson.D{{Key: "expiration", Value: 1}}},
		},
		colReceipts: {
			{Keys: bson.D{{Key: "asset_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "settlement_id", Value: 1}}},
		},
		colSettings: {},
	}
}
