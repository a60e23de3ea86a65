package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/asset"
	"github.com/xraph/subledger/pricing"
	"github.com/xraph/subledger/receipt"
	subledgerstore "github.com/xraph/subledger/store"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// compile-time interface check
var _ subledgerstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("subledger/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("subledger/postgres: migration failed: %w", err)
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
	_, err := s.pg.NewInsert(m).
		OnConflict("(token) DO UPDATE").
		Set("allowed = EXCLUDED.allowed").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return wrap("set token", err)
}

func (s *Store) GetTokenRegistration(ctx context.Context, tok types.Address) (*token.Registration, error) {
	m := new(tokenModel)
	err := s.pg.NewSelect(m).
		Where("token = $1", tok.Hex()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subledger.ErrTokenNotRegistered
		}
		return nil, wrap("get token", err)
	}
	return fromTokenModel(m)
}

func (s *Store) ListTokenRegistrations(ctx context.Context) ([]*token.Registration, error) {
	var models []tokenModel
	if err := s.pg.NewSelect(&models).OrderExpr("created_at ASC").Scan(ctx); err != nil {
		return nil, wrap("list tokens", err)
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
	_, err := s.pg.NewInsert(m).
		OnConflict("(token, beneficiary) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return wrap("put price", err)
}

func (s *Store) GetPrice(ctx context.Context, tok types.Token, ben types.Beneficiary) (*pricing.Price, error) {
	m := new(priceModel)
	err := s.pg.NewSelect(m).
		Where("token = $1", tok.Key()).
		Where("beneficiary = $2", ben.Key()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subledger.ErrPriceNotSet
		}
		return nil, wrap("get price", err)
	}
	return fromPriceModel(m)
}

func (s *Store) PutFee(ctx context.Context, f *pricing.Fee) error {
	m := toFeeModel(f)
	_, err := s.pg.NewInsert(m).
		OnConflict("(token) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return wrap("put fee", err)
}

func (s *Store) GetFee(ctx context.Context, tok types.Token) (*pricing.Fee, error) {
	m := new(feeModel)
	err := s.pg.NewSelect(m).
		Where("token = $1", tok.Key()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subledger.ErrFeeNotSet
		}
		return nil, wrap("get fee", err)
	}
	return fromFeeModel(m)
}

// ==================== Asset Store ====================

func (s *Store) LastAssetID(ctx context.Context) (uint64, error) {
	var last int64
	err := s.pg.NewRaw(`SELECT COALESCE(MAX(id), 0) FROM subledger_assets`).Scan(ctx, &last)
	if err != nil {
		return 0, wrap("last asset id", err)
	}
	return uint64(last), nil //nolint:gosec // ids are never negative
}

func (s *Store) CreateAsset(ctx context.Context, a *asset.Asset) error {
	m, err := toAssetModel(a)
	if err != nil {
		return wrap("create asset", err)
	}
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return wrap("create asset", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return wrap("create asset", err)
	}
	if rows == 0 {
		return subledger.ErrAlreadyExists
	}
	return nil
}

func (s *Store) GetAsset(ctx context.Context, assetID uint64) (*asset.Asset, error) {
	m := new(assetModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(assetID)). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, subledger.ErrAssetNotFound
		}
		return nil, wrap("get asset", err)
	}
	return fromAssetModel(m)
}

func (s *Store) ListAssetsByOwner(ctx context.Context, owner types.Address) ([]*asset.Asset, error) {
	var models []assetModel
	err := s.pg.NewSelect(&models).
		Where("owner = $1", owner.Hex()).
		OrderExpr("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, wrap("list assets", err)
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
	res, err := s.pg.NewUpdate((*assetModel)(nil)).
		Set("expiration = $1", expiration.UTC()).
		Set("updated_at = $2", now()).
		Where("id = $3", int64(assetID)). //nolint:gosec // out-of-range ids simply miss
		Exec(ctx)
	if err != nil {
		return wrap("update asset", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return wrap("update asset", err)
	}
	if rows == 0 {
		return subledger.ErrAssetNotFound
	}
	return nil
}

func (s *Store) DeleteAsset(ctx context.Context, assetID uint64) error {
	res, err := s.pg.NewDelete((*assetModel)(nil)).
		Where("id = $1", int64(assetID)). //nolint:gosec // out-of-range ids simply miss
		Exec(ctx)
	if err != nil {
		return wrap("delete asset", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return wrap("delete asset", err)
	}
	if rows == 0 {
		return subledger.ErrAssetNotFound
	}
	return nil
}

// ==================== Receipt Store ====================

func (s *Store) CreateReceipt(ctx context.Context, r *receipt.Receipt) error {
	m := toReceiptModel(r)
	res, err := s.pg.NewInsert(m).
		OnConflict("(id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return wrap("create receipt", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return wrap("create receipt", err)
	}
	if rows == 0 {
		return subledger.ErrAlreadyExists
	}
	return nil
}

func (s *Store) ListReceipts(ctx context.Context, assetID uint64, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	var models []receiptModel
	q := s.pg.NewSelect(&models).
		Where("asset_id = $1", int64(assetID)) //nolint:gosec // out-of-range ids simply miss
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, wrap("list receipts", err)
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
	m := new(settingModel)
	err := s.pg.NewSelect(m).
		Where("key = $1", key).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return "", subledger.ErrSettingNotFound
		}
		return "", wrap("get setting", err)
	}
	return m.Value, nil
}

func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	m := &settingModel{Key: key, Value: value, UpdatedAt: now()}
	_, err := s.pg.NewInsert(m).
		OnConflict("(key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return wrap("put setting", err)
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("subledger/postgres: %s: %w", op, err)
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
