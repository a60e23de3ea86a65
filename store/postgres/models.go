package postgres

import (
	"fmt"
	"math"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/subledger/asset"
	"github.com/xraph/subledger/id"
	"github.com/xraph/subledger/pricing"
	"github.com/xraph/subledger/receipt"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// ==================== Token models ====================

type tokenModel struct {
	grove.BaseModel `grove:"table:subledger_tokens"`

	Token     string    `grove:"token,pk"`
	Allowed   bool      `grove:"allowed"`
	CreatedAt time.Time `grove:"created_at"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func toTokenModel(r *token.Registration) *tokenModel {
	return &tokenModel{
		Token:     r.Token.Hex(),
		Allowed:   r.Allowed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromTokenModel(m *tokenModel) (*token.Registration, error) {
	addr, err := types.ParseAddress(m.Token)
	if err != nil {
		return nil, err
	}
	return &token.Registration{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Token:   addr,
		Allowed: m.Allowed,
	}, nil
}

// ==================== Pricing models ====================

type priceModel struct {
	grove.BaseModel `grove:"table:subledger_prices"`

	Token       string       `grove:"token,pk"`
	Beneficiary string       `grove:"beneficiary,pk"`
	Amount      types.Amount `grove:"amount,type:numeric(78,0)"`
	CreatedAt   time.Time    `grove:"created_at"`
	UpdatedAt   time.Time    `grove:"updated_at"`
}

func toPriceModel(p *pricing.Price) *priceModel {
	return &priceModel{
		Token:       p.Token.Key(),
		Beneficiary: p.Beneficiary.Key(),
		Amount:      p.Amount,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func fromPriceModel(m *priceModel) (*pricing.Price, error) {
	tok, err := parseToken(m.Token)
	if err != nil {
		return nil, err
	}
	ben, err := types.ParseAddress(m.Beneficiary)
	if err != nil {
		return nil, err
	}
	return &pricing.Price{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Token:       tok,
		Beneficiary: types.BeneficiaryFromAddress(ben),
		Amount:      m.Amount,
	}, nil
}

type feeModel struct {
	grove.BaseModel `grove:"table:subledger_fees"`

	Token     string       `grove:"token,pk"`
	Amount    types.Amount `grove:"amount,type:numeric(78,0)"`
	CreatedAt time.Time    `grove:"created_at"`
	UpdatedAt time.Time    `grove:"updated_at"`
}

func toFeeModel(f *pricing.Fee) *feeModel {
	return &feeModel{
		Token:     f.Token.Key(),
		Amount:    f.Amount,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

func fromFeeModel(m *feeModel) (*pricing.Fee, error) {
	tok, err := parseToken(m.Token)
	if err != nil {
		return nil, err
	}
	return &pricing.Fee{
		Entity: types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Token:  tok,
		Amount: m.Amount,
	}, nil
}

// ==================== Asset models ====================

type assetModel struct {
	grove.BaseModel `grove:"table:subledger_assets"`

	ID          int64     `grove:"id,pk"`
	Owner       string    `grove:"owner"`
	Beneficiary string    `grove:"beneficiary"`
	Expiration  time.Time `grove:"expiration"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toAssetModel(a *asset.Asset) (*assetModel, error) {
	if a.ID > math.MaxInt64 {
		return nil, fmt.Errorf("asset id %d exceeds column range", a.ID)
	}
	return &assetModel{
		ID:          int64(a.ID),
		Owner:       a.Owner.Hex(),
		Beneficiary: a.Beneficiary.Hex(),
		Expiration:  a.Expiration.UTC(),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}, nil
}

func fromAssetModel(m *assetModel) (*asset.Asset, error) {
	owner, err := types.ParseAddress(m.Owner)
	if err != nil {
		return nil, err
	}
	ben, err := types.ParseAddress(m.Beneficiary)
	if err != nil {
		return nil, err
	}
	return &asset.Asset{
		Entity:      types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:          uint64(m.ID), //nolint:gosec // ids are inserted from uint64 values below MaxInt64
		Owner:       owner,
		Beneficiary: ben,
		Expiration:  m.Expiration.UTC(),
	}, nil
}

// ==================== Receipt models ====================

type receiptModel struct {
	grove.BaseModel `grove:"table:subledger_receipts"`

	ID           string            `grove:"id,pk"`
	Kind         string            `grove:"kind"`
	AssetID      int64             `grove:"asset_id"`
	Payer        string            `grove:"payer"`
	Beneficiary  string            `grove:"beneficiary"`
	Token        string            `grove:"token"`
	Units        int64             `grove:"units"`
	Fee          types.Amount      `grove:"fee,type:numeric(78,0)"`
	Price        types.Amount      `grove:"price,type:numeric(78,0)"`
	Total        types.Amount      `grove:"total,type:numeric(78,0)"`
	Refund       types.Amount      `grove:"refund,type:numeric(78,0)"`
	SettlementID string            `grove:"settlement_id"`
	Metadata     map[string]string `grove:"metadata,type:jsonb"`
	CreatedAt    time.Time         `grove:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"`
}

func toReceiptModel(r *receipt.Receipt) *receiptModel {
	return &receiptModel{
		ID:           r.ID.String(),
		Kind:         string(r.Kind),
		AssetID:      int64(r.AssetID), //nolint:gosec // asset ids are range-checked on insert
		Payer:        r.Payer.Hex(),
		Beneficiary:  r.Beneficiary.Hex(),
		Token:        r.Token.Key(),
		Units:        int64(r.Units), //nolint:gosec // unit counts that settled fit the expiration range
		Fee:          r.Fee,
		Price:        r.Price,
		Total:        r.Total,
		Refund:       r.Refund,
		SettlementID: r.SettlementID.String(),
		Metadata:     r.Metadata,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromReceiptModel(m *receiptModel) (*receipt.Receipt, error) {
	receiptID, err := id.ParseReceiptID(m.ID)
	if err != nil {
		return nil, err
	}
	var settlementID id.SettlementID
	if m.SettlementID != "" {
		if settlementID, err = id.ParseSettlementID(m.SettlementID); err != nil {
			return nil, err
		}
	}
	payer, err := types.ParseAddress(m.Payer)
	if err != nil {
		return nil, err
	}
	ben, err := types.ParseAddress(m.Beneficiary)
	if err != nil {
		return nil, err
	}
	tok, err := parseToken(m.Token)
	if err != nil {
		return nil, err
	}
	return &receipt.Receipt{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           receiptID,
		Kind:         receipt.Kind(m.Kind),
		AssetID:      uint64(m.AssetID), //nolint:gosec // see toReceiptModel
		Payer:        payer,
		Beneficiary:  ben,
		Token:        tok,
		Units:        uint64(m.Units), //nolint:gosec // see toReceiptModel
		Fee:          m.Fee,
		Price:        m.Price,
		Total:        m.Total,
		Refund:       m.Refund,
		SettlementID: settlementID,
		Metadata:     m.Metadata,
	}, nil
}

// ==================== Setting models ====================

type settingModel struct {
	grove.BaseModel `grove:"table:subledger_settings"`

	Key       string    `grove:"key,pk"`
	Value     string    `grove:"value"`
	UpdatedAt time.Time `grove:"updated_at"`
}

func parseToken(s string) (types.Token, error) {
	addr, err := types.ParseAddress(s)
	if err != nil {
		return types.Token{}, err
	}
	return types.TokenFromAddress(addr), nil
}
