package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/subledger"
	"github.com/xraph/subledger/asset"
	"github.com/xraph/subledger/pricing"
	"github.com/xraph/subledger/receipt"
	"github.com/xraph/subledger/store"
	"github.com/xraph/subledger/token"
	"github.com/xraph/subledger/types"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type priceKey struct {
	token       types.Token
	beneficiary types.Beneficiary
}

type Store struct {
	mu     sync.RWMutex
	closed bool

	// Token registry
	tokens     map[types.Address]*token.Registration
	tokenOrder []types.Address

	// Pricing
	prices map[priceKey]*pricing.Price
	fees   map[types.Token]*pricing.Fee

	// Assets
	assets map[uint64]*asset.Asset
	owners map[types.Address][]uint64
	lastID uint64

	// Receipts keyed by asset id
	receipts map[uint64][]*receipt.Receipt

	settings map[string]string
}

func New() *Store {
	return &Store{
		tokens:   make(map[types.Address]*token.Registration),
		prices:   make(map[priceKey]*pricing.Price),
		fees:     make(map[types.Token]*pricing.Fee),
		assets:   make(map[uint64]*asset.Asset),
		owners:   make(map[types.Address][]uint64),
		receipts: make(map[uint64][]*receipt.Receipt),
		settings: make(map[string]string),
	}
}

// ──────────────────────────────────────────────────
// Token registry
// ──────────────────────────────────────────────────

func (s *Store) SetTokenAllowed(_ context.Context, r *token.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.tokens[r.Token]; ok {
		r.CreatedAt = existing.CreatedAt
	} else {
		s.tokenOrder = append(s.tokenOrder, r.Token)
	}
	cp := *r
	s.tokens[r.Token] = &cp
	return nil
}

func (s *Store) GetTokenRegistration(_ context.Context, tok types.Address) (*token.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.tokens[tok]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, subledger.ErrTokenNotRegistered
}

func (s *Store) ListTokenRegistrations(_ context.Context) ([]*token.Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*token.Registration, 0, len(s.tokenOrder))
	for _, addr := range s.tokenOrder {
		cp := *s.tokens[addr]
		result = append(result, &cp)
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Pricing
// ──────────────────────────────────────────────────

func (s *Store) PutPrice(_ context.Context, p *pricing.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := priceKey{p.Token, p.Beneficiary}
	if existing, ok := s.prices[k]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	cp := *p
	s.prices[k] = &cp
	return nil
}

func (s *Store) GetPrice(_ context.Context, tok types.Token, ben types.Beneficiary) (*pricing.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.prices[priceKey{tok, ben}]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, subledger.ErrPriceNotSet
}

func (s *Store) PutFee(_ context.Context, f *pricing.Fee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.fees[f.Token]; ok {
		f.CreatedAt = existing.CreatedAt
	}
	cp := *f
	s.fees[f.Token] = &cp
	return nil
}

func (s *Store) GetFee(_ context.Context, tok types.Token) (*pricing.Fee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if f, ok := s.fees[tok]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, subledger.ErrFeeNotSet
}

// ──────────────────────────────────────────────────
// Assets
// ──────────────────────────────────────────────────

func (s *Store) LastAssetID(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastID, nil
}

func (s *Store) CreateAsset(_ context.Context, a *asset.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assets[a.ID]; exists {
		return subledger.ErrAlreadyExists
	}
	cp := *a
	s.assets[a.ID] = &cp
	s.owners[a.Owner] = append(s.owners[a.Owner], a.ID)
	if a.ID > s.lastID {
		s.lastID = a.ID
	}
	return nil
}

func (s *Store) GetAsset(_ context.Context, assetID uint64) (*asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.assets[assetID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, subledger.ErrAssetNotFound
}

func (s *Store) ListAssetsByOwner(_ context.Context, owner types.Address) ([]*asset.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.owners[owner]
	result := make([]*asset.Asset, 0, len(ids))
	for _, assetID := range ids {
		cp := *s.assets[assetID]
		result = append(result, &cp)
	}
	return result, nil
}

func (s *Store) UpdateAssetExpiration(_ context.Context, assetID uint64, expiration time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[assetID]
	if !ok {
		return subledger.ErrAssetNotFound
	}
	a.Expiration = expiration
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteAsset removes an asset and its owner index entry. Removing the most
// recently allocated asset rewinds LastAssetID so that ids stay contiguous.
func (s *Store) DeleteAsset(_ context.Context, assetID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.assets[assetID]
	if !ok {
		return subledger.ErrAssetNotFound
	}
	delete(s.assets, assetID)

	ids := s.owners[a.Owner]
	for i, v := range ids {
		if v == assetID {
			s.owners[a.Owner] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	if len(s.owners[a.Owner]) == 0 {
		delete(s.owners, a.Owner)
	}

	if assetID == s.lastID {
		s.lastID = 0
		for existing := range s.assets {
			if existing > s.lastID {
				s.lastID = existing
			}
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Receipts
// ──────────────────────────────────────────────────

func (s *Store) CreateReceipt(_ context.Context, r *receipt.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.receipts[r.AssetID] {
		if existing.ID.String() == r.ID.String() {
			return subledger.ErrAlreadyExists
		}
	}
	cp := *r
	s.receipts[r.AssetID] = append(s.receipts[r.AssetID], &cp)
	return nil
}

func (s *Store) ListReceipts(_ context.Context, assetID uint64, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*receipt.Receipt, 0, len(s.receipts[assetID]))
	for _, r := range s.receipts[assetID] {
		cp := *r
		all = append(all, &cp)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	// Apply limit/offset
	start := opts.Offset
	if start > len(all) {
		start = len(all)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(all) {
		end = len(all)
	}

	return all[start:end], nil
}

// ──────────────────────────────────────────────────
// Settings
// ──────────────────────────────────────────────────

func (s *Store) GetSetting(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.settings[key]; ok {
		return v, nil
	}
	return "", subledger.ErrSettingNotFound
}

func (s *Store) PutSetting(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings[key] = value
	return nil
}

// ──────────────────────────────────────────────────
// Core
// ──────────────────────────────────────────────────

func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return subledger.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
