// Package watchlist manages saved tokens and pools per account.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/observability"
	"dex-info-search/internal/storage"
)

// Lookup resolves saved addresses into full records.
type Lookup interface {
	TokensByAddress(ctx context.Context, addresses []string) ([]domain.Token, error)
	PoolsByAddress(ctx context.Context, addresses []string) ([]domain.Pool, error)
}

// Data is a resolved watchlist snapshot.
type Data struct {
	Tokens       []domain.Token
	Pools        []domain.Pool
	SavedTokens  map[string]bool
	SavedPools   map[string]bool
	PoolsLoading bool // some saved pools did not resolve
}

// Service manages watchlists.
type Service struct {
	store  storage.WatchlistStore
	lookup Lookup
	now    func() time.Time
}

// NewService creates a watchlist Service.
func NewService(store storage.WatchlistStore, lookup Lookup) *Service {
	return &Service{store: store, lookup: lookup, now: time.Now}
}

// Add saves address for account.
func (s *Service) Add(ctx context.Context, account string, kind domain.WatchlistKind, address string) error {
	entry, err := s.entry(account, kind, address)
	if err != nil {
		return err
	}
	if err := s.store.Add(ctx, entry); err != nil {
		return fmt.Errorf("add to watchlist: %w", err)
	}
	observability.RecordWatchlistMutation(string(kind), "add")
	return nil
}

// Remove deletes address from account's watchlist.
func (s *Service) Remove(ctx context.Context, account string, kind domain.WatchlistKind, address string) error {
	entry, err := s.entry(account, kind, address)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, entry.Account, entry.Kind, entry.Address); err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	observability.RecordWatchlistMutation(string(kind), "remove")
	return nil
}

// Toggle saves address if absent and removes it otherwise.
// It reports whether the address is saved afterwards.
func (s *Service) Toggle(ctx context.Context, account string, kind domain.WatchlistKind, address string) (bool, error) {
	err := s.Add(ctx, account, kind, address)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, storage.ErrDuplicateKey) {
		return false, err
	}
	if err := s.Remove(ctx, account, kind, address); err != nil {
		return false, err
	}
	return false, nil
}

// Addresses lists saved addresses of kind in saved order.
func (s *Service) Addresses(ctx context.Context, account string, kind domain.WatchlistKind) ([]string, error) {
	if account == "" {
		return nil, nil
	}
	account, err := domain.NormalizeAddress(account)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.List(ctx, account, kind)
	if err != nil {
		return nil, fmt.Errorf("list watchlist: %w", err)
	}
	addrs := make([]string, len(entries))
	for i, e := range entries {
		addrs[i] = e.Address
	}
	return addrs, nil
}

// Tokens resolves saved tokens in saved order.
func (s *Service) Tokens(ctx context.Context, account string) ([]domain.Token, error) {
	addrs, err := s.Addresses(ctx, account, domain.WatchlistToken)
	if err != nil || len(addrs) == 0 {
		return nil, err
	}
	return s.lookup.TokensByAddress(ctx, addrs)
}

// Pools resolves saved pools in saved order. loading is true while not
// every saved pool resolved.
func (s *Service) Pools(ctx context.Context, account string) (pools []domain.Pool, loading bool, err error) {
	addrs, err := s.Addresses(ctx, account, domain.WatchlistPool)
	if err != nil || len(addrs) == 0 {
		return nil, false, err
	}
	pools, err = s.lookup.PoolsByAddress(ctx, addrs)
	if err != nil {
		return nil, false, err
	}
	return pools, len(pools) != len(addrs), nil
}

// Load resolves the whole watchlist of account.
func (s *Service) Load(ctx context.Context, account string) (*Data, error) {
	tokens, err := s.Tokens(ctx, account)
	if err != nil {
		return nil, err
	}
	pools, loading, err := s.Pools(ctx, account)
	if err != nil {
		return nil, err
	}

	data := &Data{
		Tokens:       tokens,
		Pools:        pools,
		SavedTokens:  make(map[string]bool, len(tokens)),
		SavedPools:   make(map[string]bool, len(pools)),
		PoolsLoading: loading,
	}
	for _, t := range tokens {
		data.SavedTokens[t.Address] = true
	}
	for _, p := range pools {
		data.SavedPools[p.Address] = true
	}
	return data, nil
}

func (s *Service) entry(account string, kind domain.WatchlistKind, address string) (*domain.WatchlistEntry, error) {
	if account == "" || !kind.IsValid() {
		return nil, storage.ErrInvalidInput
	}
	account, err := domain.NormalizeAddress(account)
	if err != nil {
		return nil, err
	}
	normalized, err := domain.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return &domain.WatchlistEntry{
		Account: account,
		Kind:    kind,
		Address: normalized,
		AddedAt: s.now().UnixMilli(),
	}, nil
}
