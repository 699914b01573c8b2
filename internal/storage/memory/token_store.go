package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu        sync.RWMutex
	byAddress map[string]*domain.TokenInfo // keyed by normalized address
}

// NewTokenStore creates a new in-memory token catalog.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		byAddress: make(map[string]*domain.TokenInfo),
	}
}

// Upsert inserts or replaces a token by address.
func (s *TokenStore) Upsert(_ context.Context, t *domain.TokenInfo) error {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokenCopy := *t
	s.byAddress[t.Address] = &tokenCopy
	return nil
}

// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(_ context.Context, address string) (*domain.TokenInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// GetByAddresses retrieves tokens in the order of addresses; unknown addresses are skipped.
func (s *TokenStore) GetByAddresses(_ context.Context, addresses []string) ([]*domain.TokenInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TokenInfo, 0, len(addresses))
	for _, addr := range addresses {
		if t, exists := s.byAddress[addr]; exists {
			tokenCopy := *t
			result = append(result, &tokenCopy)
		}
	}
	return result, nil
}

// Search returns tokens whose address, symbol or name contains query, ordered by address.
func (s *TokenStore) Search(_ context.Context, query string, limit int) ([]*domain.TokenInfo, error) {
	q := strings.ToLower(query)

	s.mu.RLock()
	var result []*domain.TokenInfo
	for _, t := range s.byAddress {
		if tokenContains(t, q) {
			tokenCopy := *t
			result = append(result, &tokenCopy)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// tokenContains reports whether lowered query is found in the token fields.
func tokenContains(t *domain.TokenInfo, q string) bool {
	return strings.Contains(strings.ToLower(t.Address), q) ||
		strings.Contains(strings.ToLower(t.Symbol), q) ||
		strings.Contains(strings.ToLower(t.Name), q)
}

var _ storage.TokenStore = (*TokenStore)(nil)
