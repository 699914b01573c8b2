package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// PoolStore is an in-memory implementation of storage.PoolStore.
// Token symbol/name matching is delegated to the token catalog it was created with.
type PoolStore struct {
	mu        sync.RWMutex
	byAddress map[string]*domain.PoolInfo
	tokens    *TokenStore
}

// NewPoolStore creates a new in-memory pool catalog joined against tokens.
func NewPoolStore(tokens *TokenStore) *PoolStore {
	return &PoolStore{
		byAddress: make(map[string]*domain.PoolInfo),
		tokens:    tokens,
	}
}

// Upsert inserts or replaces a pool by address.
func (s *PoolStore) Upsert(_ context.Context, p *domain.PoolInfo) error {
	if p == nil || p.Address == "" || p.Token0 == "" || p.Token1 == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	poolCopy := *p
	s.byAddress[p.Address] = &poolCopy
	return nil
}

// GetByAddress retrieves a pool. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(_ context.Context, address string) (*domain.PoolInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.byAddress[address]
	if !exists {
		return nil, storage.ErrNotFound
	}

	poolCopy := *p
	return &poolCopy, nil
}

// GetByAddresses retrieves pools in the order of addresses; unknown addresses are skipped.
func (s *PoolStore) GetByAddresses(_ context.Context, addresses []string) ([]*domain.PoolInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.PoolInfo, 0, len(addresses))
	for _, addr := range addresses {
		if p, exists := s.byAddress[addr]; exists {
			poolCopy := *p
			result = append(result, &poolCopy)
		}
	}
	return result, nil
}

// Search returns pools matching query on their own address or either token, ordered by address.
func (s *PoolStore) Search(_ context.Context, query string, limit int) ([]*domain.PoolInfo, error) {
	q := strings.ToLower(query)

	s.mu.RLock()
	pools := make([]*domain.PoolInfo, 0, len(s.byAddress))
	for _, p := range s.byAddress {
		pools = append(pools, p)
	}
	s.mu.RUnlock()

	var result []*domain.PoolInfo
	for _, p := range pools {
		if strings.Contains(strings.ToLower(p.Address), q) ||
			s.tokenMatches(p.Token0, q) || s.tokenMatches(p.Token1, q) {
			poolCopy := *p
			result = append(result, &poolCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Address < result[j].Address
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *PoolStore) tokenMatches(address, q string) bool {
	if strings.Contains(strings.ToLower(address), q) {
		return true
	}
	if s.tokens == nil {
		return false
	}

	s.tokens.mu.RLock()
	defer s.tokens.mu.RUnlock()

	t, exists := s.tokens.byAddress[address]
	return exists && tokenContains(t, q)
}

var _ storage.PoolStore = (*PoolStore)(nil)
