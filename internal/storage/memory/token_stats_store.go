package memory

import (
	"context"
	"fmt"
	"sync"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// TokenStatsStore is an in-memory implementation of storage.TokenStatsStore.
type TokenStatsStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.TokenStats // keyed by (address, timestamp_ms)
	latest map[string]*domain.TokenStats // keyed by address
}

// NewTokenStatsStore creates a new in-memory token snapshot store.
func NewTokenStatsStore() *TokenStatsStore {
	return &TokenStatsStore{
		data:   make(map[string]*domain.TokenStats),
		latest: make(map[string]*domain.TokenStats),
	}
}

// snapshotKey generates a unique key for a snapshot.
func snapshotKey(address string, timestampMs int64) string {
	return fmt.Sprintf("%s|%d", address, timestampMs)
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *TokenStatsStore) InsertBulk(_ context.Context, stats []*domain.TokenStats) error {
	if len(stats) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(stats))

	// First pass: check for duplicates (existing + intra-batch)
	for _, st := range stats {
		if st == nil || st.Address == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey(st.Address, st.TimestampMs)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, st := range stats {
		statsCopy := *st
		s.data[snapshotKey(st.Address, st.TimestampMs)] = &statsCopy
		if cur, ok := s.latest[st.Address]; !ok || cur.TimestampMs < st.TimestampMs {
			s.latest[st.Address] = &statsCopy
		}
	}

	return nil
}

// Latest returns the most recent snapshot per address.
func (s *TokenStatsStore) Latest(_ context.Context, addresses []string) (map[string]*domain.TokenStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.TokenStats, len(addresses))
	for _, addr := range addresses {
		if st, ok := s.latest[addr]; ok {
			statsCopy := *st
			result[addr] = &statsCopy
		}
	}
	return result, nil
}

var _ storage.TokenStatsStore = (*TokenStatsStore)(nil)
