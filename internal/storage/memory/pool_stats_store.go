package memory

import (
	"context"
	"sync"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// PoolStatsStore is an in-memory implementation of storage.PoolStatsStore.
type PoolStatsStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.PoolStats // keyed by (address, timestamp_ms)
	latest map[string]*domain.PoolStats // keyed by address
}

// NewPoolStatsStore creates a new in-memory pool snapshot store.
func NewPoolStatsStore() *PoolStatsStore {
	return &PoolStatsStore{
		data:   make(map[string]*domain.PoolStats),
		latest: make(map[string]*domain.PoolStats),
	}
}

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate.
func (s *PoolStatsStore) InsertBulk(_ context.Context, stats []*domain.PoolStats) error {
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
func (s *PoolStatsStore) Latest(_ context.Context, addresses []string) (map[string]*domain.PoolStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]*domain.PoolStats, len(addresses))
	for _, addr := range addresses {
		if st, ok := s.latest[addr]; ok {
			statsCopy := *st
			result[addr] = &statsCopy
		}
	}
	return result, nil
}

var _ storage.PoolStatsStore = (*PoolStatsStore)(nil)
