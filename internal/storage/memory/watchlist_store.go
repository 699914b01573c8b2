package memory

import (
	"context"
	"sort"
	"sync"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// WatchlistStore is an in-memory implementation of storage.WatchlistStore.
type WatchlistStore struct {
	mu      sync.RWMutex
	entries map[watchKey]*domain.WatchlistEntry
}

type watchKey struct {
	account string
	kind    domain.WatchlistKind
	address string
}

// NewWatchlistStore creates a new in-memory watchlist store.
func NewWatchlistStore() *WatchlistStore {
	return &WatchlistStore{
		entries: make(map[watchKey]*domain.WatchlistEntry),
	}
}

// Add saves an address. Returns ErrDuplicateKey if already saved.
func (s *WatchlistStore) Add(_ context.Context, e *domain.WatchlistEntry) error {
	if e == nil || e.Account == "" || e.Address == "" || !e.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := watchKey{e.Account, e.Kind, e.Address}
	if _, exists := s.entries[key]; exists {
		return storage.ErrDuplicateKey
	}

	entryCopy := *e
	s.entries[key] = &entryCopy
	return nil
}

// Remove deletes a saved address. Returns ErrNotFound if not saved.
func (s *WatchlistStore) Remove(_ context.Context, account string, kind domain.WatchlistKind, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := watchKey{account, kind, address}
	if _, exists := s.entries[key]; !exists {
		return storage.ErrNotFound
	}
	delete(s.entries, key)
	return nil
}

// List returns saved entries of a kind, ordered by AddedAt ASC then address.
func (s *WatchlistStore) List(_ context.Context, account string, kind domain.WatchlistKind) ([]*domain.WatchlistEntry, error) {
	s.mu.RLock()
	var result []*domain.WatchlistEntry
	for key, e := range s.entries {
		if key.account == account && key.kind == kind {
			entryCopy := *e
			result = append(result, &entryCopy)
		}
	}
	s.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].AddedAt != result[j].AddedAt {
			return result[i].AddedAt < result[j].AddedAt
		}
		return result[i].Address < result[j].Address
	})
	return result, nil
}

var _ storage.WatchlistStore = (*WatchlistStore)(nil)
