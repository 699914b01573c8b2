package memory

import (
	"context"
	"sync"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// PromptStore is an in-memory implementation of storage.PromptStore.
type PromptStore struct {
	mu     sync.RWMutex
	marked map[string]int64 // account -> marked_at
}

// NewPromptStore creates a new in-memory prompt store.
func NewPromptStore() *PromptStore {
	return &PromptStore{
		marked: make(map[string]int64),
	}
}

// Mark records the account. The first mark time wins.
func (s *PromptStore) Mark(_ context.Context, m *domain.PromptMark) error {
	if m == nil || m.Account == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.marked[m.Account]; !exists {
		s.marked[m.Account] = m.MarkedAt
	}
	return nil
}

// IsMarked reports whether the account was marked.
func (s *PromptStore) IsMarked(_ context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.marked[account]
	return exists, nil
}

var _ storage.PromptStore = (*PromptStore)(nil)
