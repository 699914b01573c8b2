package postgres

import (
	"context"
	"fmt"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// PromptStore implements storage.PromptStore using PostgreSQL.
type PromptStore struct {
	pool *Pool
}

// NewPromptStore creates a new PromptStore.
func NewPromptStore(pool *Pool) *PromptStore {
	return &PromptStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PromptStore = (*PromptStore)(nil)

// Mark records the account. The first mark time wins.
func (s *PromptStore) Mark(ctx context.Context, m *domain.PromptMark) error {
	if m == nil || m.Account == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO anniversary_prompts (account, marked_at)
		VALUES ($1, $2)
		ON CONFLICT (account) DO NOTHING
	`

	if _, err := s.pool.Exec(ctx, query, m.Account, m.MarkedAt); err != nil {
		return fmt.Errorf("mark prompt: %w", err)
	}
	return nil
}

// IsMarked reports whether the account was marked.
func (s *PromptStore) IsMarked(ctx context.Context, account string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM anniversary_prompts WHERE account = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, account).Scan(&exists); err != nil {
		return false, fmt.Errorf("check prompt mark: %w", err)
	}
	return exists, nil
}
