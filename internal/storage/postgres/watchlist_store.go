package postgres

import (
	"context"
	"fmt"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// WatchlistStore implements storage.WatchlistStore using PostgreSQL.
type WatchlistStore struct {
	pool *Pool
}

// NewWatchlistStore creates a new WatchlistStore.
func NewWatchlistStore(pool *Pool) *WatchlistStore {
	return &WatchlistStore{pool: pool}
}

// Compile-time interface check.
var _ storage.WatchlistStore = (*WatchlistStore)(nil)

// Add saves an address. Returns ErrDuplicateKey if already saved.
func (s *WatchlistStore) Add(ctx context.Context, e *domain.WatchlistEntry) error {
	if e == nil || e.Account == "" || e.Address == "" || !e.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO watchlist (account, kind, address, added_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, e.Account, string(e.Kind), e.Address, e.AddedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert watchlist entry: %w", err)
	}
	return nil
}

// Remove deletes a saved address. Returns ErrNotFound if not saved.
func (s *WatchlistStore) Remove(ctx context.Context, account string, kind domain.WatchlistKind, address string) error {
	query := `
		DELETE FROM watchlist
		WHERE account = $1 AND kind = $2 AND address = $3
	`

	tag, err := s.pool.Exec(ctx, query, account, string(kind), address)
	if err != nil {
		return fmt.Errorf("delete watchlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// List returns saved entries of a kind, ordered by added_at ASC.
func (s *WatchlistStore) List(ctx context.Context, account string, kind domain.WatchlistKind) ([]*domain.WatchlistEntry, error) {
	query := `
		SELECT account, kind, address, added_at
		FROM watchlist
		WHERE account = $1 AND kind = $2
		ORDER BY added_at ASC, address ASC
	`

	rows, err := s.pool.Query(ctx, query, account, string(kind))
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var entries []*domain.WatchlistEntry
	for rows.Next() {
		var e domain.WatchlistEntry
		var k string
		if err := rows.Scan(&e.Account, &k, &e.Address, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		e.Kind = domain.WatchlistKind(k)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist rows: %w", err)
	}
	return entries, nil
}
