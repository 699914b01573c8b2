package storage

import (
	"context"

	"dex-info-search/internal/domain"
)

// TokenStore provides access to the tokens catalog.
type TokenStore interface {
	// Upsert inserts or replaces a token by address.
	Upsert(ctx context.Context, t *domain.TokenInfo) error

	// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.TokenInfo, error)

	// GetByAddresses retrieves tokens in the order of addresses; unknown addresses are skipped.
	GetByAddresses(ctx context.Context, addresses []string) ([]*domain.TokenInfo, error)

	// Search returns up to limit tokens whose address, symbol or name contains
	// query case-insensitively, ordered by address.
	Search(ctx context.Context, query string, limit int) ([]*domain.TokenInfo, error)
}

// PoolStore provides access to the pools catalog.
type PoolStore interface {
	// Upsert inserts or replaces a pool by address.
	Upsert(ctx context.Context, p *domain.PoolInfo) error

	// GetByAddress retrieves a pool. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.PoolInfo, error)

	// GetByAddresses retrieves pools in the order of addresses; unknown addresses are skipped.
	GetByAddresses(ctx context.Context, addresses []string) ([]*domain.PoolInfo, error)

	// Search returns up to limit pools whose address, or either token's
	// address, symbol or name, contains query case-insensitively.
	Search(ctx context.Context, query string, limit int) ([]*domain.PoolInfo, error)
}

// TokenStatsStore provides access to token_snapshots storage.
type TokenStatsStore interface {
	// InsertBulk appends snapshots. Fails entire batch on duplicate (address, timestamp_ms).
	InsertBulk(ctx context.Context, stats []*domain.TokenStats) error

	// Latest returns the most recent snapshot per address. Addresses without data are absent.
	Latest(ctx context.Context, addresses []string) (map[string]*domain.TokenStats, error)
}

// PoolStatsStore provides access to pool_snapshots storage.
type PoolStatsStore interface {
	// InsertBulk appends snapshots. Fails entire batch on duplicate (address, timestamp_ms).
	InsertBulk(ctx context.Context, stats []*domain.PoolStats) error

	// Latest returns the most recent snapshot per address. Addresses without data are absent.
	Latest(ctx context.Context, addresses []string) (map[string]*domain.PoolStats, error)
}

// WatchlistStore provides access to saved tokens and pools per account.
type WatchlistStore interface {
	// Add saves an address. Returns ErrDuplicateKey if already saved.
	Add(ctx context.Context, e *domain.WatchlistEntry) error

	// Remove deletes a saved address. Returns ErrNotFound if not saved.
	Remove(ctx context.Context, account string, kind domain.WatchlistKind, address string) error

	// List returns saved entries of a kind, ordered by AddedAt ASC.
	List(ctx context.Context, account string, kind domain.WatchlistKind) ([]*domain.WatchlistEntry, error)
}

// PromptStore records accounts that already saw the anniversary prompt.
type PromptStore interface {
	// Mark records the account. Marking twice is not an error.
	Mark(ctx context.Context, m *domain.PromptMark) error

	// IsMarked reports whether the account was marked.
	IsMarked(ctx context.Context, account string) (bool, error)
}
