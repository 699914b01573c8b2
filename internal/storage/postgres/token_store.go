package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts or replaces a token by address.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.TokenInfo) (err error) {
	if t == nil || t.Address == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("token_upsert", start, err) }(time.Now())

	query := `
		INSERT INTO tokens (address, symbol, name, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO UPDATE
		SET symbol = EXCLUDED.symbol, name = EXCLUDED.name, updated_at = EXCLUDED.updated_at
	`

	if _, err = s.pool.Exec(ctx, query, t.Address, t.Symbol, t.Name, t.UpdatedAt); err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByAddress(ctx context.Context, address string) (*domain.TokenInfo, error) {
	query := `
		SELECT address, symbol, name, updated_at
		FROM tokens
		WHERE address = $1
	`

	t, err := scanToken(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by address: %w", err)
	}
	return t, nil
}

// GetByAddresses retrieves tokens in the order of addresses; unknown addresses are skipped.
func (s *TokenStore) GetByAddresses(ctx context.Context, addresses []string) ([]*domain.TokenInfo, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	query := `
		SELECT address, symbol, name, updated_at
		FROM tokens
		WHERE address = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, addresses)
	if err != nil {
		return nil, fmt.Errorf("query tokens by addresses: %w", err)
	}
	defer rows.Close()

	found, err := scanTokens(rows)
	if err != nil {
		return nil, err
	}

	byAddress := make(map[string]*domain.TokenInfo, len(found))
	for _, t := range found {
		byAddress[t.Address] = t
	}

	result := make([]*domain.TokenInfo, 0, len(found))
	for _, addr := range addresses {
		if t, ok := byAddress[addr]; ok {
			result = append(result, t)
		}
	}
	return result, nil
}

// Search returns tokens whose address, symbol or name contains query, ordered by address.
func (s *TokenStore) Search(ctx context.Context, query string, limit int) (_ []*domain.TokenInfo, err error) {
	defer func(start time.Time) { observe("token_search", start, err) }(time.Now())

	sql := `
		SELECT address, symbol, name, updated_at
		FROM tokens
		WHERE address ILIKE $1 OR symbol ILIKE $1 OR name ILIKE $1
		ORDER BY address ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, sql, likePattern(query), limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("search tokens: %w", err)
	}
	defer rows.Close()

	return scanTokens(rows)
}

// scanToken scans a single row into TokenInfo.
func scanToken(row pgx.Row) (*domain.TokenInfo, error) {
	var t domain.TokenInfo
	if err := row.Scan(&t.Address, &t.Symbol, &t.Name, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// scanTokens scans multiple rows.
func scanTokens(rows pgx.Rows) ([]*domain.TokenInfo, error) {
	var tokens []*domain.TokenInfo
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}
	return tokens, nil
}
