package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// PoolStore implements storage.PoolStore using PostgreSQL.
type PoolStore struct {
	pool *Pool
}

// NewPoolStore creates a new PoolStore.
func NewPoolStore(pool *Pool) *PoolStore {
	return &PoolStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolStore = (*PoolStore)(nil)

// Upsert inserts or replaces a pool by address.
func (s *PoolStore) Upsert(ctx context.Context, p *domain.PoolInfo) (err error) {
	if p == nil || p.Address == "" || p.Token0 == "" || p.Token1 == "" {
		return storage.ErrInvalidInput
	}
	defer func(start time.Time) { observe("pool_upsert", start, err) }(time.Now())

	query := `
		INSERT INTO pools (address, token0, token1, fee_tier, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (address) DO UPDATE
		SET token0 = EXCLUDED.token0, token1 = EXCLUDED.token1,
		    fee_tier = EXCLUDED.fee_tier, updated_at = EXCLUDED.updated_at
	`

	if _, err = s.pool.Exec(ctx, query, p.Address, p.Token0, p.Token1, p.FeeTier, p.UpdatedAt); err != nil {
		return fmt.Errorf("upsert pool: %w", err)
	}
	return nil
}

// GetByAddress retrieves a pool. Returns ErrNotFound if not exists.
func (s *PoolStore) GetByAddress(ctx context.Context, address string) (*domain.PoolInfo, error) {
	query := `
		SELECT address, token0, token1, fee_tier, updated_at
		FROM pools
		WHERE address = $1
	`

	p, err := scanPool(s.pool.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pool by address: %w", err)
	}
	return p, nil
}

// GetByAddresses retrieves pools in the order of addresses; unknown addresses are skipped.
func (s *PoolStore) GetByAddresses(ctx context.Context, addresses []string) ([]*domain.PoolInfo, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	query := `
		SELECT address, token0, token1, fee_tier, updated_at
		FROM pools
		WHERE address = ANY($1)
	`

	rows, err := s.pool.Query(ctx, query, addresses)
	if err != nil {
		return nil, fmt.Errorf("query pools by addresses: %w", err)
	}
	defer rows.Close()

	found, err := scanPools(rows)
	if err != nil {
		return nil, err
	}

	byAddress := make(map[string]*domain.PoolInfo, len(found))
	for _, p := range found {
		byAddress[p.Address] = p
	}

	result := make([]*domain.PoolInfo, 0, len(found))
	for _, addr := range addresses {
		if p, ok := byAddress[addr]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

// Search returns pools matching query on their own address or either token.
func (s *PoolStore) Search(ctx context.Context, query string, limit int) (_ []*domain.PoolInfo, err error) {
	defer func(start time.Time) { observe("pool_search", start, err) }(time.Now())

	sql := `
		SELECT p.address, p.token0, p.token1, p.fee_tier, p.updated_at
		FROM pools p
		LEFT JOIN tokens t0 ON t0.address = p.token0
		LEFT JOIN tokens t1 ON t1.address = p.token1
		WHERE p.address ILIKE $1
		   OR p.token0 ILIKE $1 OR t0.symbol ILIKE $1 OR t0.name ILIKE $1
		   OR p.token1 ILIKE $1 OR t1.symbol ILIKE $1 OR t1.name ILIKE $1
		ORDER BY p.address ASC
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, sql, likePattern(query), limitArg(limit))
	if err != nil {
		return nil, fmt.Errorf("search pools: %w", err)
	}
	defer rows.Close()

	return scanPools(rows)
}

// scanPool scans a single row into PoolInfo.
func scanPool(row pgx.Row) (*domain.PoolInfo, error) {
	var p domain.PoolInfo
	if err := row.Scan(&p.Address, &p.Token0, &p.Token1, &p.FeeTier, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// scanPools scans multiple rows.
func scanPools(rows pgx.Rows) ([]*domain.PoolInfo, error) {
	var pools []*domain.PoolInfo
	for rows.Next() {
		p, err := scanPool(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pool row: %w", err)
		}
		pools = append(pools, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool rows: %w", err)
	}
	return pools, nil
}
