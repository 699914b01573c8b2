package clickhouse

import (
	"context"
	"fmt"
	"time"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// TokenStatsStore implements storage.TokenStatsStore using ClickHouse.
type TokenStatsStore struct {
	conn *Conn
}

// NewTokenStatsStore creates a new TokenStatsStore.
func NewTokenStatsStore(conn *Conn) *TokenStatsStore {
	return &TokenStatsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TokenStatsStore = (*TokenStatsStore)(nil)

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate (address, timestamp_ms).
func (s *TokenStatsStore) InsertBulk(ctx context.Context, stats []*domain.TokenStats) (err error) {
	if len(stats) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("token_snapshots_insert", start, err) }(time.Now())

	type key struct {
		address     string
		timestampMs int64
	}
	seen := make(map[key]struct{}, len(stats))
	for _, st := range stats {
		if st == nil || st.Address == "" {
			return storage.ErrInvalidInput
		}
		k := key{st.Address, st.TimestampMs}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, st := range stats {
		exists, err := snapshotExists(ctx, s.conn, "token_snapshots", st.Address, st.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO token_snapshots (
			address, timestamp_ms, price_usd, volume_usd, tvl_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, st := range stats {
		err = batch.Append(st.Address, uint64(st.TimestampMs), st.PriceUSD, st.VolumeUSD, st.TVLUSD)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err = batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot per address.
func (s *TokenStatsStore) Latest(ctx context.Context, addresses []string) (_ map[string]*domain.TokenStats, err error) {
	result := make(map[string]*domain.TokenStats, len(addresses))
	if len(addresses) == 0 {
		return result, nil
	}
	defer func(start time.Time) { observe("token_snapshots_latest", start, err) }(time.Now())

	marks, args := inPlaceholders(addresses)
	query := `
		SELECT address,
		       max(timestamp_ms),
		       argMax(price_usd, timestamp_ms),
		       argMax(volume_usd, timestamp_ms),
		       argMax(tvl_usd, timestamp_ms)
		FROM token_snapshots
		WHERE address IN (` + marks + `)
		GROUP BY address
	`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest token snapshots: %w", err)
	}
	defer rows.Close()

	if err = scanTokenStats(rows, result); err != nil {
		return nil, err
	}
	return result, nil
}

// scanTokenStats scans rows into result keyed by address.
func scanTokenStats(rows chRows, result map[string]*domain.TokenStats) error {
	for rows.Next() {
		var st domain.TokenStats
		var timestampMs uint64
		if err := rows.Scan(&st.Address, &timestampMs, &st.PriceUSD, &st.VolumeUSD, &st.TVLUSD); err != nil {
			return fmt.Errorf("scan token snapshot row: %w", err)
		}
		st.TimestampMs = int64(timestampMs)
		result[st.Address] = &st
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate token snapshot rows: %w", err)
	}
	return nil
}

// snapshotExists checks if a snapshot with the given key exists in table.
func snapshotExists(ctx context.Context, conn *Conn, table, address string, timestampMs int64) (bool, error) {
	query := `SELECT count(*) FROM ` + table + ` WHERE address = ? AND timestamp_ms = ?`

	var count uint64
	if err := conn.QueryRow(ctx, query, address, uint64(timestampMs)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
