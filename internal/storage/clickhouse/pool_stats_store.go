package clickhouse

import (
	"context"
	"fmt"
	"time"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

// PoolStatsStore implements storage.PoolStatsStore using ClickHouse.
type PoolStatsStore struct {
	conn *Conn
}

// NewPoolStatsStore creates a new PoolStatsStore.
func NewPoolStatsStore(conn *Conn) *PoolStatsStore {
	return &PoolStatsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.PoolStatsStore = (*PoolStatsStore)(nil)

// InsertBulk adds multiple snapshots. Fails entire batch on duplicate (address, timestamp_ms).
func (s *PoolStatsStore) InsertBulk(ctx context.Context, stats []*domain.PoolStats) (err error) {
	if len(stats) == 0 {
		return nil
	}
	defer func(start time.Time) { observe("pool_snapshots_insert", start, err) }(time.Now())

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
		exists, err := snapshotExists(ctx, s.conn, "pool_snapshots", st.Address, st.TimestampMs)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO pool_snapshots (
			address, timestamp_ms, volume_usd, volume_usd_week, tvl_usd
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, st := range stats {
		err = batch.Append(st.Address, uint64(st.TimestampMs), st.VolumeUSD, st.VolumeUSDWeek, st.TVLUSD)
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
func (s *PoolStatsStore) Latest(ctx context.Context, addresses []string) (_ map[string]*domain.PoolStats, err error) {
	result := make(map[string]*domain.PoolStats, len(addresses))
	if len(addresses) == 0 {
		return result, nil
	}
	defer func(start time.Time) { observe("pool_snapshots_latest", start, err) }(time.Now())

	marks, args := inPlaceholders(addresses)
	query := `
		SELECT address,
		       max(timestamp_ms),
		       argMax(volume_usd, timestamp_ms),
		       argMax(volume_usd_week, timestamp_ms),
		       argMax(tvl_usd, timestamp_ms)
		FROM pool_snapshots
		WHERE address IN (` + marks + `)
		GROUP BY address
	`

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query latest pool snapshots: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var st domain.PoolStats
		var timestampMs uint64
		if err = rows.Scan(&st.Address, &timestampMs, &st.VolumeUSD, &st.VolumeUSDWeek, &st.TVLUSD); err != nil {
			return nil, fmt.Errorf("scan pool snapshot row: %w", err)
		}
		st.TimestampMs = int64(timestampMs)
		result[st.Address] = &st
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool snapshot rows: %w", err)
	}
	return result, nil
}
