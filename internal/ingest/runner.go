// Package ingest copies the top tokens and pools from the info API into the
// catalog and snapshot stores.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/observability"
	"dex-info-search/internal/storage"
)

// Source lists the most relevant tokens and pools.
type Source interface {
	TopTokens(ctx context.Context, first int) ([]domain.Token, error)
	TopPools(ctx context.Context, first int) ([]domain.Pool, error)
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	Source     Source
	Tokens     storage.TokenStore
	Pools      storage.PoolStore
	TokenStats storage.TokenStatsStore // optional
	PoolStats  storage.PoolStatsStore  // optional
	Interval   time.Duration           // Default: 5m
	Top        int                     // Default: 500
	Logger     *log.Logger
}

// RunResult summarizes one ingest run.
type RunResult struct {
	Tokens       int
	Pools        int
	TokenStats   int
	PoolStats    int
	SnapshotTime int64
}

// Runner ingests on a fixed interval.
type Runner struct {
	source     Source
	tokens     storage.TokenStore
	pools      storage.PoolStore
	tokenStats storage.TokenStatsStore
	poolStats  storage.PoolStatsStore
	interval   time.Duration
	top        int
	logger     *log.Logger
	now        func() time.Time
}

// NewRunner creates a new ingest runner.
func NewRunner(opts RunnerOptions) *Runner {
	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	top := opts.Top
	if top <= 0 {
		top = 500
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Runner{
		source:     opts.Source,
		tokens:     opts.Tokens,
		pools:      opts.Pools,
		tokenStats: opts.TokenStats,
		poolStats:  opts.PoolStats,
		interval:   interval,
		top:        top,
		logger:     logger,
		now:        time.Now,
	}
}

// Run ingests immediately and then on every tick until ctx is cancelled.
// A failed run is logged and retried on the next tick.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Printf("Runner started, interval: %v, top: %d", r.interval, r.top)

	r.runLogged(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Println("Runner stopping...")
			return ctx.Err()
		case <-ticker.C:
			r.runLogged(ctx)
		}
	}
}

func (r *Runner) runLogged(ctx context.Context) {
	res, err := r.RunOnce(ctx)
	if err != nil {
		if ctx.Err() == nil {
			r.logger.Printf("Ingest error: %v", err)
		}
		return
	}
	r.logger.Printf("Ingested %d tokens, %d pools (%d token and %d pool snapshots)",
		res.Tokens, res.Pools, res.TokenStats, res.PoolStats)
}

// RunOnce performs a single ingest. Snapshots are stamped with the run start,
// truncated to the minute; a repeated snapshot time is skipped.
func (r *Runner) RunOnce(ctx context.Context) (res RunResult, err error) {
	start := r.now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		observability.RecordIngestRun(status, time.Since(start).Seconds(), start)
	}()

	var tokens []domain.Token
	var pools []domain.Pool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		tokens, err = r.source.TopTokens(gctx, r.top)
		return err
	})
	g.Go(func() (err error) {
		pools, err = r.source.TopPools(gctx, r.top)
		return err
	})
	if err := g.Wait(); err != nil {
		return res, fmt.Errorf("fetch: %w", err)
	}

	ts := start.Truncate(time.Minute).UnixMilli()
	res.SnapshotTime = ts

	// Pool constituents join the catalog so pool rows can be labelled.
	all := make([]domain.Token, 0, len(tokens)+2*len(pools))
	all = append(all, tokens...)
	for _, p := range pools {
		all = append(all, p.Token0, p.Token1)
	}
	seen := make(map[string]struct{}, len(all))
	for _, t := range all {
		if _, ok := seen[t.Address]; ok {
			continue
		}
		seen[t.Address] = struct{}{}
		info := &domain.TokenInfo{Address: t.Address, Symbol: t.Symbol, Name: t.Name, UpdatedAt: ts}
		if err := r.tokens.Upsert(ctx, info); err != nil {
			return res, fmt.Errorf("upsert token %s: %w", t.Address, err)
		}
		res.Tokens++
	}
	observability.RecordIngested("token", res.Tokens)

	for _, p := range pools {
		info := &domain.PoolInfo{
			Address:   p.Address,
			Token0:    p.Token0.Address,
			Token1:    p.Token1.Address,
			FeeTier:   p.FeeTier,
			UpdatedAt: ts,
		}
		if err := r.pools.Upsert(ctx, info); err != nil {
			return res, fmt.Errorf("upsert pool %s: %w", p.Address, err)
		}
		res.Pools++
	}
	observability.RecordIngested("pool", res.Pools)

	if r.tokenStats != nil && len(tokens) > 0 {
		stats := make([]*domain.TokenStats, len(tokens))
		for i, t := range tokens {
			stats[i] = &domain.TokenStats{
				Address:     t.Address,
				TimestampMs: ts,
				PriceUSD:    t.PriceUSD,
				VolumeUSD:   t.VolumeUSD,
				TVLUSD:      t.TVLUSD,
			}
		}
		n, err := insertSnapshots(len(stats), func() error { return r.tokenStats.InsertBulk(ctx, stats) })
		if err != nil {
			return res, fmt.Errorf("insert token stats: %w", err)
		}
		res.TokenStats = n
		observability.RecordIngested("token_snapshot", n)
	}

	if r.poolStats != nil && len(pools) > 0 {
		stats := make([]*domain.PoolStats, len(pools))
		for i, p := range pools {
			stats[i] = &domain.PoolStats{
				Address:       p.Address,
				TimestampMs:   ts,
				VolumeUSD:     p.VolumeUSD,
				VolumeUSDWeek: p.VolumeUSDWeek,
				TVLUSD:        p.TVLUSD,
			}
		}
		n, err := insertSnapshots(len(stats), func() error { return r.poolStats.InsertBulk(ctx, stats) })
		if err != nil {
			return res, fmt.Errorf("insert pool stats: %w", err)
		}
		res.PoolStats = n
		observability.RecordIngested("pool_snapshot", n)
	}

	return res, nil
}

// insertSnapshots treats a duplicate batch as already ingested.
func insertSnapshots(n int, insert func() error) (int, error) {
	err := insert()
	if errors.Is(err, storage.ErrDuplicateKey) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}
