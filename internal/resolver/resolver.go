// Package resolver turns a settled search query into token and pool records.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/observability"
	"dex-info-search/internal/storage"
)

// MinSearchChars is the shortest query that triggers a lookup.
const MinSearchChars = 2

// DefaultLimit caps results per kind.
const DefaultLimit = 100

// Result holds the records resolved for one query.
type Result struct {
	Tokens []domain.Token
	Pools  []domain.Pool
}

// Resolver resolves a query into tokens and pools.
type Resolver interface {
	Resolve(ctx context.Context, query string) (*Result, error)
}

// StoreOptions configures a StoreResolver.
// Stats stores are optional; without them records carry zero analytics.
type StoreOptions struct {
	Tokens     storage.TokenStore
	Pools      storage.PoolStore
	TokenStats storage.TokenStatsStore
	PoolStats  storage.PoolStatsStore
	Limit      int
}

// StoreResolver resolves queries against the catalog and snapshot stores.
type StoreResolver struct {
	tokens     storage.TokenStore
	pools      storage.PoolStore
	tokenStats storage.TokenStatsStore
	poolStats  storage.PoolStatsStore
	limit      int
}

// NewStoreResolver creates a StoreResolver.
func NewStoreResolver(opts StoreOptions) *StoreResolver {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &StoreResolver{
		tokens:     opts.Tokens,
		pools:      opts.Pools,
		tokenStats: opts.TokenStats,
		poolStats:  opts.PoolStats,
		limit:      limit,
	}
}

// Compile-time interface check.
var _ Resolver = (*StoreResolver)(nil)

// Resolve searches tokens and pools concurrently. Queries shorter than
// MinSearchChars resolve to an empty result without touching storage.
func (r *StoreResolver) Resolve(ctx context.Context, query string) (_ *Result, err error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinSearchChars {
		return &Result{}, nil
	}
	defer func(start time.Time) {
		observability.RecordResolve("store", time.Since(start).Seconds(), err)
	}(time.Now())

	var result Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		infos, err := r.tokens.Search(gctx, q, r.limit)
		if err != nil {
			return fmt.Errorf("search tokens: %w", err)
		}
		result.Tokens, err = r.joinTokens(gctx, infos)
		return err
	})

	g.Go(func() error {
		infos, err := r.pools.Search(gctx, q, r.limit)
		if err != nil {
			return fmt.Errorf("search pools: %w", err)
		}
		result.Pools, err = r.joinPools(gctx, infos)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &result, nil
}

// TokensByAddress resolves full token records in the order of addresses.
// Unknown addresses are skipped.
func (r *StoreResolver) TokensByAddress(ctx context.Context, addresses []string) ([]domain.Token, error) {
	infos, err := r.tokens.GetByAddresses(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("get tokens: %w", err)
	}
	return r.joinTokens(ctx, infos)
}

// PoolsByAddress resolves full pool records in the order of addresses.
// Unknown addresses are skipped.
func (r *StoreResolver) PoolsByAddress(ctx context.Context, addresses []string) ([]domain.Pool, error) {
	infos, err := r.pools.GetByAddresses(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("get pools: %w", err)
	}
	return r.joinPools(ctx, infos)
}

func (r *StoreResolver) joinTokens(ctx context.Context, infos []*domain.TokenInfo) ([]domain.Token, error) {
	if len(infos) == 0 {
		return nil, nil
	}

	addrs := make([]string, len(infos))
	for i, info := range infos {
		addrs[i] = info.Address
	}

	stats, err := r.latestTokenStats(ctx, addrs)
	if err != nil {
		return nil, err
	}

	tokens := make([]domain.Token, len(infos))
	for i, info := range infos {
		tokens[i] = domain.NewToken(info, stats[info.Address])
	}
	return tokens, nil
}

func (r *StoreResolver) joinPools(ctx context.Context, infos []*domain.PoolInfo) ([]domain.Pool, error) {
	if len(infos) == 0 {
		return nil, nil
	}

	poolAddrs := make([]string, len(infos))
	var tokenAddrs []string
	seen := make(map[string]struct{})
	for i, info := range infos {
		poolAddrs[i] = info.Address
		for _, addr := range []string{info.Token0, info.Token1} {
			if _, ok := seen[addr]; !ok {
				seen[addr] = struct{}{}
				tokenAddrs = append(tokenAddrs, addr)
			}
		}
	}

	tokenInfos, err := r.tokens.GetByAddresses(ctx, tokenAddrs)
	if err != nil {
		return nil, fmt.Errorf("get pool tokens: %w", err)
	}
	tokens, err := r.joinTokens(ctx, tokenInfos)
	if err != nil {
		return nil, err
	}
	byAddress := make(map[string]domain.Token, len(tokens))
	for _, t := range tokens {
		byAddress[t.Address] = t
	}

	var stats map[string]*domain.PoolStats
	if r.poolStats != nil {
		stats, err = r.poolStats.Latest(ctx, poolAddrs)
		if err != nil {
			return nil, fmt.Errorf("latest pool stats: %w", err)
		}
	}

	pools := make([]domain.Pool, len(infos))
	for i, info := range infos {
		pools[i] = domain.NewPool(info, tokenOrStub(byAddress, info.Token0), tokenOrStub(byAddress, info.Token1), stats[info.Address])
	}
	return pools, nil
}

func (r *StoreResolver) latestTokenStats(ctx context.Context, addrs []string) (map[string]*domain.TokenStats, error) {
	if r.tokenStats == nil {
		return nil, nil
	}
	stats, err := r.tokenStats.Latest(ctx, addrs)
	if err != nil {
		return nil, fmt.Errorf("latest token stats: %w", err)
	}
	return stats, nil
}

// tokenOrStub returns the resolved token or an address-only placeholder.
func tokenOrStub(byAddress map[string]domain.Token, addr string) domain.Token {
	if t, ok := byAddress[addr]; ok {
		return t
	}
	return domain.Token{Address: addr}
}
