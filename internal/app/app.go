// Package app wires configuration into stores, resolvers and clients shared
// by the commands.
package app

import (
	"context"
	"fmt"
	"log"

	"dex-info-search/internal/achievement"
	"dex-info-search/internal/config"
	"dex-info-search/internal/domain"
	"dex-info-search/internal/infoapi"
	"dex-info-search/internal/resolver"
	"dex-info-search/internal/search"
	"dex-info-search/internal/storage"
	chstore "dex-info-search/internal/storage/clickhouse"
	"dex-info-search/internal/storage/memory"
	"dex-info-search/internal/storage/migrations"
	pgstore "dex-info-search/internal/storage/postgres"
)

// Stores holds all storage implementations.
type Stores struct {
	Tokens     storage.TokenStore
	Pools      storage.PoolStore
	TokenStats storage.TokenStatsStore
	PoolStats  storage.PoolStatsStore
	Watchlist  storage.WatchlistStore
	Prompts    storage.PromptStore
}

// OpenStores creates the stores of the configured backend. The returned
// cleanup closes any connections.
func OpenStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Stores, func(), error) {
	if cfg.Storage.Backend == config.BackendMemory {
		tokens := memory.NewTokenStore()
		return &Stores{
			Tokens:     tokens,
			Pools:      memory.NewPoolStore(tokens),
			TokenStats: memory.NewTokenStatsStore(),
			PoolStats:  memory.NewPoolStatsStore(),
			Watchlist:  memory.NewWatchlistStore(),
			Prompts:    memory.NewPromptStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	// ClickHouse
	var chConn *chstore.Conn
	if cfg.Storage.Migrate {
		if err := migrations.Postgres(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		chConn, err = migrations.Clickhouse(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		logger.Println("Migrations applied")
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
	}

	stores := &Stores{
		// PostgreSQL stores (catalog + per-account data)
		Tokens:    pgstore.NewTokenStore(pool),
		Pools:     pgstore.NewPoolStore(pool),
		Watchlist: pgstore.NewWatchlistStore(pool),
		Prompts:   pgstore.NewPromptStore(pool),

		// ClickHouse stores (analytics)
		TokenStats: chstore.NewTokenStatsStore(chConn),
		PoolStats:  chstore.NewPoolStatsStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// StoreResolver resolves against the stores.
func StoreResolver(cfg *config.Config, stores *Stores) *resolver.StoreResolver {
	return resolver.NewStoreResolver(resolver.StoreOptions{
		Tokens:     stores.Tokens,
		Pools:      stores.Pools,
		TokenStats: stores.TokenStats,
		PoolStats:  stores.PoolStats,
		Limit:      cfg.Search.ResultLimit,
	})
}

// InfoClient creates the info API client, or nil when no endpoint is set.
func InfoClient(cfg *config.Config) *infoapi.Client {
	if cfg.InfoAPI.Endpoint == "" {
		return nil
	}
	return infoapi.NewClient(cfg.InfoAPI.Endpoint,
		infoapi.WithTimeout(cfg.InfoAPI.Timeout),
		infoapi.WithRateLimit(cfg.InfoAPI.RateLimit, cfg.InfoAPI.Burst),
		infoapi.WithFirst(cfg.Search.ResultLimit),
	)
}

// Resolver picks the configured search source.
func Resolver(cfg *config.Config, stores *Stores) resolver.Resolver {
	if cfg.Search.Resolver == config.ResolverInfoAPI {
		if client := InfoClient(cfg); client != nil {
			return client
		}
	}
	return StoreResolver(cfg, stores)
}

// Routes builds result routes from the search settings.
func Routes(cfg *config.Config) search.Routes {
	return search.Routes{
		InfoPath:   cfg.Search.InfoPath,
		ChainPath:  cfg.Search.ChainPath,
		StableSwap: cfg.Search.StableSwap,
	}
}

// Overrides builds the name and symbol overrides keyed by normalized address.
func Overrides(cfg *config.Config) search.Overrides {
	return search.Overrides{
		Names:   byAddress(cfg.Search.Names),
		Symbols: byAddress(cfg.Search.Symbols),
	}
}

// byAddress re-keys m by normalized address. Keys that are not addresses are kept as given.
func byAddress(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if norm, err := domain.NormalizeAddress(k); err == nil {
			k = norm
		}
		out[k] = v
	}
	return out
}

// Contract dials the anniversary contract, or returns nil when it is not configured.
func Contract(ctx context.Context, cfg *config.Config) (*achievement.EthContract, error) {
	if !cfg.AnniversaryEnabled() {
		return nil, nil
	}
	return achievement.DialContract(ctx, cfg.Anniversary.RPCEndpoint, cfg.Anniversary.Contract,
		cfg.Anniversary.ChainID, cfg.Anniversary.PrivateKey)
}
