package postgres

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"dex-info-search/internal/domain"
)

// setupTestDB creates a PostgreSQL container for testing and applies migrations.
// Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	// Run migrations
	runMigrations(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// runMigrations applies the SQL files embedded by the migrations package.
func runMigrations(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	// Find project root by looking for go.mod
	projectRoot := findProjectRoot(t)
	migrationsDir := filepath.Join(projectRoot, "internal", "storage", "migrations", "postgres")

	// Read migration files
	entries, err := os.ReadDir(migrationsDir)
	require.NoError(t, err, "failed to read migrations directory")

	// Sort files by name (001_, 002_, etc.)
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".sql" {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	// Execute each migration
	for _, file := range files {
		filePath := filepath.Join(migrationsDir, file)
		sql, err := os.ReadFile(filePath)
		require.NoError(t, err, "failed to read migration file: %s", file)

		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, "failed to execute migration: %s", file)

		t.Logf("Applied migration: %s", file)
	}
}

// findProjectRoot walks up from current directory to find go.mod.
func findProjectRoot(t *testing.T) string {
	t.Helper()

	// Start from the current working directory
	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// seedCatalog inserts CAKE, USDT and WBNB plus a CAKE/WBNB pool.
func seedCatalog(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	tokens := NewTokenStore(pool)
	for _, tok := range []*domain.TokenInfo{
		{Address: cakeAddr, Symbol: "CAKE", Name: "PancakeSwap Token", UpdatedAt: 1700000000000},
		{Address: usdtAddr, Symbol: "USDT", Name: "Tether USD", UpdatedAt: 1700000000000},
		{Address: wbnbAddr, Symbol: "WBNB", Name: "Wrapped BNB", UpdatedAt: 1700000000000},
	} {
		require.NoError(t, tokens.Upsert(ctx, tok))
	}

	pools := NewPoolStore(pool)
	require.NoError(t, pools.Upsert(ctx, &domain.PoolInfo{
		Address:   cakeWbnbPool,
		Token0:    cakeAddr,
		Token1:    wbnbAddr,
		FeeTier:   domain.FeeTierMedium,
		UpdatedAt: 1700000000000,
	}))
}

const (
	cakeAddr     = "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"
	usdtAddr     = "0x55d398326f99059ff775485246999027b3197955"
	wbnbAddr     = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
	cakeWbnbPool = "0x133b3d95bad5405d14d53473671200e9342896bf"
)
