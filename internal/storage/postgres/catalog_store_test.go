package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

func TestTokenStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewTokenStore(pool)

	token := &domain.TokenInfo{Address: cakeAddr, Symbol: "CAKE", Name: "PancakeSwap Token", UpdatedAt: 1700000000000}
	require.NoError(t, store.Upsert(ctx, token))

	retrieved, err := store.GetByAddress(ctx, cakeAddr)
	require.NoError(t, err)
	assert.Equal(t, token, retrieved)

	// Upsert replaces
	token.Name = "PancakeSwap"
	token.UpdatedAt = 1700000001000
	require.NoError(t, store.Upsert(ctx, token))

	retrieved, err = store.GetByAddress(ctx, cakeAddr)
	require.NoError(t, err)
	assert.Equal(t, "PancakeSwap", retrieved.Name)
	assert.Equal(t, int64(1700000001000), retrieved.UpdatedAt)
}

func TestTokenStore_GetNotFound(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := NewTokenStore(pool).GetByAddress(context.Background(), "0xmissing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestTokenStore_UpsertInvalid(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewTokenStore(pool).Upsert(context.Background(), &domain.TokenInfo{Symbol: "X"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestTokenStore_Search(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCatalog(t, ctx, pool)
	store := NewTokenStore(pool)

	result, err := store.Search(ctx, "cake", 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "CAKE", result[0].Symbol)

	// Name match, case-insensitive
	result, err = store.Search(ctx, "TETHER", 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, usdtAddr, result[0].Address)

	// Limit applies after ordering by address
	result, err = store.Search(ctx, "0x", 2)
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, cakeAddr, result[0].Address)
	assert.Equal(t, usdtAddr, result[1].Address)

	// LIKE wildcards are literal
	result, err = store.Search(ctx, "%", 10)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestTokenStore_GetByAddressesKeepsOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCatalog(t, ctx, pool)

	result, err := NewTokenStore(pool).GetByAddresses(ctx, []string{wbnbAddr, "0xunknown", cakeAddr})
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "WBNB", result[0].Symbol)
	assert.Equal(t, "CAKE", result[1].Symbol)
}

func TestPoolStore_SearchByTokenSymbol(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCatalog(t, ctx, pool)
	store := NewPoolStore(pool)

	result, err := store.Search(ctx, "wbnb", 10)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, cakeWbnbPool, result[0].Address)
	assert.Equal(t, domain.FeeTierMedium, result[0].FeeTier)

	result, err = store.Search(ctx, "tether", 10)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestPoolStore_GetByAddress(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedCatalog(t, ctx, pool)
	store := NewPoolStore(pool)

	retrieved, err := store.GetByAddress(ctx, cakeWbnbPool)
	require.NoError(t, err)
	assert.Equal(t, cakeAddr, retrieved.Token0)
	assert.Equal(t, wbnbAddr, retrieved.Token1)

	_, err = store.GetByAddress(ctx, "0xmissing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	list, err := store.GetByAddresses(ctx, []string{cakeWbnbPool})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
