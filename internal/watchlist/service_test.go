package watchlist

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/resolver"
	"dex-info-search/internal/storage"
	"dex-info-search/internal/storage/memory"
)

const (
	account  = "0x8894e0a0c962cb723c1976a4421c95949be2d4e3"
	cakeAddr = "0x0e09fabb73bd3ade0a17ecc321fd13a19e81ce82"
	wbnbAddr = "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c"
	poolAddr = "0x133b3d95bad5405d14d53473671200e9342896bf"
	gonePool = "0x58f876857a02d6762e0101bb5c46a8c1ed44dc16"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()

	tokens := memory.NewTokenStore()
	pools := memory.NewPoolStore(tokens)
	require.NoError(t, tokens.Upsert(ctx, &domain.TokenInfo{Address: cakeAddr, Symbol: "CAKE", Name: "PancakeSwap Token"}))
	require.NoError(t, tokens.Upsert(ctx, &domain.TokenInfo{Address: wbnbAddr, Symbol: "WBNB", Name: "Wrapped BNB"}))
	require.NoError(t, pools.Upsert(ctx, &domain.PoolInfo{Address: poolAddr, Token0: cakeAddr, Token1: wbnbAddr, FeeTier: 2500}))

	lookup := resolver.NewStoreResolver(resolver.StoreOptions{Tokens: tokens, Pools: pools})
	svc := NewService(memory.NewWatchlistStore(), lookup)

	clock := int64(1700000000000)
	svc.now = func() time.Time {
		clock += 1000
		return time.UnixMilli(clock)
	}
	return svc
}

func TestService_AddAndLoad(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, account, domain.WatchlistToken, wbnbAddr))
	require.NoError(t, svc.Add(ctx, account, domain.WatchlistToken, cakeAddr))
	require.NoError(t, svc.Add(ctx, account, domain.WatchlistPool, poolAddr))

	data, err := svc.Load(ctx, account)
	require.NoError(t, err)

	require.Len(t, data.Tokens, 2)
	assert.Equal(t, "WBNB", data.Tokens[0].Symbol, "saved order is kept")
	assert.Equal(t, "CAKE", data.Tokens[1].Symbol)
	require.Len(t, data.Pools, 1)
	assert.False(t, data.PoolsLoading)
	assert.True(t, data.SavedTokens[cakeAddr])
	assert.True(t, data.SavedPools[poolAddr])
}

func TestService_UnresolvedPoolMarksLoading(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, account, domain.WatchlistPool, poolAddr))
	require.NoError(t, svc.Add(ctx, account, domain.WatchlistPool, gonePool))

	pools, loading, err := svc.Pools(ctx, account)
	require.NoError(t, err)
	assert.Len(t, pools, 1)
	assert.True(t, loading)
}

func TestService_Toggle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	saved, err := svc.Toggle(ctx, account, domain.WatchlistToken, cakeAddr)
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = svc.Toggle(ctx, account, domain.WatchlistToken, cakeAddr)
	require.NoError(t, err)
	assert.False(t, saved)

	addrs, err := svc.Addresses(ctx, account, domain.WatchlistToken)
	require.NoError(t, err)
	assert.Empty(t, addrs)
}

func TestService_NormalizesAddress(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, account, domain.WatchlistToken, "0x0E09FaBB73Bd3Ade0a17ECC321fD13a19e81cE82"))
	err := svc.Add(ctx, account, domain.WatchlistToken, cakeAddr)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestService_InvalidInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Add(ctx, "", domain.WatchlistToken, cakeAddr), storage.ErrInvalidInput)
	assert.ErrorIs(t, svc.Add(ctx, account, domain.WatchlistKind("nft"), cakeAddr), storage.ErrInvalidInput)
	assert.ErrorIs(t, svc.Add(ctx, account, domain.WatchlistToken, "not-an-address"), domain.ErrInvalidAddress)
	assert.ErrorIs(t, svc.Remove(ctx, account, domain.WatchlistToken, cakeAddr), storage.ErrNotFound)
}

func TestService_NoAccountIsEmpty(t *testing.T) {
	svc := newTestService(t)

	data, err := svc.Load(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, data.Tokens)
	assert.Empty(t, data.Pools)
	assert.False(t, data.PoolsLoading)
}

func TestService_NormalizesAccount(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Add(ctx, "0x8894E0a0c962CB723c1976a4421c95949bE2D4E3", domain.WatchlistToken, cakeAddr))

	addrs, err := svc.Addresses(ctx, account, domain.WatchlistToken)
	require.NoError(t, err)
	assert.Equal(t, []string{cakeAddr}, addrs)

	saved, err := svc.Toggle(ctx, "0X8894E0A0C962CB723C1976A4421C95949BE2D4E3", domain.WatchlistToken, cakeAddr)
	require.NoError(t, err)
	assert.False(t, saved, "both spellings name the same watchlist")

	_, err = svc.Addresses(ctx, "not-an-account", domain.WatchlistToken)
	assert.ErrorIs(t, err, domain.ErrInvalidAddress)
}
