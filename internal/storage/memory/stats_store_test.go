package memory

import (
	"context"
	"errors"
	"testing"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/storage"
)

func TestTokenStatsStore_Latest(t *testing.T) {
	store := NewTokenStatsStore()
	ctx := context.Background()

	stats := []*domain.TokenStats{
		{Address: "0xa", TimestampMs: 1000, VolumeUSD: 10},
		{Address: "0xa", TimestampMs: 3000, VolumeUSD: 30},
		{Address: "0xa", TimestampMs: 2000, VolumeUSD: 20},
		{Address: "0xb", TimestampMs: 1000, VolumeUSD: 5},
	}
	if err := store.InsertBulk(ctx, stats); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	latest, err := store.Latest(ctx, []string{"0xa", "0xb", "0xc"})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if len(latest) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(latest))
	}
	if latest["0xa"].VolumeUSD != 30 {
		t.Errorf("expected latest volume 30, got %f", latest["0xa"].VolumeUSD)
	}
	if _, ok := latest["0xc"]; ok {
		t.Error("address without data must be absent")
	}
}

func TestTokenStatsStore_DuplicateFailsBatch(t *testing.T) {
	store := NewTokenStatsStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.TokenStats{
		{Address: "0xa", TimestampMs: 1000},
		{Address: "0xa", TimestampMs: 1000},
	})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	latest, _ := store.Latest(ctx, []string{"0xa"})
	if len(latest) != 0 {
		t.Error("failed batch must not insert anything")
	}
}

func TestPoolStatsStore_Latest(t *testing.T) {
	store := NewPoolStatsStore()
	ctx := context.Background()

	err := store.InsertBulk(ctx, []*domain.PoolStats{
		{Address: "0xp", TimestampMs: 1000, VolumeUSD: 1, VolumeUSDWeek: 7},
		{Address: "0xp", TimestampMs: 2000, VolumeUSD: 2, VolumeUSDWeek: 14},
	})
	if err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	latest, _ := store.Latest(ctx, []string{"0xp"})
	if latest["0xp"].VolumeUSDWeek != 14 {
		t.Errorf("expected latest week volume 14, got %f", latest["0xp"].VolumeUSDWeek)
	}

	err = store.InsertBulk(ctx, []*domain.PoolStats{{Address: "0xp", TimestampMs: 2000}})
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}
