package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-info-search/internal/domain"
)

func TestSelectTokens_SearchModeSortsByVolume(t *testing.T) {
	fetched := []domain.Token{
		{Address: "0xa", Symbol: "CAKE", VolumeUSD: 500},
		{Address: "0xb", Symbol: "SYRUP", VolumeUSD: 1000},
		{Address: "0xc", Symbol: "CAKE2", VolumeUSD: 500},
	}

	got := SelectTokens(ModeSearch, fetched, nil, "zzz")

	require.Len(t, got, 3, "search mode never filters")
	assert.Equal(t, "0xb", got[0].Address)
	assert.Equal(t, "0xa", got[1].Address, "ties keep fetch order")
	assert.Equal(t, "0xc", got[2].Address)

	// Input untouched
	assert.Equal(t, "0xa", fetched[0].Address)
}

func TestSelectTokens_WatchlistModeFiltersRawQuery(t *testing.T) {
	saved := []domain.Token{
		{Address: "0x0e09fabb", Symbol: "CAKE", Name: "PancakeSwap Token", VolumeUSD: 1},
		{Address: "0xbb4cdb9c", Symbol: "WBNB", Name: "Wrapped BNB", VolumeUSD: 100},
		{Address: "0x55d39832", Symbol: "USDT", Name: "Tether USD", VolumeUSD: 50},
	}

	got := SelectTokens(ModeWatchlist, nil, saved, "PanCake")
	require.Len(t, got, 1)
	assert.Equal(t, "CAKE", got[0].Symbol)

	got = SelectTokens(ModeWatchlist, nil, saved, "0XBB4")
	require.Len(t, got, 1)
	assert.Equal(t, "WBNB", got[0].Symbol)

	got = SelectTokens(ModeWatchlist, nil, saved, "")
	require.Len(t, got, 3)
	assert.Equal(t, "CAKE", got[0].Symbol, "watchlist order, no sort")

	for _, tok := range SelectTokens(ModeWatchlist, nil, saved, "b") {
		assert.True(t, TokenMatches(tok, "b"))
	}
}

func TestSelectPools_WatchlistMatchesEitherToken(t *testing.T) {
	saved := []domain.Pool{
		{Address: "0xp1", Token0: domain.Token{Symbol: "CAKE"}, Token1: domain.Token{Symbol: "WBNB"}},
		{Address: "0xp2", Token0: domain.Token{Symbol: "USDT"}, Token1: domain.Token{Symbol: "BUSD", Name: "Binance USD"}},
	}

	got := SelectPools(ModeWatchlist, nil, saved, "binance")
	require.Len(t, got, 1)
	assert.Equal(t, "0xp2", got[0].Address)

	got = SelectPools(ModeWatchlist, nil, saved, "0xP1")
	require.Len(t, got, 1)
	assert.Equal(t, "0xp1", got[0].Address)
}

func TestSelectPools_SearchModeSortsByVolume(t *testing.T) {
	fetched := []domain.Pool{
		{Address: "0xp1", VolumeUSD: 10},
		{Address: "0xp2", VolumeUSD: 30},
		{Address: "0xp3", VolumeUSD: 20},
	}

	got := SelectPools(ModeSearch, fetched, nil, "")
	assert.Equal(t, "0xp2", got[0].Address)
	assert.Equal(t, "0xp3", got[1].Address)
	assert.Equal(t, "0xp1", got[2].Address)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeWatchlist, ParseMode("watchlist"))
	assert.Equal(t, ModeSearch, ParseMode("search"))
	assert.Equal(t, ModeSearch, ParseMode(""))
	assert.Equal(t, "watchlist", ModeWatchlist.String())
}
