package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dex-info-search/internal/domain"
)

func TestRoutes(t *testing.T) {
	r := Routes{}
	assert.Equal(t, "/info/v3/tokens/0xabc", r.TokenPath("0xabc"))
	assert.Equal(t, "/info/v3/pairs/0xdef", r.PoolPath("0xdef"))

	r = Routes{InfoPath: "info/v3", ChainPath: "/eth", StableSwap: true}
	assert.Equal(t, "/info/v3/eth/tokens/0xabc?type=stableSwap", r.TokenPath("0xabc"))
	assert.Equal(t, "/info/v3/eth/pairs/0xdef?type=stableSwap", r.PoolPath("0xdef"))
}

func TestRenderer_Rows(t *testing.T) {
	r := Renderer{
		Overrides: Overrides{
			Names:   map[string]string{"0xwbnb": "BNB"},
			Symbols: map[string]string{"0xwbnb": "BNB"},
		},
	}

	cake := domain.Token{Address: "0xcake", Symbol: "CAKE", Name: "PancakeSwap Token", PriceUSD: 2.5, VolumeUSD: 1500000, TVLUSD: 0}
	wbnb := domain.Token{Address: "0xwbnb", Symbol: "WBNB", Name: "Wrapped BNB"}

	row := r.TokenRow(cake, true)
	assert.Equal(t, "PancakeSwap Token (CAKE)", row.Label)
	assert.Equal(t, "$2.5", row.Price)
	assert.Equal(t, "$1.5M", row.Volume)
	assert.Equal(t, "$0", row.TVL)
	assert.Equal(t, "/info/v3/tokens/0xcake", row.Path)
	assert.True(t, row.Saved)

	assert.Equal(t, "BNB (BNB)", r.TokenRow(wbnb, false).Label)

	pool := r.PoolRow(domain.Pool{Address: "0xpool", Token0: cake, Token1: wbnb, FeeTier: 2500}, false)
	assert.Equal(t, "CAKE / BNB", pool.Label)
	assert.Equal(t, "0.25%", pool.FeeTier)
	assert.Equal(t, "/info/v3/pairs/0xpool", pool.Path)
}

func TestRenderer_ListPrefix(t *testing.T) {
	r := Renderer{}
	tokens := make([]domain.Token, 5)
	p := NewPager(3, 5)

	list := r.TokenList(tokens, &p, MessageNone, nil)
	require.Len(t, list.Rows, 3)
	assert.Equal(t, 5, list.Total)
	assert.True(t, list.ShowMore)

	p.Advance(len(tokens))
	list = r.TokenList(tokens, &p, MessageNone, nil)
	assert.Len(t, list.Rows, 5)
	assert.False(t, list.ShowMore)

	empty := r.PoolList(nil, &p, MessageNoResults, nil)
	assert.Empty(t, empty.Rows)
	assert.Equal(t, "no-results", empty.Message)
	assert.Equal(t, "No results", empty.MessageText)
}
