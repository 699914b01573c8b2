package search

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"dex-info-search/internal/resolver"
)

func TestListMessage(t *testing.T) {
	tests := []struct {
		name string
		in   SlotInput
		want Message
	}{
		{"loading with query", SlotInput{Mode: ModeSearch, Debounced: "cake", Loading: true}, MessageLoading},
		{"loading without query", SlotInput{Mode: ModeSearch, Debounced: "", Loading: true}, MessageSearchHint},
		{"no results", SlotInput{Mode: ModeSearch, Debounced: "cake"}, MessageNoResults},
		{"results", SlotInput{Mode: ModeSearch, Debounced: "cake", Items: 2}, MessageNone},
		{"short query", SlotInput{Mode: ModeSearch, Debounced: "c"}, MessageSearchHint},
		{"empty query", SlotInput{Mode: ModeSearch}, MessageSearchHint},
		{"errored hides no results", SlotInput{Mode: ModeSearch, Debounced: "cake", Errored: true}, MessageNone},
		{"watchlist empty", SlotInput{Mode: ModeWatchlist, Debounced: "cake"}, MessageWatchlistEmpty},
		{"watchlist empty no query", SlotInput{Mode: ModeWatchlist}, MessageWatchlistEmpty},
		{"watchlist items", SlotInput{Mode: ModeWatchlist, Items: 1}, MessageNone},
		{"watchlist loading", SlotInput{Mode: ModeWatchlist, Debounced: "cake", Loading: true}, MessageLoading},
		{"watchlist loading no query", SlotInput{Mode: ModeWatchlist, Loading: true}, MessageNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			in.MinChars = resolver.MinSearchChars
			assert.Equal(t, tt.want, ListMessage(in))
		})
	}
}

func TestMessageText(t *testing.T) {
	assert.Equal(t, "No results", MessageNoResults.Text())
	assert.Equal(t, "Saved tokens will appear here", MessageWatchlistEmpty.Text())
	assert.Equal(t, "Search liquidity pairs or tokens", MessageSearchHint.Text())
	assert.Empty(t, MessageLoading.Text())
	assert.Equal(t, "no-results", MessageNoResults.String())
	assert.Empty(t, MessageNone.String())
}

func TestFetchState(t *testing.T) {
	assert.Equal(t, StateIdle, FetchState(resolver.Snapshot{}))
	assert.Equal(t, StatePending, FetchState(resolver.Snapshot{Query: "cake", Loading: true}))
	assert.Equal(t, StateReady, FetchState(resolver.Snapshot{Query: "cake", Result: &resolver.Result{}}))
	assert.Equal(t, StateErrored, FetchState(resolver.Snapshot{Query: "cake", Err: errors.New("x")}))
	assert.Equal(t, "errored", StateErrored.String())
}
