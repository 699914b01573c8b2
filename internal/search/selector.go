// Package search implements the incremental search view: debounced query,
// result selection, pagination and message slots.
package search

import (
	"sort"
	"strings"

	"dex-info-search/internal/domain"
)

// Mode selects where listed items come from.
type Mode int

const (
	// ModeSearch lists fetched results ordered by volume.
	ModeSearch Mode = iota
	// ModeWatchlist lists saved items filtered by the raw query.
	ModeWatchlist
)

// String returns the wire name of the mode.
func (m Mode) String() string {
	if m == ModeWatchlist {
		return "watchlist"
	}
	return "search"
}

// ParseMode maps a wire name to a Mode. Unknown names are ModeSearch.
func ParseMode(s string) Mode {
	if s == "watchlist" {
		return ModeWatchlist
	}
	return ModeSearch
}

// SelectTokens returns the tokens to list. Search mode orders fetched by
// 24h volume descending, keeping fetch order for ties. Watchlist mode keeps
// saved tokens matching query, in saved order. Inputs are not modified.
func SelectTokens(mode Mode, fetched, saved []domain.Token, query string) []domain.Token {
	if mode == ModeWatchlist {
		q := strings.ToLower(query)
		out := make([]domain.Token, 0, len(saved))
		for _, t := range saved {
			if TokenMatches(t, q) {
				out = append(out, t)
			}
		}
		return out
	}

	out := append([]domain.Token(nil), fetched...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VolumeUSD > out[j].VolumeUSD
	})
	return out
}

// SelectPools is SelectTokens for pools.
func SelectPools(mode Mode, fetched, saved []domain.Pool, query string) []domain.Pool {
	if mode == ModeWatchlist {
		q := strings.ToLower(query)
		out := make([]domain.Pool, 0, len(saved))
		for _, p := range saved {
			if PoolMatches(p, q) {
				out = append(out, p)
			}
		}
		return out
	}

	out := append([]domain.Pool(nil), fetched...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VolumeUSD > out[j].VolumeUSD
	})
	return out
}

// TokenMatches reports whether the token's address, symbol or name contains
// lowered, which must already be lower case.
func TokenMatches(t domain.Token, lowered string) bool {
	return strings.Contains(strings.ToLower(t.Address), lowered) ||
		strings.Contains(strings.ToLower(t.Symbol), lowered) ||
		strings.Contains(strings.ToLower(t.Name), lowered)
}

// PoolMatches reports whether the pool address or either token matches lowered.
func PoolMatches(p domain.Pool, lowered string) bool {
	return strings.Contains(strings.ToLower(p.Address), lowered) ||
		TokenMatches(p.Token0, lowered) ||
		TokenMatches(p.Token1, lowered)
}
