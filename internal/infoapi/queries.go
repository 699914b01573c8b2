package infoapi

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"dex-info-search/internal/domain"
	"dex-info-search/internal/observability"
	"dex-info-search/internal/resolver"
)

const tokenFields = `
fragment TokenFields on Token {
  id
  symbol
  name
  totalValueLockedUSD
  tokenDayData(first: 1, orderBy: date, orderDirection: desc) { priceUSD volumeUSD }
}`

const poolFields = `
fragment PoolFields on Pool {
  id
  feeTier
  totalValueLockedUSD
  token0 { ...TokenFields }
  token1 { ...TokenFields }
  poolDayData(first: 7, orderBy: date, orderDirection: desc) { volumeUSD }
}`

const searchTokensQuery = `
query searchTokens($value: String!, $id: String!, $first: Int!) {
  asSymbol: tokens(first: $first, where: { symbol_contains_nocase: $value }, orderBy: totalValueLockedUSD, orderDirection: desc) { ...TokenFields }
  asName: tokens(first: $first, where: { name_contains_nocase: $value }, orderBy: totalValueLockedUSD, orderDirection: desc) { ...TokenFields }
  asAddress: tokens(first: $first, where: { id: $id }) { ...TokenFields }
}` + tokenFields

const searchPoolsQuery = `
query searchPools($tokens: [String!]!, $id: String!, $first: Int!) {
  as0: pools(first: $first, where: { token0_in: $tokens }, orderBy: totalValueLockedUSD, orderDirection: desc) { ...PoolFields }
  as1: pools(first: $first, where: { token1_in: $tokens }, orderBy: totalValueLockedUSD, orderDirection: desc) { ...PoolFields }
  asAddress: pools(first: $first, where: { id: $id }) { ...PoolFields }
}` + poolFields + tokenFields

const tokensByIDQuery = `
query tokensByID($ids: [String!]!) {
  tokens(first: 1000, where: { id_in: $ids }) { ...TokenFields }
}` + tokenFields

const poolsByIDQuery = `
query poolsByID($ids: [String!]!) {
  pools(first: 1000, where: { id_in: $ids }) { ...PoolFields }
}` + poolFields + tokenFields

const topTokensQuery = `
query topTokens($first: Int!) {
  tokens(first: $first, orderBy: totalValueLockedUSD, orderDirection: desc) { ...TokenFields }
}` + tokenFields

const topPoolsQuery = `
query topPools($first: Int!) {
  pools(first: $first, orderBy: totalValueLockedUSD, orderDirection: desc) { ...PoolFields }
}` + poolFields + tokenFields

// Subgraph entities. BigDecimal values arrive as JSON strings.

type tokenDay struct {
	PriceUSD  decimal.Decimal `json:"priceUSD"`
	VolumeUSD decimal.Decimal `json:"volumeUSD"`
}

type tokenEntity struct {
	ID                  string          `json:"id"`
	Symbol              string          `json:"symbol"`
	Name                string          `json:"name"`
	TotalValueLockedUSD decimal.Decimal `json:"totalValueLockedUSD"`
	TokenDayData        []tokenDay      `json:"tokenDayData"`
}

type poolDay struct {
	VolumeUSD decimal.Decimal `json:"volumeUSD"`
}

type poolEntity struct {
	ID                  string          `json:"id"`
	FeeTier             decimal.Decimal `json:"feeTier"`
	TotalValueLockedUSD decimal.Decimal `json:"totalValueLockedUSD"`
	Token0              tokenEntity     `json:"token0"`
	Token1              tokenEntity     `json:"token1"`
	PoolDayData         []poolDay       `json:"poolDayData"`
}

func (e tokenEntity) token() domain.Token {
	t := domain.Token{
		Address: normalize(e.ID),
		Symbol:  e.Symbol,
		Name:    e.Name,
		TVLUSD:  e.TotalValueLockedUSD.InexactFloat64(),
	}
	if len(e.TokenDayData) > 0 {
		t.PriceUSD = e.TokenDayData[0].PriceUSD.InexactFloat64()
		t.VolumeUSD = e.TokenDayData[0].VolumeUSD.InexactFloat64()
	}
	return t
}

// pool takes 24h volume from the latest day and 7d volume from the sum of up to seven days.
func (e poolEntity) pool() domain.Pool {
	p := domain.Pool{
		Address: normalize(e.ID),
		Token0:  e.Token0.token(),
		Token1:  e.Token1.token(),
		TVLUSD:  e.TotalValueLockedUSD.InexactFloat64(),
		FeeTier: int(e.FeeTier.IntPart()),
	}
	week := decimal.Zero
	for i, d := range e.PoolDayData {
		if i == 0 {
			p.VolumeUSD = d.VolumeUSD.InexactFloat64()
		}
		week = week.Add(d.VolumeUSD)
	}
	p.VolumeUSDWeek = week.InexactFloat64()
	return p
}

// mergeTokens concatenates groups, keeping the first occurrence of each address.
func mergeTokens(groups ...[]tokenEntity) []domain.Token {
	var out []domain.Token
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, e := range g {
			t := e.token()
			if _, ok := seen[t.Address]; ok {
				continue
			}
			seen[t.Address] = struct{}{}
			out = append(out, t)
		}
	}
	return out
}

func mergePools(groups ...[]poolEntity) []domain.Pool {
	var out []domain.Pool
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, e := range g {
			p := e.pool()
			if _, ok := seen[p.Address]; ok {
				continue
			}
			seen[p.Address] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

// Compile-time interface check.
var _ resolver.Resolver = (*Client)(nil)

// Resolve searches tokens by symbol, name or address, then pools containing
// any matched token or whose address equals the query.
func (c *Client) Resolve(ctx context.Context, query string) (_ *resolver.Result, err error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < resolver.MinSearchChars {
		return &resolver.Result{}, nil
	}
	defer func(start time.Time) {
		observability.RecordResolve("infoapi", time.Since(start).Seconds(), err)
	}(time.Now())

	tokens, err := c.SearchTokens(ctx, q)
	if err != nil {
		return nil, err
	}
	addrs := make([]string, len(tokens))
	for i, t := range tokens {
		addrs[i] = t.Address
	}
	pools, err := c.SearchPools(ctx, q, addrs)
	if err != nil {
		return nil, err
	}
	return &resolver.Result{Tokens: tokens, Pools: pools}, nil
}

// SearchTokens returns tokens whose symbol or name contains q, or whose address equals q.
func (c *Client) SearchTokens(ctx context.Context, q string) ([]domain.Token, error) {
	var data struct {
		AsSymbol  []tokenEntity `json:"asSymbol"`
		AsName    []tokenEntity `json:"asName"`
		AsAddress []tokenEntity `json:"asAddress"`
	}
	vars := map[string]interface{}{
		"value": q,
		"id":    normalize(q),
		"first": c.first,
	}
	if err := c.query(ctx, "search_tokens", searchTokensQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("search tokens: %w", err)
	}
	return mergeTokens(data.AsAddress, data.AsSymbol, data.AsName), nil
}

// SearchPools returns pools containing any of tokenAddrs, or whose address equals q.
func (c *Client) SearchPools(ctx context.Context, q string, tokenAddrs []string) ([]domain.Pool, error) {
	var data struct {
		As0       []poolEntity `json:"as0"`
		As1       []poolEntity `json:"as1"`
		AsAddress []poolEntity `json:"asAddress"`
	}
	if tokenAddrs == nil {
		tokenAddrs = []string{}
	}
	vars := map[string]interface{}{
		"tokens": tokenAddrs,
		"id":     normalize(q),
		"first":  c.first,
	}
	if err := c.query(ctx, "search_pools", searchPoolsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("search pools: %w", err)
	}
	return mergePools(data.AsAddress, data.As0, data.As1), nil
}

// TokensByAddress returns tokens in the order of addresses. Unknown addresses are skipped.
func (c *Client) TokensByAddress(ctx context.Context, addresses []string) ([]domain.Token, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var data struct {
		Tokens []tokenEntity `json:"tokens"`
	}
	ids := normalizeAll(addresses)
	if err := c.query(ctx, "tokens_by_id", tokensByIDQuery, map[string]interface{}{"ids": ids}, &data); err != nil {
		return nil, fmt.Errorf("tokens by address: %w", err)
	}
	byAddress := make(map[string]domain.Token, len(data.Tokens))
	for _, e := range data.Tokens {
		t := e.token()
		byAddress[t.Address] = t
	}
	out := make([]domain.Token, 0, len(ids))
	for _, id := range ids {
		if t, ok := byAddress[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// PoolsByAddress returns pools in the order of addresses. Unknown addresses are skipped.
func (c *Client) PoolsByAddress(ctx context.Context, addresses []string) ([]domain.Pool, error) {
	if len(addresses) == 0 {
		return nil, nil
	}
	var data struct {
		Pools []poolEntity `json:"pools"`
	}
	ids := normalizeAll(addresses)
	if err := c.query(ctx, "pools_by_id", poolsByIDQuery, map[string]interface{}{"ids": ids}, &data); err != nil {
		return nil, fmt.Errorf("pools by address: %w", err)
	}
	byAddress := make(map[string]domain.Pool, len(data.Pools))
	for _, e := range data.Pools {
		p := e.pool()
		byAddress[p.Address] = p
	}
	out := make([]domain.Pool, 0, len(ids))
	for _, id := range ids {
		if p, ok := byAddress[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// TopTokens returns the first tokens ordered by TVL.
func (c *Client) TopTokens(ctx context.Context, first int) ([]domain.Token, error) {
	var data struct {
		Tokens []tokenEntity `json:"tokens"`
	}
	if err := c.query(ctx, "top_tokens", topTokensQuery, map[string]interface{}{"first": first}, &data); err != nil {
		return nil, fmt.Errorf("top tokens: %w", err)
	}
	return mergeTokens(data.Tokens), nil
}

// TopPools returns the first pools ordered by TVL.
func (c *Client) TopPools(ctx context.Context, first int) ([]domain.Pool, error) {
	var data struct {
		Pools []poolEntity `json:"pools"`
	}
	if err := c.query(ctx, "top_pools", topPoolsQuery, map[string]interface{}{"first": first}, &data); err != nil {
		return nil, fmt.Errorf("top pools: %w", err)
	}
	return mergePools(data.Pools), nil
}

func normalizeAll(addresses []string) []string {
	out := make([]string, len(addresses))
	for i, a := range addresses {
		out[i] = normalize(a)
	}
	return out
}

// normalize falls back to the lower-cased input for strings that are not
// addresses, so they can still be sent as an id filter that matches nothing.
func normalize(s string) string {
	if norm, err := domain.NormalizeAddress(s); err == nil {
		return norm
	}
	return strings.ToLower(strings.TrimSpace(s))
}
