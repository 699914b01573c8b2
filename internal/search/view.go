package search

import (
	"dex-info-search/internal/domain"
)

// Overrides replace catalog names and symbols per token address.
type Overrides struct {
	Names   map[string]string
	Symbols map[string]string
}

func (o Overrides) name(t domain.Token) string {
	if n, ok := o.Names[t.Address]; ok {
		return n
	}
	return t.Name
}

func (o Overrides) symbol(t domain.Token) string {
	if s, ok := o.Symbols[t.Address]; ok {
		return s
	}
	return t.Symbol
}

// TokenRow is one rendered token result.
type TokenRow struct {
	Address string `json:"address"`
	Label   string `json:"label"`
	Price   string `json:"price"`
	Volume  string `json:"volume24h"`
	TVL     string `json:"liquidity"`
	Path    string `json:"path"`
	Saved   bool   `json:"saved"`
}

// PoolRow is one rendered pool result.
type PoolRow struct {
	Address    string `json:"address"`
	Label      string `json:"label"`
	FeeTier    string `json:"feeTier"`
	Volume     string `json:"volume24h"`
	VolumeWeek string `json:"volume7d"`
	TVL        string `json:"liquidity"`
	Path       string `json:"path"`
	Saved      bool   `json:"saved"`
}

// TokenList is the visible part of the token results.
type TokenList struct {
	Rows        []TokenRow `json:"rows"`
	Total       int        `json:"total"`
	ShowMore    bool       `json:"showMore"`
	Message     string     `json:"message,omitempty"`
	MessageText string     `json:"messageText,omitempty"`
}

// PoolList is the visible part of the pool results.
type PoolList struct {
	Rows        []PoolRow `json:"rows"`
	Total       int       `json:"total"`
	ShowMore    bool      `json:"showMore"`
	Message     string    `json:"message,omitempty"`
	MessageText string    `json:"messageText,omitempty"`
}

// View is everything a client needs to draw the search menu.
type View struct {
	Query     string    `json:"query"`
	Debounced string    `json:"debounced"`
	Mode      string    `json:"mode"`
	MenuOpen  bool      `json:"menuOpen"`
	State     string    `json:"state"`
	Error     string    `json:"error,omitempty"`
	Tokens    TokenList `json:"tokens"`
	Pools     PoolList  `json:"pools"`
}

// Renderer turns selected records into rows.
type Renderer struct {
	Routes    Routes
	Overrides Overrides
}

// TokenRow renders t.
func (r Renderer) TokenRow(t domain.Token, saved bool) TokenRow {
	return TokenRow{
		Address: t.Address,
		Label:   r.Overrides.name(t) + " (" + r.Overrides.symbol(t) + ")",
		Price:   domain.FormatUSD(t.PriceUSD),
		Volume:  domain.FormatUSD(t.VolumeUSD),
		TVL:     domain.FormatUSD(t.TVLUSD),
		Path:    r.Routes.TokenPath(t.Address),
		Saved:   saved,
	}
}

// PoolRow renders p.
func (r Renderer) PoolRow(p domain.Pool, saved bool) PoolRow {
	return PoolRow{
		Address:    p.Address,
		Label:      r.Overrides.symbol(p.Token0) + " / " + r.Overrides.symbol(p.Token1),
		FeeTier:    domain.FeeTierPercent(p.FeeTier),
		Volume:     domain.FormatUSD(p.VolumeUSD),
		VolumeWeek: domain.FormatUSD(p.VolumeUSDWeek),
		TVL:        domain.FormatUSD(p.TVLUSD),
		Path:       r.Routes.PoolPath(p.Address),
		Saved:      saved,
	}
}

// TokenList renders the visible prefix of tokens with its message slot.
func (r Renderer) TokenList(tokens []domain.Token, pager *Pager, msg Message, saved map[string]bool) TokenList {
	shown := pager.Shown(len(tokens))
	list := TokenList{
		Rows:        make([]TokenRow, 0, shown),
		Total:       len(tokens),
		ShowMore:    pager.HasMore(len(tokens)),
		Message:     msg.String(),
		MessageText: msg.Text(),
	}
	for _, t := range tokens[:shown] {
		list.Rows = append(list.Rows, r.TokenRow(t, saved[t.Address]))
	}
	return list
}

// PoolList renders the visible prefix of pools with its message slot.
func (r Renderer) PoolList(pools []domain.Pool, pager *Pager, msg Message, saved map[string]bool) PoolList {
	shown := pager.Shown(len(pools))
	list := PoolList{
		Rows:        make([]PoolRow, 0, shown),
		Total:       len(pools),
		ShowMore:    pager.HasMore(len(pools)),
		Message:     msg.String(),
		MessageText: msg.Text(),
	}
	for _, p := range pools[:shown] {
		list.Rows = append(list.Rows, r.PoolRow(p, saved[p.Address]))
	}
	return list
}
