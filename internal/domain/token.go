package domain

// TokenInfo is the catalog entry for a token.
// Corresponds to tokens table in PostgreSQL.
type TokenInfo struct {
	Address   string // normalized address (PK)
	Symbol    string // ticker symbol
	Name      string // display name
	UpdatedAt int64  // last catalog refresh (ms)
}

// TokenStats is an analytics snapshot for a token.
// Corresponds to token_snapshots table in ClickHouse.
type TokenStats struct {
	Address     string  // normalized token address
	TimestampMs int64   // snapshot time (ms)
	PriceUSD    float64 // spot price in USD
	VolumeUSD   float64 // 24h volume in USD
	TVLUSD      float64 // total value locked in USD
}

// Token is a fully resolved token record as displayed in search results.
// Immutable once fetched; replaced wholesale on re-fetch.
type Token struct {
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	PriceUSD  float64 `json:"priceUSD"`
	VolumeUSD float64 `json:"volumeUSD"`
	TVLUSD    float64 `json:"tvlUSD"`
}

// NewToken joins catalog info with the latest stats. Missing stats yield zero values.
func NewToken(info *TokenInfo, stats *TokenStats) Token {
	t := Token{
		Address: info.Address,
		Symbol:  info.Symbol,
		Name:    info.Name,
	}
	if stats != nil {
		t.PriceUSD = stats.PriceUSD
		t.VolumeUSD = stats.VolumeUSD
		t.TVLUSD = stats.TVLUSD
	}
	return t
}
