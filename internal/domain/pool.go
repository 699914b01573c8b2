package domain

// PoolInfo is the catalog entry for a pool.
// Corresponds to pools table in PostgreSQL.
type PoolInfo struct {
	Address   string // normalized pool address (PK)
	Token0    string // token0 address (FK to tokens)
	Token1    string // token1 address (FK to tokens)
	FeeTier   int    // fee in hundredths of a bip: 100, 500, 2500, 10000
	UpdatedAt int64  // last catalog refresh (ms)
}

// PoolStats is an analytics snapshot for a pool.
// Corresponds to pool_snapshots table in ClickHouse.
type PoolStats struct {
	Address       string  // normalized pool address
	TimestampMs   int64   // snapshot time (ms)
	VolumeUSD     float64 // 24h volume in USD
	VolumeUSDWeek float64 // 7d volume in USD
	TVLUSD        float64 // total value locked in USD
}

// Pool is a fully resolved pool record as displayed in search results.
type Pool struct {
	Address       string  `json:"address"`
	Token0        Token   `json:"token0"`
	Token1        Token   `json:"token1"`
	VolumeUSD     float64 `json:"volumeUSD"`
	VolumeUSDWeek float64 `json:"volumeUSDWeek"`
	TVLUSD        float64 `json:"tvlUSD"`
	FeeTier       int     `json:"feeTier"`
}

// NewPool joins catalog info, both constituent tokens and the latest stats.
func NewPool(info *PoolInfo, token0, token1 Token, stats *PoolStats) Pool {
	p := Pool{
		Address: info.Address,
		Token0:  token0,
		Token1:  token1,
		FeeTier: info.FeeTier,
	}
	if stats != nil {
		p.VolumeUSD = stats.VolumeUSD
		p.VolumeUSDWeek = stats.VolumeUSDWeek
		p.TVLUSD = stats.TVLUSD
	}
	return p
}

// Supported fee tiers.
const (
	FeeTierLowest = 100
	FeeTierLow    = 500
	FeeTierMedium = 2500
	FeeTierHigh   = 10000
)
