package domain

// WatchlistKind distinguishes saved tokens from saved pools.
type WatchlistKind string

const (
	WatchlistToken WatchlistKind = "token"
	WatchlistPool  WatchlistKind = "pool"
)

// IsValid reports whether k is a known kind.
func (k WatchlistKind) IsValid() bool {
	return k == WatchlistToken || k == WatchlistPool
}

// WatchlistEntry is one saved address for an account.
// Corresponds to watchlist table in PostgreSQL.
type WatchlistEntry struct {
	Account string        // owner account (normalized)
	Kind    WatchlistKind // token | pool
	Address string        // saved token or pool address
	AddedAt int64         // insertion time (ms), defines list order
}

// PromptMark records that the anniversary prompt was shown to an account.
// Corresponds to anniversary_prompts table in PostgreSQL.
type PromptMark struct {
	Account  string // normalized account
	MarkedAt int64  // ms
}
