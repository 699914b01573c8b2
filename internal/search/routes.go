package search

// DefaultInfoPath is the path prefix of the info pages.
const DefaultInfoPath = "info/v3"

const stableSwapQuery = "?type=stableSwap"

// Routes builds navigation targets for result rows.
type Routes struct {
	InfoPath   string // e.g. "info/v3"
	ChainPath  string // e.g. "/eth"; empty for the default chain
	StableSwap bool   // append ?type=stableSwap
}

// TokenPath returns the token detail path.
func (r Routes) TokenPath(address string) string {
	return r.path("tokens", address)
}

// PoolPath returns the pair detail path.
func (r Routes) PoolPath(address string) string {
	return r.path("pairs", address)
}

func (r Routes) path(kind, address string) string {
	infoPath := r.InfoPath
	if infoPath == "" {
		infoPath = DefaultInfoPath
	}
	p := "/" + infoPath + r.ChainPath + "/" + kind + "/" + address
	if r.StableSwap {
		p += stableSwapQuery
	}
	return p
}
