package resolver

import (
	"context"
	"sync"
)

// Snapshot is the fetch state for the current query.
type Snapshot struct {
	Query   string  // current debounced query
	Result  *Result // last resolved data; nil until something resolved
	Loading bool    // the fetch for Query has not resolved yet
	Err     error   // error of the last resolution
	Version uint64  // increases with every change
}

// Tracker runs one fetch per query and reports state changes.
// Fetches are never cancelled: whichever resolves last replaces the data,
// but Loading only clears when the fetch for the current query resolves.
type Tracker struct {
	ctx      context.Context
	resolver Resolver
	onChange func(Snapshot)

	mu   sync.Mutex
	snap Snapshot
}

// NewTracker creates a Tracker. onChange is called from the caller of
// SetQuery and from fetch goroutines; receivers order updates by Version.
func NewTracker(ctx context.Context, r Resolver, onChange func(Snapshot)) *Tracker {
	if onChange == nil {
		onChange = func(Snapshot) {}
	}
	return &Tracker{ctx: ctx, resolver: r, onChange: onChange}
}

// SetQuery switches to query. An empty query is idle and fetches nothing.
func (t *Tracker) SetQuery(query string) {
	t.mu.Lock()
	t.snap.Version++
	t.snap.Query = query
	t.snap.Err = nil
	if query == "" {
		t.snap.Loading = false
		t.snap.Result = nil
		snap := t.snap
		t.mu.Unlock()
		t.onChange(snap)
		return
	}
	t.snap.Loading = true
	snap := t.snap
	t.mu.Unlock()

	t.onChange(snap)
	go t.fetch(query)
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

func (t *Tracker) fetch(query string) {
	res, err := t.resolver.Resolve(t.ctx, query)
	if t.ctx.Err() != nil {
		return
	}

	t.mu.Lock()
	if t.snap.Query == "" {
		// Cleared while in flight.
		t.mu.Unlock()
		return
	}
	t.snap.Version++
	if err != nil {
		t.snap.Err = err
		t.snap.Result = &Result{}
	} else {
		if res == nil {
			res = &Result{}
		}
		t.snap.Err = nil
		t.snap.Result = res
	}
	if query == t.snap.Query {
		t.snap.Loading = false
	}
	snap := t.snap
	t.mu.Unlock()

	t.onChange(snap)
}
