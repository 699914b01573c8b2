package search

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"dex-info-search/internal/debounce"
	"dex-info-search/internal/dismiss"
	"dex-info-search/internal/domain"
	"dex-info-search/internal/observability"
	"dex-info-search/internal/resolver"
	"dex-info-search/internal/watchlist"
)

// DefaultDebounce is the quiet window before a query is resolved.
const DefaultDebounce = 600 * time.Millisecond

// ErrSessionClosed is returned by input methods after Run returned.
var ErrSessionClosed = errors.New("session closed")

// List names a result list.
type List string

const (
	ListTokens List = "tokens"
	ListPools  List = "pools"
)

// Watchlist loads and edits the saved items of an account.
type Watchlist interface {
	Load(ctx context.Context, account string) (*watchlist.Data, error)
	Toggle(ctx context.Context, account string, kind domain.WatchlistKind, address string) (bool, error)
}

// Options configures a Session.
type Options struct {
	Resolver   resolver.Resolver
	Watchlist  Watchlist // optional
	Account    string
	Routes     Routes
	Overrides  Overrides
	Debounce   time.Duration // Default: 600ms
	MinChars   int           // Default: resolver.MinSearchChars
	PageStart  int           // Default: 3
	PageStep   int           // Default: 5
	OnRender   func(View)
	OnNavigate func(path string)
	Logger     *log.Logger
}

// Session is the search menu state of one client. All state is owned by
// the goroutine running Run; input methods only enqueue events.
type Session struct {
	resolver   resolver.Resolver
	watchlist  Watchlist
	account    string
	renderer   Renderer
	debounce   time.Duration
	minChars   int
	onRender   func(View)
	onNavigate func(string)
	logger     *log.Logger

	events  chan event
	fetches chan struct{} // tracker changed; coalesced
	done    chan struct{}

	// Watchlist edits and loads run one at a time; wlGen numbers the loads.
	wlMu  sync.Mutex
	wlGen uint64

	// Loop-owned state.
	ctx       context.Context
	debouncer *debounce.Debouncer[string]
	tracker   *resolver.Tracker
	hub       *dismiss.Hub
	raw       string
	debounced string
	mode      Mode
	menuOpen  bool
	tokens    Pager
	pools     Pager
	snap      resolver.Snapshot
	saved     *watchlist.Data // nil until loaded
	savedGen  uint64
}

type event interface{}

type (
	queryEvent     struct{ raw string }
	settledEvent   struct{ query string }
	modeEvent      struct{ mode Mode }
	moreEvent      struct{ list List }
	focusEvent     struct{}
	clickEvent     struct{ target dismiss.Target }
	activateEvent  struct {
		kind    domain.WatchlistKind
		address string
	}
	saveEvent struct {
		kind    domain.WatchlistKind
		address string
	}
	watchlistEvent struct {
		gen  uint64
		data *watchlist.Data
		err  error
	}
	viewEvent struct{ reply chan View }
)

// NewSession creates a Session. Call Run to start it.
func NewSession(opts Options) *Session {
	delay := opts.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	minChars := opts.MinChars
	if minChars <= 0 {
		minChars = resolver.MinSearchChars
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	onRender := opts.OnRender
	if onRender == nil {
		onRender = func(View) {}
	}
	onNavigate := opts.OnNavigate
	if onNavigate == nil {
		onNavigate = func(string) {}
	}

	return &Session{
		resolver:   opts.Resolver,
		watchlist:  opts.Watchlist,
		account:    opts.Account,
		renderer:   Renderer{Routes: opts.Routes, Overrides: opts.Overrides},
		debounce:   delay,
		minChars:   minChars,
		onRender:   onRender,
		onNavigate: onNavigate,
		logger:     logger,
		events:     make(chan event, 64),
		fetches:    make(chan struct{}, 1),
		done:       make(chan struct{}),
		hub:        dismiss.NewHub(),
		tokens:     NewPager(opts.PageStart, opts.PageStep),
		pools:      NewPager(opts.PageStart, opts.PageStep),
	}
}

// SetQuery records a keystroke.
func (s *Session) SetQuery(raw string) error { return s.post(queryEvent{raw: raw}) }

// SetMode switches between search and watchlist listing.
func (s *Session) SetMode(m Mode) error { return s.post(modeEvent{mode: m}) }

// ShowMore grows the visible part of list.
func (s *Session) ShowMore(list List) error { return s.post(moreEvent{list: list}) }

// Focus opens the menu.
func (s *Session) Focus() error { return s.post(focusEvent{}) }

// Click reports a pointer click anywhere in the document.
func (s *Session) Click(target dismiss.Target) error { return s.post(clickEvent{target: target}) }

// Activate opens the detail page of a listed token or pool.
func (s *Session) Activate(kind domain.WatchlistKind, address string) error {
	return s.post(activateEvent{kind: kind, address: address})
}

// ToggleSaved adds or removes an item from the account's watchlist.
func (s *Session) ToggleSaved(kind domain.WatchlistKind, address string) error {
	return s.post(saveEvent{kind: kind, address: address})
}

// View returns the current view.
func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.post(viewEvent{reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrSessionClosed
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) post(ev event) error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// Run processes events until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	observability.SessionOpened()
	defer observability.SessionClosed()
	defer close(s.done)

	s.ctx = ctx
	s.debouncer = debounce.New(s.debounce, func(q string) { s.deliver(ctx, settledEvent{query: q}) })
	s.tracker = resolver.NewTracker(ctx, s.resolver, func(resolver.Snapshot) {
		select {
		case s.fetches <- struct{}{}:
		default:
		}
	})
	defer s.debouncer.Stop()
	defer s.hub.Close()

	s.logger.Printf("session started (account=%q)", s.account)
	s.reloadWatchlist()
	s.render()

	for {
		select {
		case <-ctx.Done():
			s.logger.Println("session stopping...")
			return ctx.Err()
		case ev := <-s.events:
			s.handle(ev)
		case <-s.fetches:
			s.applySnapshot(s.tracker.Snapshot())
		}
	}
}

// deliver enqueues an event from a timer or fetch goroutine.
func (s *Session) deliver(ctx context.Context, ev event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}

func (s *Session) handle(ev event) {
	switch e := ev.(type) {
	case queryEvent:
		observability.RecordQueryReceived()
		s.raw = e.raw
		s.debouncer.Push(e.raw)
		s.render()

	case settledEvent:
		if e.query == s.debounced {
			return
		}
		observability.RecordDebouncedQuery()
		s.debounced = e.query
		s.tokens.Reset()
		s.pools.Reset()
		s.tracker.SetQuery(e.query)
		s.applySnapshot(s.tracker.Snapshot())

	case modeEvent:
		if e.mode == s.mode {
			return
		}
		s.mode = e.mode
		s.render()

	case moreEvent:
		observability.RecordShowMore(string(e.list))
		if e.list == ListPools {
			s.pools.Advance(len(s.selectedPools()))
		} else {
			s.tokens.Advance(len(s.selectedTokens()))
		}
		s.render()

	case focusEvent:
		if s.menuOpen {
			return
		}
		s.menuOpen = true
		s.hub.Acquire(s.dismissMenu)
		s.render()

	case clickEvent:
		// The hub runs dismissMenu synchronously on this goroutine.
		if s.hub.Click(e.target) {
			observability.RecordMenuDismissal()
			s.render()
		}

	case activateEvent:
		path := s.renderer.Routes.TokenPath(e.address)
		if e.kind == domain.WatchlistPool {
			path = s.renderer.Routes.PoolPath(e.address)
		}
		observability.RecordNavigation(string(e.kind))
		s.hub.Close()
		s.closeMenu()
		s.render()
		s.onNavigate(path)

	case saveEvent:
		s.toggleSaved(e.kind, e.address)

	case watchlistEvent:
		if e.gen <= s.savedGen {
			return
		}
		s.savedGen = e.gen
		if e.err != nil {
			s.logger.Printf("load watchlist: %v", e.err)
			s.saved = &watchlist.Data{}
		} else {
			s.saved = e.data
		}
		s.render()

	case viewEvent:
		e.reply <- s.view()
	}
}

func (s *Session) applySnapshot(snap resolver.Snapshot) {
	if snap.Version <= s.snap.Version {
		return
	}
	s.snap = snap
	s.render()
}

// dismissMenu handles an outside click.
func (s *Session) dismissMenu() {
	s.closeMenu()
}

func (s *Session) closeMenu() {
	s.menuOpen = false
	s.tokens.Reset()
	s.pools.Reset()
}

func (s *Session) reloadWatchlist() {
	if s.watchlist == nil {
		s.saved = &watchlist.Data{}
		return
	}
	ctx, account := s.ctx, s.account
	go func() {
		s.wlMu.Lock()
		ev := s.loadWatchlist(ctx, account)
		s.wlMu.Unlock()
		s.deliver(ctx, ev)
	}()
}

func (s *Session) toggleSaved(kind domain.WatchlistKind, address string) {
	if s.watchlist == nil {
		return
	}
	ctx, account := s.ctx, s.account
	go func() {
		s.wlMu.Lock()
		if _, err := s.watchlist.Toggle(ctx, account, kind, address); err != nil {
			s.logger.Printf("toggle watchlist %s %s: %v", kind, address, err)
		}
		ev := s.loadWatchlist(ctx, account)
		s.wlMu.Unlock()
		s.deliver(ctx, ev)
	}()
}

// loadWatchlist must be called with wlMu held. A later generation always
// reflects every edit made before it.
func (s *Session) loadWatchlist(ctx context.Context, account string) watchlistEvent {
	data, err := s.watchlist.Load(ctx, account)
	s.wlGen++
	return watchlistEvent{gen: s.wlGen, data: data, err: err}
}

func (s *Session) fetched() *resolver.Result {
	if s.snap.Result == nil {
		return &resolver.Result{}
	}
	return s.snap.Result
}

func (s *Session) savedData() *watchlist.Data {
	if s.saved == nil {
		return &watchlist.Data{}
	}
	return s.saved
}

func (s *Session) selectedTokens() []domain.Token {
	return SelectTokens(s.mode, s.fetched().Tokens, s.savedData().Tokens, s.raw)
}

func (s *Session) selectedPools() []domain.Pool {
	return SelectPools(s.mode, s.fetched().Pools, s.savedData().Pools, s.raw)
}

func (s *Session) view() View {
	tokens := s.selectedTokens()
	pools := s.selectedPools()
	saved := s.savedData()
	errored := s.snap.Err != nil

	tokensLoading := s.snap.Loading
	poolsLoading := s.snap.Loading
	if s.mode == ModeWatchlist {
		tokensLoading = s.saved == nil
		poolsLoading = s.saved == nil || saved.PoolsLoading
	}

	tokenMsg := ListMessage(SlotInput{
		Mode: s.mode, Debounced: s.debounced, Items: len(tokens),
		Loading: tokensLoading, Errored: errored, MinChars: s.minChars,
	})
	poolMsg := ListMessage(SlotInput{
		Mode: s.mode, Debounced: s.debounced, Items: len(pools),
		Loading: poolsLoading, Errored: errored, MinChars: s.minChars,
	})

	v := View{
		Query:     s.raw,
		Debounced: s.debounced,
		Mode:      s.mode.String(),
		MenuOpen:  s.menuOpen,
		State:     FetchState(s.snap).String(),
		Tokens:    s.renderer.TokenList(tokens, &s.tokens, tokenMsg, saved.SavedTokens),
		Pools:     s.renderer.PoolList(pools, &s.pools, poolMsg, saved.SavedPools),
	}
	if errored {
		v.Error = ErrorBanner
	}
	return v
}

func (s *Session) render() {
	s.onRender(s.view())
}
