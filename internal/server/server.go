// Package server exposes search sessions over websocket and the watchlist
// and anniversary prompt over JSON HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"dex-info-search/internal/achievement"
	"dex-info-search/internal/domain"
	"dex-info-search/internal/observability"
	"dex-info-search/internal/resolver"
	"dex-info-search/internal/search"
	"dex-info-search/internal/storage"
	"dex-info-search/internal/watchlist"
)

// Options configures a Server.
type Options struct {
	Resolver          resolver.Resolver
	Watchlist         *watchlist.Service  // optional
	Prompts           storage.PromptStore // optional
	Contract          achievement.Contract
	ExcludedLocations []string
	Routes            search.Routes
	Overrides         search.Overrides
	Debounce          time.Duration
	MinChars          int
	PageStart         int
	PageStep          int
	WS                WSConfig
	Logger            *log.Logger
}

// Server serves the HTTP and websocket API.
type Server struct {
	opts    Options
	logger  *log.Logger
	started time.Time

	activeSessions atomic.Int64
	servedSessions atomic.Int64
	searches       atomic.Int64
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.WS == (WSConfig{}) {
		opts.WS = DefaultWSConfig()
	}
	return &Server{
		opts:    opts,
		logger:  opts.Logger,
		started: time.Now(),
	}
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("/metrics", observability.Handler())

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /api/search", s.handleSearch)
	mux.HandleFunc("GET /api/watchlist", s.handleWatchlistGet)
	mux.HandleFunc("POST /api/watchlist", s.handleWatchlistAdd)
	mux.HandleFunc("DELETE /api/watchlist", s.handleWatchlistRemove)
	mux.HandleFunc("GET /api/anniversary", s.handleAnniversary)
	mux.HandleFunc("POST /api/anniversary/dismiss", s.handleAnniversaryDismiss)
	mux.HandleFunc("GET /ws/search", s.handleWS)

	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting HTTP server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Printf("HTTP shutdown: %v", err)
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status         string    `json:"status"`
	Uptime         string    `json:"uptime"`
	StartedAt      time.Time `json:"started_at"`
	ActiveSessions int64     `json:"active_sessions"`
	ServedSessions int64     `json:"served_sessions"`
	Searches       int64     `json:"searches"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:         "running",
		Uptime:         time.Since(s.started).Round(time.Second).String(),
		StartedAt:      s.started,
		ActiveSessions: s.activeSessions.Load(),
		ServedSessions: s.servedSessions.Load(),
		Searches:       s.searches.Load(),
	})
}

// SearchResponse is the JSON response for /api/search.
type SearchResponse struct {
	Query  string           `json:"query"`
	Error  string           `json:"error,omitempty"`
	Tokens search.TokenList `json:"tokens"`
	Pools  search.PoolList  `json:"pools"`
}

// handleSearch resolves q once and renders every result row.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.searches.Add(1)
	q := r.URL.Query().Get("q")
	account, err := accountParam(r.URL.Query().Get("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	result, resolveErr := s.opts.Resolver.Resolve(r.Context(), q)
	if resolveErr != nil {
		s.logger.Printf("search %q: %v", q, resolveErr)
		result = &resolver.Result{}
	}

	saved := &watchlist.Data{}
	if account != "" && s.opts.Watchlist != nil {
		if data, err := s.opts.Watchlist.Load(r.Context(), account); err == nil {
			saved = data
		} else {
			s.logger.Printf("load watchlist %s: %v", account, err)
		}
	}

	tokens := search.SelectTokens(search.ModeSearch, result.Tokens, nil, q)
	pools := search.SelectPools(search.ModeSearch, result.Pools, nil, q)
	renderer := search.Renderer{Routes: s.opts.Routes, Overrides: s.opts.Overrides}
	slot := func(n int) search.Message {
		return search.ListMessage(search.SlotInput{
			Mode: search.ModeSearch, Debounced: q, Items: n,
			Errored: resolveErr != nil, MinChars: s.minChars(),
		})
	}
	tokenPager := search.NewPager(max(len(tokens), 1), s.opts.PageStep)
	poolPager := search.NewPager(max(len(pools), 1), s.opts.PageStep)

	resp := SearchResponse{
		Query:  q,
		Tokens: renderer.TokenList(tokens, &tokenPager, slot(len(tokens)), saved.SavedTokens),
		Pools:  renderer.PoolList(pools, &poolPager, slot(len(pools)), saved.SavedPools),
	}
	status := http.StatusOK
	if resolveErr != nil {
		resp.Error = search.ErrorBanner
		status = http.StatusBadGateway
	}
	writeJSON(w, status, resp)
}

func (s *Server) minChars() int {
	if s.opts.MinChars > 0 {
		return s.opts.MinChars
	}
	return resolver.MinSearchChars
}

// WatchlistResponse is the JSON response for GET /api/watchlist.
type WatchlistResponse struct {
	Account      string         `json:"account"`
	Tokens       []domain.Token `json:"tokens"`
	Pools        []domain.Pool  `json:"pools"`
	PoolsLoading bool           `json:"poolsLoading"`
}

// WatchlistRequest is the body of POST /api/watchlist.
type WatchlistRequest struct {
	Account string `json:"account"`
	Kind    string `json:"kind"`
	Address string `json:"address"`
}

func (s *Server) handleWatchlistGet(w http.ResponseWriter, r *http.Request) {
	if s.opts.Watchlist == nil {
		writeError(w, http.StatusNotImplemented, errors.New("watchlist disabled"))
		return
	}
	account, err := accountParam(r.URL.Query().Get("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	data, err := s.opts.Watchlist.Load(r.Context(), account)
	if err != nil {
		s.logger.Printf("load watchlist %s: %v", account, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, WatchlistResponse{
		Account:      account,
		Tokens:       nonNil(data.Tokens),
		Pools:        nonNil(data.Pools),
		PoolsLoading: data.PoolsLoading,
	})
}

func (s *Server) handleWatchlistAdd(w http.ResponseWriter, r *http.Request) {
	if s.opts.Watchlist == nil {
		writeError(w, http.StatusNotImplemented, errors.New("watchlist disabled"))
		return
	}
	var req WatchlistRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	account, err := accountParam(req.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.opts.Watchlist.Add(r.Context(), account, domain.WatchlistKind(req.Kind), req.Address)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) handleWatchlistRemove(w http.ResponseWriter, r *http.Request) {
	if s.opts.Watchlist == nil {
		writeError(w, http.StatusNotImplemented, errors.New("watchlist disabled"))
		return
	}
	q := r.URL.Query()
	account, err := accountParam(q.Get("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	err = s.opts.Watchlist.Remove(r.Context(), account, domain.WatchlistKind(q.Get("kind")), q.Get("address"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) newPrompt() *achievement.Prompt {
	return achievement.NewPrompt(achievement.Options{
		Contract:          s.opts.Contract,
		Marks:             s.opts.Prompts,
		ExcludedLocations: s.opts.ExcludedLocations,
		Logger:            s.logger,
	})
}

func (s *Server) handleAnniversary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var chainID int64
	if v := q.Get("chain"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		chainID = id
	}

	prompt := s.newPrompt()
	if _, err := prompt.SetPath(r.Context(), q.Get("path")); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	state, err := prompt.SetAccount(r.Context(), q.Get("account"), chainID)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, domain.ErrInvalidAddress) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// DismissRequest is the body of POST /api/anniversary/dismiss.
type DismissRequest struct {
	Account string `json:"account"`
}

func (s *Server) handleAnniversaryDismiss(w http.ResponseWriter, r *http.Request) {
	var req DismissRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Account == "" {
		writeError(w, http.StatusBadRequest, achievement.ErrNoAccount)
		return
	}

	prompt := s.newPrompt()
	// Chain 0 skips the eligibility read; only the mark matters here.
	if _, err := prompt.SetAccount(r.Context(), req.Account, 0); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := prompt.Dismiss(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// accountParam normalizes an optional account.
func accountParam(v string) (string, error) {
	if v == "" {
		return "", nil
	}
	return domain.NormalizeAddress(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidInput), errors.Is(err, domain.ErrInvalidAddress):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
