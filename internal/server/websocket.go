package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"dex-info-search/internal/dismiss"
	"dex-info-search/internal/domain"
	"dex-info-search/internal/search"
)

// WSConfig configures websocket sessions.
type WSConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is how long a connection may stay silent, pongs included.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// MaxMessageSize caps a single client message.
	MaxMessageSize int64
}

// DefaultWSConfig returns default WebSocket configuration.
func DefaultWSConfig() WSConfig {
	return WSConfig{
		PingInterval:   30 * time.Second,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 4096,
	}
}

// Client message types.
const (
	msgQuery    = "query"
	msgMode     = "mode"
	msgMore     = "more"
	msgFocus    = "focus"
	msgClick    = "click"
	msgActivate = "activate"
	msgSave     = "save"
)

// Server message types.
const (
	msgView     = "view"
	msgNavigate = "navigate"
	msgError    = "error"
)

// clientMessage is one input event from the browser.
type clientMessage struct {
	Type    string `json:"type"`
	Query   string `json:"query,omitempty"`
	Mode    string `json:"mode,omitempty"`
	List    string `json:"list,omitempty"`
	Target  string `json:"target,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Address string `json:"address,omitempty"`
}

// serverMessage is pushed to the browser.
type serverMessage struct {
	Type  string       `json:"type"`
	View  *search.View `json:"view,omitempty"`
	Path  string       `json:"path,omitempty"`
	Error string       `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// outbox buffers messages for the writer. Views are coalesced to the latest;
// navigations and errors are queued in order ahead of it.
type outbox struct {
	mu     sync.Mutex
	queued []serverMessage
	view   *search.View
	signal chan struct{}
}

func newOutbox() *outbox {
	return &outbox{signal: make(chan struct{}, 1)}
}

func (o *outbox) setView(v search.View) {
	o.mu.Lock()
	o.view = &v
	o.mu.Unlock()
	o.notify()
}

func (o *outbox) push(m serverMessage) {
	o.mu.Lock()
	o.queued = append(o.queued, m)
	o.mu.Unlock()
	o.notify()
}

func (o *outbox) notify() {
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

func (o *outbox) drain() []serverMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queued
	o.queued = nil
	if o.view != nil {
		out = append(out, serverMessage{Type: msgView, View: o.view})
		o.view = nil
	}
	return out
}

// handleWS runs one search session per connection.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r.URL.Query().Get("account"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	s.activeSessions.Add(1)
	s.servedSessions.Add(1)
	defer s.activeSessions.Add(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	out := newOutbox()
	opts := search.Options{
		Resolver:   s.opts.Resolver,
		Account:    account,
		Routes:     s.opts.Routes,
		Overrides:  s.opts.Overrides,
		Debounce:   s.opts.Debounce,
		MinChars:   s.opts.MinChars,
		PageStart:  s.opts.PageStart,
		PageStep:   s.opts.PageStep,
		OnRender:   out.setView,
		OnNavigate: func(path string) { out.push(serverMessage{Type: msgNavigate, Path: path}) },
		Logger:     s.logger,
	}
	if s.opts.Watchlist != nil {
		opts.Watchlist = s.opts.Watchlist
	}
	session := search.NewSession(opts)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		session.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		defer cancel()
		// Closing unblocks the reader when the writer fails first.
		defer conn.Close()
		s.writeLoop(ctx, conn, out)
	}()

	s.readLoop(ctx, conn, session, out)
	cancel()
	wg.Wait()
}

// readLoop decodes client messages into session input until the connection fails.
func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn, session *search.Session, out *outbox) {
	cfg := s.opts.WS
	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	})

	for ctx.Err() == nil {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Printf("websocket read: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			out.push(serverMessage{Type: msgError, Error: "malformed message"})
			continue
		}
		if err := dispatch(session, msg); err != nil {
			out.push(serverMessage{Type: msgError, Error: err.Error()})
		}
	}
}

func dispatch(session *search.Session, msg clientMessage) error {
	switch msg.Type {
	case msgQuery:
		return session.SetQuery(msg.Query)
	case msgMode:
		return session.SetMode(search.ParseMode(msg.Mode))
	case msgMore:
		list := search.List(msg.List)
		if list != search.ListTokens && list != search.ListPools {
			return fmt.Errorf("unknown list %q", msg.List)
		}
		return session.ShowMore(list)
	case msgFocus:
		return session.Focus()
	case msgClick:
		return session.Click(dismiss.ParseTarget(msg.Target))
	case msgActivate, msgSave:
		kind := domain.WatchlistKind(msg.Kind)
		if !kind.IsValid() {
			return fmt.Errorf("unknown kind %q", msg.Kind)
		}
		if msg.Type == msgSave {
			return session.ToggleSaved(kind, msg.Address)
		}
		return session.Activate(kind, msg.Address)
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// writeLoop is the only writer on conn. It sends queued messages and pings.
func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, out *outbox) {
	cfg := s.opts.WS
	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-out.signal:
			for _, msg := range out.drain() {
				conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
				if err := conn.WriteJSON(msg); err != nil {
					s.logger.Printf("websocket write: %v", err)
					return
				}
			}
		}
	}
}
