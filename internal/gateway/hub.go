package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/joaaoazul/hypermint/internal/chart"
	"github.com/joaaoazul/hypermint/internal/metrics"
	"github.com/joaaoazul/hypermint/internal/model"
)

var (
	// ErrHubClosed is returned by Serve after Close.
	ErrHubClosed = errors.New("hub closed")
	// ErrNoSymbolList is returned by Symbols when the feed cannot enumerate.
	ErrNoSymbolList = errors.New("feed does not list symbols")
)

const defaultLoadTimeout = 5 * time.Second

// Options configures a Hub.
type Options struct {
	Source  model.CandleSource
	Watcher model.CandleWatcher // optional; nil disables live reloads

	// Engine is the template for every session's chart engine. Sink and
	// Observer are set per session.
	Engine chart.Options

	// Active is the indicator set used when a client does not ask for one.
	Active []string

	FeedName    string
	LoadTimeout time.Duration
	Metrics     *metrics.Metrics
	Health      *metrics.HealthStatus
}

// Hub owns the live chart sessions and feeds them candle snapshots.
type Hub struct {
	opts Options

	ctx  context.Context
	stop context.CancelFunc

	mu       sync.RWMutex
	sessions map[string]map[*Session]struct{} // symbol -> sessions
	closed   bool
}

// NewHub creates a hub with no sessions.
func NewHub(opts Options) *Hub {
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.FeedName == "" {
		opts.FeedName = "unknown"
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Hub{
		opts:     opts,
		ctx:      ctx,
		stop:     stop,
		sessions: make(map[string]map[*Session]struct{}),
	}
}

// Symbols lists the symbols the feed holds candles for.
func (h *Hub) Symbols(ctx context.Context) ([]string, error) {
	lister, ok := h.opts.Source.(model.SymbolLister)
	if !ok {
		return nil, ErrNoSymbolList
	}
	ctx, cancel := context.WithTimeout(ctx, h.opts.LoadTimeout)
	defer cancel()
	return lister.Symbols(ctx)
}

// DefaultActive returns the indicator set used when a client names none.
func (h *Hub) DefaultActive() []string {
	out := make([]string, len(h.opts.Active))
	copy(out, h.opts.Active)
	return out
}

// Load reads a symbol's snapshot from the feed.
func (h *Hub) Load(ctx context.Context, symbol string) ([]model.Candle, error) {
	ctx, cancel := context.WithTimeout(ctx, h.opts.LoadTimeout)
	defer cancel()

	start := time.Now()
	candles, err := h.opts.Source.LoadCandles(ctx, symbol)
	if h.opts.Metrics != nil {
		h.opts.Metrics.FeedLoadDur.WithLabelValues(h.opts.FeedName).Observe(time.Since(start).Seconds())
	}
	if h.opts.Health != nil {
		h.opts.Health.SetFeedOK(err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", symbol, err)
	}
	return candles, nil
}

// Serve starts a session for conn and returns immediately. The session ends
// when the peer disconnects or the hub is closed.
func (h *Hub) Serve(conn *websocket.Conn, symbol string, active []string, candles []model.Candle) (*Session, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	ctx, cancel := context.WithCancel(h.ctx)
	s := newSession(ctx, uuid.NewString(), symbol, active, candles, h.opts.Engine, h.opts.Metrics)
	if h.sessions[symbol] == nil {
		h.sessions[symbol] = make(map[*Session]struct{})
	}
	h.sessions[symbol][s] = struct{}{}
	h.mu.Unlock()

	h.track(1)
	s.log.Info("ws client connected", slog.Int("candles", len(candles)), slog.Any("indicators", active))

	client := &Client{conn: conn, session: s, cancel: cancel, log: s.log}
	go s.run(ctx)
	go client.writePump()
	go client.readPump()
	go func() {
		<-s.Done()
		cancel()
		h.remove(s)
	}()
	return s, nil
}

func (h *Hub) remove(s *Session) {
	h.mu.Lock()
	if set := h.sessions[s.Symbol]; set != nil {
		delete(set, s)
		if len(set) == 0 {
			delete(h.sessions, s.Symbol)
		}
	}
	h.mu.Unlock()
	h.track(-1)
}

func (h *Hub) track(delta int) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.ActiveSessions.Add(float64(delta))
	}
	if h.opts.Health != nil {
		h.opts.Health.AddSessions(delta)
	}
}

// Reload loads a fresh snapshot for symbol and hands it to every session
// charting it. Symbols with no sessions are not loaded.
func (h *Hub) Reload(ctx context.Context, symbol string) error {
	targets := h.sessionsFor(symbol)
	if len(targets) == 0 {
		return nil
	}
	candles, err := h.Load(ctx, symbol)
	if err != nil {
		return err
	}
	for _, s := range targets {
		s.Replace(candles)
	}
	slog.Debug("snapshot reloaded",
		slog.String("symbol", symbol),
		slog.Int("sessions", len(targets)),
		slog.Int("candles", len(candles)),
	)
	return nil
}

func (h *Hub) sessionsFor(symbol string) []*Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Session, 0, len(h.sessions[symbol]))
	for s := range h.sessions[symbol] {
		out = append(out, s)
	}
	return out
}

// Run follows the feed's update notifications. Blocks until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	if h.opts.Watcher == nil {
		<-ctx.Done()
		return nil
	}
	err := h.opts.Watcher.WatchCandles(ctx, func(symbol string) {
		if err := h.Reload(ctx, symbol); err != nil {
			slog.Warn("reload failed", slog.String("symbol", symbol), slog.Any("error", err))
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Render builds a chart once, without a live session, and returns its panes.
func (h *Hub) Render(ctx context.Context, symbol string, active []string, width int) ([]model.PaneDescriptor, error) {
	candles, err := h.Load(ctx, symbol)
	if err != nil {
		return nil, err
	}

	opts := h.opts.Engine
	opts.Sink = nil
	opts.Observer = nil
	if h.opts.Metrics != nil {
		opts.Observer = h.opts.Metrics
	}
	engine := chart.New(opts)
	defer engine.Close()

	if width > 0 {
		engine.Resize(width)
	}
	if _, err := engine.Rebuild(candles, active); err != nil {
		return nil, err
	}
	panes := engine.Panes()
	if panes == nil {
		panes = []model.PaneDescriptor{}
	}
	return panes, nil
}

// SessionCount returns the number of live sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.sessions {
		n += len(set)
	}
	return n
}

// Close ends every session and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.stop()
}
