package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/joaaoazul/hypermint/internal/chart"
	"github.com/joaaoazul/hypermint/internal/logger"
	"github.com/joaaoazul/hypermint/internal/metrics"
	"github.com/joaaoazul/hypermint/internal/model"
)

// event is one unit of work for a session loop: a client message, a rejected
// client frame, or a replacement candle snapshot.
type event struct {
	msg     *ClientMsg
	bad     error
	candles []model.Candle
}

// Session is one connected chart. Its loop goroutine is the only caller of the
// engine and the only writer to out, playing the role of a UI event loop.
type Session struct {
	ID     string
	Symbol string

	engine   *chart.Engine
	active   []string
	candles  []model.Candle
	building bool

	inbox   chan event
	out     chan []byte
	done    chan struct{}
	metrics *metrics.Metrics
	log     *slog.Logger
}

func newSession(ctx context.Context, id, symbol string, active []string, candles []model.Candle, opts chart.Options, m *metrics.Metrics) *Session {
	ctx = logger.WithSessionID(ctx, id)
	log := slog.Default().With(slog.String("component", "session"), slog.String("symbol", symbol))
	log = log.With(logger.Attrs(ctx)...)

	s := &Session{
		ID:      id,
		Symbol:  symbol,
		active:  active,
		candles: candles,
		inbox:   make(chan event, 64),
		out:     make(chan []byte, 256),
		done:    make(chan struct{}),
		metrics: m,
		log:     log,
	}
	opts.Sink = s
	opts.Logger = log
	if m != nil {
		opts.Observer = m
	}
	s.engine = chart.New(opts)
	return s
}

// Out is the stream of encoded server messages. It is closed when the loop ends.
func (s *Session) Out() <-chan []byte { return s.out }

// Done is closed when the loop ends.
func (s *Session) Done() <-chan struct{} { return s.done }

// Deliver queues a client message. It returns false once the session is gone.
func (s *Session) Deliver(m ClientMsg) bool {
	return s.enqueue(event{msg: &m})
}

// Reject queues an error reply for a frame that failed to decode.
func (s *Session) Reject(reqID string, err error) bool {
	return s.enqueue(event{msg: &ClientMsg{ReqID: reqID}, bad: err})
}

// Replace queues a new candle snapshot.
func (s *Session) Replace(candles []model.Candle) bool {
	return s.enqueue(event{candles: candles})
}

func (s *Session) enqueue(ev event) bool {
	// A stopped loop leaves inbox with free space; done must win.
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.inbox <- ev:
		return true
	case <-s.done:
		return false
	}
}

// run is the session loop. It returns when ctx is cancelled.
func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer close(s.out)
	defer s.engine.Close()

	s.rebuild("")
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("session loop stopped")
			return
		case ev := <-s.inbox:
			switch {
			case ev.bad != nil:
				s.count("in", "invalid")
				s.sendError(ev.msg.ReqID, ev.bad)
				continue
			case ev.msg != nil:
				s.handle(*ev.msg)
				continue
			}
			s.candles = ev.candles
			s.rebuild("")
		}
	}
}

func (s *Session) handle(m ClientMsg) {
	s.count("in", m.Type)
	switch m.Type {
	case MsgRange:
		if err := s.engine.OnVisibleRangeChange(m.Pane, m.Range()); err != nil {
			s.sendError(m.ReqID, err)
		}
	case MsgResize:
		s.engine.Resize(m.Width)
	case MsgIndicators:
		s.active = m.Indicators
		s.rebuild(m.ReqID)
	case MsgPing:
		s.send(MsgPong, PongMsg{Type: MsgPong, Ping: m.Ping, ServerTS: time.Now().UnixMilli()})
	}
}

// rebuild replaces the chart and sends one layout message. Range and width
// pushes made while building are already part of the layout and not sent.
func (s *Session) rebuild(reqID string) {
	s.building = true
	panes, err := s.engine.Rebuild(s.candles, s.active)
	s.building = false
	if err != nil {
		s.log.Error("rebuild failed", slog.Any("error", err))
		s.sendError(reqID, err)
		return
	}
	if panes == nil {
		panes = []model.PaneDescriptor{}
	}
	s.send(MsgLayout, LayoutMsg{Type: MsgLayout, Symbol: s.Symbol, ReqID: reqID, Panes: panes})
}

// RangeApplied implements viewport.Sink.
func (s *Session) RangeApplied(pane string, r model.LogicalRange) {
	if s.building {
		return
	}
	s.send(MsgRange, RangeMsg{Type: MsgRange, Pane: pane, Range: r})
}

// WidthApplied implements viewport.Sink.
func (s *Session) WidthApplied(pane string, width int) {
	if s.building {
		return
	}
	s.send(MsgResize, ResizeMsg{Type: MsgResize, Pane: pane, Width: width})
}

func (s *Session) sendError(reqID string, err error) {
	s.send(MsgError, ErrorMsg{Type: MsgError, ReqID: reqID, Error: err.Error()})
}

// send encodes v and queues it. A full queue drops the message: the client is
// too slow and will be disconnected by the write deadline anyway.
func (s *Session) send(typ string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.log.Error("encode message", slog.String("type", typ), slog.Any("error", err))
		return
	}
	select {
	case s.out <- b:
		s.count("out", typ)
	default:
		s.log.Warn("send queue full, dropping message", slog.String("type", typ))
	}
}

func (s *Session) count(direction, typ string) {
	if s.metrics != nil {
		s.metrics.WSMessages.WithLabelValues(direction, typ).Inc()
	}
}
