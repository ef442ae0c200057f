package gateway

import (
	"context"
	"encoding/json"
	"math/rand"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaaoazul/hypermint/internal/chart"
	"github.com/joaaoazul/hypermint/internal/metrics"
	"github.com/joaaoazul/hypermint/internal/model"
)

func testCandles(n int) []model.Candle {
	rng := rand.New(rand.NewSource(3))
	out := make([]model.Candle, n)
	price := 50.0
	for i := range out {
		open := price
		price += rng.Float64()*2 - 1
		out[i] = model.Candle{
			Time:   1700000000 + int64(i)*60,
			Open:   open,
			High:   max(open, price) + 0.25,
			Low:    min(open, price) - 0.25,
			Close:  price,
			Volume: 100,
		}
	}
	return out
}

// frame is a decoded server message with the fields every type may carry.
type frame struct {
	Type   string                 `json:"type"`
	ReqID  string                 `json:"req_id"`
	Symbol string                 `json:"symbol"`
	Pane   string                 `json:"pane"`
	Range  model.LogicalRange     `json:"range"`
	Width  int                    `json:"width"`
	Panes  []model.PaneDescriptor `json:"panes"`
	Error  string                 `json:"error"`
	Ping   int64                  `json:"ping"`
}

func next(t *testing.T, out <-chan []byte) frame {
	t.Helper()
	select {
	case b, ok := <-out:
		require.True(t, ok, "session output closed")
		var f frame
		require.NoError(t, json.Unmarshal(b, &f))
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session message")
	}
	return frame{}
}

func quiet(t *testing.T, out <-chan []byte) {
	t.Helper()
	select {
	case b := <-out:
		t.Fatalf("unexpected message %s", b)
	case <-time.After(50 * time.Millisecond):
	}
}

func startSession(t *testing.T, active []string, candles []model.Candle, m *metrics.Metrics) (*Session, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := newSession(ctx, "test-session", "BTCUSDT", active, candles, chart.Options{}, m)
	go s.run(ctx)
	t.Cleanup(func() {
		cancel()
		<-s.Done()
	})
	return s, cancel
}

func f64(v float64) *float64 { return &v }

func TestSession_InitialLayout(t *testing.T) {
	s, _ := startSession(t, []string{"RSI", "MACD", "SMA"}, testCandles(120), nil)

	f := next(t, s.Out())
	assert.Equal(t, MsgLayout, f.Type)
	assert.Equal(t, "BTCUSDT", f.Symbol)
	require.Len(t, f.Panes, 3)
	assert.Equal(t, "main", f.Panes[0].ID)
	assert.Equal(t, "rsi", f.Panes[1].ID)
	assert.Equal(t, "macd", f.Panes[2].ID)

	// Every pane starts on the fitted main range and nothing else is sent.
	for _, p := range f.Panes {
		assert.Equal(t, f.Panes[0].VisibleRange, p.VisibleRange, p.ID)
	}
	quiet(t, s.Out())
}

func TestSession_PanMainMovesOscillators(t *testing.T) {
	s, _ := startSession(t, []string{"RSI", "MACD"}, testCandles(120), nil)
	next(t, s.Out())

	require.True(t, s.Deliver(ClientMsg{Type: MsgRange, Pane: "main", From: f64(10), To: f64(60)}))

	got := map[string]model.LogicalRange{}
	for i := 0; i < 2; i++ {
		f := next(t, s.Out())
		require.Equal(t, MsgRange, f.Type)
		got[f.Pane] = f.Range
	}
	want := model.LogicalRange{From: 10, To: 60}
	assert.Equal(t, map[string]model.LogicalRange{"rsi": want, "macd": want}, got)

	// The adapters echo the move back; nothing further is sent.
	s.Deliver(ClientMsg{Type: MsgRange, Pane: "rsi", From: f64(10), To: f64(60)})
	s.Deliver(ClientMsg{Type: MsgRange, Pane: "macd", From: f64(10), To: f64(60)})
	quiet(t, s.Out())
}

func TestSession_Errors(t *testing.T) {
	s, _ := startSession(t, nil, testCandles(50), nil)
	next(t, s.Out())

	s.Deliver(ClientMsg{Type: MsgRange, ReqID: "a", Pane: "rsi", From: f64(1), To: f64(2)})
	f := next(t, s.Out())
	assert.Equal(t, MsgError, f.Type)
	assert.Equal(t, "a", f.ReqID)
	assert.Contains(t, f.Error, "rsi")

	s.Reject("b", ErrBadMessage)
	f = next(t, s.Out())
	assert.Equal(t, MsgError, f.Type)
	assert.Equal(t, "b", f.ReqID)
}

func TestSession_IndicatorsRebuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)
	s, _ := startSession(t, nil, testCandles(120), m)

	f := next(t, s.Out())
	require.Len(t, f.Panes, 1)

	s.Deliver(ClientMsg{Type: MsgIndicators, ReqID: "set", Indicators: []string{"rsi", "bogus"}})
	f = next(t, s.Out())
	assert.Equal(t, MsgLayout, f.Type)
	assert.Equal(t, "set", f.ReqID)
	require.Len(t, f.Panes, 2)
	assert.Equal(t, "rsi", f.Panes[1].ID)
	quiet(t, s.Out())

	assert.Equal(t, float64(2), testutil.ToFloat64(m.RebuildsTotal))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.WSMessages.WithLabelValues("out", MsgLayout)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.WSMessages.WithLabelValues("in", MsgIndicators)))
}

func TestSession_ReplaceCandles(t *testing.T) {
	s, _ := startSession(t, []string{"RSI"}, nil, nil)

	f := next(t, s.Out())
	assert.Empty(t, f.Panes)
	assert.NotNil(t, f.Panes)

	s.Replace(testCandles(80))
	f = next(t, s.Out())
	require.Len(t, f.Panes, 2)
	assert.Len(t, f.Panes[0].Series[0].Candles, 80)
}

func TestSession_ResizeAndPing(t *testing.T) {
	s, _ := startSession(t, []string{"MACD"}, testCandles(100), nil)
	next(t, s.Out())

	s.Deliver(ClientMsg{Type: MsgResize, Width: 640})
	for i := 0; i < 2; i++ {
		f := next(t, s.Out())
		assert.Equal(t, MsgResize, f.Type)
		assert.Equal(t, 640, f.Width)
	}

	s.Deliver(ClientMsg{Type: MsgPing, Ping: 99})
	f := next(t, s.Out())
	assert.Equal(t, MsgPong, f.Type)
	assert.Equal(t, int64(99), f.Ping)
}

func TestSession_CancelClosesOutput(t *testing.T) {
	s, cancel := startSession(t, nil, testCandles(10), nil)
	next(t, s.Out())

	cancel()
	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop")
	}
	_, ok := <-s.Out()
	assert.False(t, ok)
	assert.False(t, s.Deliver(ClientMsg{Type: MsgPing}))
}

func TestSession_EnqueueAfterStopFails(t *testing.T) {
	for i := 0; i < 200; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		s := newSession(ctx, "test-session", "BTCUSDT", nil, testCandles(5), chart.Options{}, nil)
		go s.run(ctx)
		cancel()
		<-s.Done()

		require.False(t, s.Deliver(ClientMsg{Type: MsgPing}), "run %d", i)
		require.False(t, s.Reject("r", ErrBadMessage), "run %d", i)
		require.False(t, s.Replace(testCandles(3)), "run %d", i)
	}
}
