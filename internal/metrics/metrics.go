package metrics

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the chart service.
type Metrics struct {
	// Rebuilds
	RebuildsTotal prometheus.Counter
	RebuildDur    prometheus.Histogram
	PanesBuilt    prometheus.Histogram

	// Indicator engine metrics
	IndicatorComputeDur *prometheus.HistogramVec // labels: kind
	IndicatorFailures   *prometheus.CounterVec   // labels: kind

	// Viewport sync
	Broadcasts       prometheus.Counter
	Deliveries       prometheus.Counter
	SuppressedPushes prometheus.Counter

	// Gateway
	ActiveSessions prometheus.Gauge
	WSMessages     *prometheus.CounterVec // labels: direction, type
	FeedLoadDur    *prometheus.HistogramVec
}

// NewMetrics creates every metric and registers it on reg.
// Pass prometheus.DefaultRegisterer in production, a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RebuildsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_rebuilds_total",
			Help: "Total chart rebuilds (candles or indicator set changed)",
		}),
		RebuildDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chart_rebuild_duration_seconds",
			Help:    "Time to compute indicators and plan panes for one rebuild",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		PanesBuilt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chart_panes_per_rebuild",
			Help:    "Number of panes produced by a rebuild",
			Buckets: []float64{0, 1, 2, 3, 4},
		}),

		IndicatorComputeDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chart_indicator_compute_duration_seconds",
			Help:    "Indicator compute latency over the full candle series",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
		}, []string{"kind"}),
		IndicatorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chart_indicator_failures_total",
			Help: "Indicator computations that failed and were skipped",
		}, []string{"kind"}),

		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_viewport_broadcasts_total",
			Help: "Visible-range broadcasts published on the sync bus",
		}),
		Deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_viewport_deliveries_total",
			Help: "Visible-range deliveries to non-originating panes",
		}),
		SuppressedPushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chart_viewport_suppressed_total",
			Help: "Deliveries skipped because the pane already showed the range",
		}),

		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "chart_gateway_active_sessions",
			Help: "Connected chart sessions",
		}),
		WSMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chart_gateway_messages_total",
			Help: "WebSocket messages by direction (in|out) and type",
		}, []string{"direction", "type"}),
		FeedLoadDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chart_feed_load_duration_seconds",
			Help:    "Candle load latency per feed",
			Buckets: prometheus.DefBuckets,
		}, []string{"feed"}),
	}

	reg.MustRegister(
		m.RebuildsTotal,
		m.RebuildDur,
		m.PanesBuilt,
		m.IndicatorComputeDur,
		m.IndicatorFailures,
		m.Broadcasts,
		m.Deliveries,
		m.SuppressedPushes,
		m.ActiveSessions,
		m.WSMessages,
		m.FeedLoadDur,
	)

	return m
}

// ObserveBroadcast implements viewport.Observer.
func (m *Metrics) ObserveBroadcast(deliveries int) {
	m.Broadcasts.Inc()
	m.Deliveries.Add(float64(deliveries))
}

// ObserveSuppressed implements viewport.Observer.
func (m *Metrics) ObserveSuppressed() {
	m.SuppressedPushes.Inc()
}

// ObserveIndicator records one indicator computation.
func (m *Metrics) ObserveIndicator(kind string, d time.Duration, err error) {
	m.IndicatorComputeDur.WithLabelValues(kind).Observe(d.Seconds())
	if err != nil {
		m.IndicatorFailures.WithLabelValues(kind).Inc()
	}
}

// ObserveRebuild records one completed rebuild.
func (m *Metrics) ObserveRebuild(d time.Duration, panes int) {
	m.RebuildsTotal.Inc()
	m.RebuildDur.Observe(d.Seconds())
	m.PanesBuilt.Observe(float64(panes))
}

// HealthStatus represents the system health.
type HealthStatus struct {
	mu sync.RWMutex

	Feed           string `json:"feed"`
	FeedOK         bool   `json:"feed_ok"`
	RedisConnected bool   `json:"redis_connected"`
	SQLiteOK       bool   `json:"sqlite_ok"`
	Sessions       int    `json:"sessions"`

	// Liveness probe results
	RedisLatencyMs  float64   `json:"redis_latency_ms"`
	SQLiteLatencyMs float64   `json:"sqlite_latency_ms"`
	LastCheckAt     time.Time `json:"last_check_at"`
	StartedAt       time.Time `json:"started_at"`
}

// NewHealthStatus returns a health status for the named feed.
func NewHealthStatus(feed string) *HealthStatus {
	return &HealthStatus{
		Feed:      feed,
		StartedAt: time.Now(),
	}
}

func (h *HealthStatus) SetFeedOK(v bool) {
	h.mu.Lock()
	h.FeedOK = v
	h.mu.Unlock()
}

func (h *HealthStatus) AddSessions(delta int) {
	h.mu.Lock()
	h.Sessions += delta
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency + connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	if h.Feed == "redis" {
		h.FeedOK = err == nil
	}
	h.mu.Unlock()
}

// CheckSQLite pings the database and records latency + health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sql.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	if h.Feed == "sqlite" {
		h.FeedOK = err == nil
	}
	h.mu.Unlock()
}

// StartLivenessChecker runs periodic dependency checks until ctx is done.
// Either client may be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, sqlDB *sql.DB, interval time.Duration) {
	probe := func() {
		probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if rdb != nil {
			h.CheckRedis(probeCtx, rdb)
		}
		if sqlDB != nil {
			h.CheckSQLite(probeCtx, sqlDB)
		}
	}
	go func() {
		probe()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probe()
			}
		}
	}()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	overallStatus := "healthy"
	httpCode := http.StatusOK
	if !h.FeedOK {
		overallStatus = "degraded"
		httpCode = http.StatusServiceUnavailable
	}

	lastCheck := ""
	if !h.LastCheckAt.IsZero() {
		lastCheck = h.LastCheckAt.Format(time.RFC3339)
	}

	status := struct {
		Status          string  `json:"status"`
		Uptime          string  `json:"uptime"`
		Feed            string  `json:"feed"`
		FeedOK          bool    `json:"feed_ok"`
		RedisConnected  bool    `json:"redis_connected"`
		RedisLatencyMs  float64 `json:"redis_latency_ms"`
		SQLiteOK        bool    `json:"sqlite_ok"`
		SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
		Sessions        int     `json:"sessions"`
		LastCheckAt     string  `json:"last_check_at"`
	}{
		Status:          overallStatus,
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		Feed:            h.Feed,
		FeedOK:          h.FeedOK,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
		Sessions:        h.Sessions,
		LastCheckAt:     lastCheck,
	}

	w.Header().Set("Content-Type", "application/json")
	if httpCode != http.StatusOK {
		w.WriteHeader(httpCode)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	health *HealthStatus
	addr   string
	srv    *http.Server
}

// NewServer creates a metrics and health server. gatherer is usually
// prometheus.DefaultGatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		health: health,
		addr:   addr,
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		slog.Info("metrics server listening", slog.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("metrics server error", slog.Any("error", err))
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
