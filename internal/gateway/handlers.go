package gateway

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/joaaoazul/hypermint/internal/indicator"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// route is one entry of the router table.
type route struct {
	name    string
	method  string
	pattern string
	handler http.HandlerFunc
}

// SetCORS sets CORS headers for REST endpoints.
func SetCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// NewRouter returns the HTTP surface of the hub:
//
//	GET /ws/{symbol}?indicators=RSI,MACD   live chart session
//	GET /api/chart/{symbol}?indicators=&width=   one-shot pane layout
//	GET /api/indicators   supported indicators and their configured parameters
//	GET /api/symbols   symbols with stored candles
func NewRouter(hub *Hub) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	routes := []route{
		{"ws", http.MethodGet, "/ws/{symbol}", hub.handleWS},
		{"chart", http.MethodGet, "/api/chart/{symbol}", hub.handleChart},
		{"indicators", http.MethodGet, "/api/indicators", hub.handleIndicators},
		{"symbols", http.MethodGet, "/api/symbols", hub.handleSymbols},
	}
	for _, rt := range routes {
		router.
			Methods(rt.method).
			Path(rt.pattern).
			Name(rt.name).
			Handler(requestLogger(rt.handler, rt.name))
	}
	return router
}

func requestLogger(next http.Handler, name string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request",
			slog.String("route", name),
			slog.String("method", r.Method),
			slog.String("uri", r.RequestURI),
			slog.Duration("took", time.Since(start)),
		)
	})
}

// activeFromQuery reads the indicators parameter. An absent parameter means
// the hub default; an empty one means price pane only.
func (h *Hub) activeFromQuery(r *http.Request) []string {
	q := r.URL.Query()
	if _, ok := q["indicators"]; !ok {
		return h.DefaultActive()
	}
	var out []string
	for _, s := range strings.Split(q.Get("indicators"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	active := h.activeFromQuery(r)

	candles, err := h.Load(r.Context(), symbol)
	if err != nil {
		slog.Warn("ws load failed", slog.String("symbol", symbol), slog.Any("error", err))
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade error", slog.Any("error", err))
		return
	}
	conn.EnableWriteCompression(true)

	if _, err := h.Serve(conn, symbol, active, candles); err != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		conn.Close()
	}
}

func (h *Hub) handleChart(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	symbol := mux.Vars(r)["symbol"]

	width := 0
	if s := r.URL.Query().Get("width"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			writeError(w, http.StatusBadRequest, ErrBadMessage)
			return
		}
		width = v
	}

	panes, err := h.Render(r.Context(), symbol, h.activeFromQuery(r), width)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, LayoutMsg{Type: MsgLayout, Symbol: symbol, Panes: panes})
}

// IndicatorInfo describes one supported indicator for clients.
type IndicatorInfo struct {
	Kind    indicator.Kind `json:"kind"`
	Label   string         `json:"label"`
	Overlay bool           `json:"overlay"`
	Default indicator.Spec `json:"default"`
}

func (h *Hub) handleIndicators(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	kinds := []indicator.Kind{indicator.KindSMA, indicator.KindEMA, indicator.KindBB, indicator.KindRSI, indicator.KindMACD}
	out := make([]IndicatorInfo, len(kinds))
	for i, k := range kinds {
		spec := h.opts.Engine.SpecFor(k)
		out[i] = IndicatorInfo{Kind: k, Label: spec.Label(), Overlay: k.Overlay(), Default: spec}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Hub) handleSymbols(w http.ResponseWriter, r *http.Request) {
	SetCORS(w)
	symbols, err := h.Symbols(r.Context())
	switch {
	case errors.Is(err, ErrNoSymbolList):
		writeError(w, http.StatusNotImplemented, err)
	case err != nil:
		slog.Warn("symbols failed", slog.Any("error", err))
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeJSON(w, http.StatusOK, symbols)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorMsg{Type: MsgError, Error: err.Error()})
}
