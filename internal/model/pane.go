package model

// ── Render adapter contract ──
// These types are what the chart engine hands to whatever draws it. They carry
// data and style hints only; no drawing happens in this module.

// PaneRole distinguishes the price pane from oscillator panes.
type PaneRole string

const (
	RoleMain       PaneRole = "main"
	RoleOscillator PaneRole = "oscillator"
)

// SeriesType tells the renderer how to draw a series.
type SeriesType string

const (
	SeriesCandlestick SeriesType = "candlestick"
	SeriesLine        SeriesType = "line"
	SeriesHistogram   SeriesType = "histogram"
)

// LineStyle mirrors the dash patterns common chart libraries accept.
type LineStyle string

const (
	LineSolid  LineStyle = "solid"
	LineDotted LineStyle = "dotted"
	LineDashed LineStyle = "dashed"
)

// LogicalRange is a visible window in candle-index space. It is the unit of
// synchronization across panes.
type LogicalRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// Style carries drawing hints for one series.
type Style struct {
	Color          string    `json:"color,omitempty"`
	UpColor        string    `json:"upColor,omitempty"`
	DownColor      string    `json:"downColor,omitempty"`
	LineWidth      int       `json:"lineWidth,omitempty"`
	LineStyle      LineStyle `json:"lineStyle,omitempty"`
	PriceScaleID   string    `json:"priceScaleId,omitempty"`
	PriceLineShown bool      `json:"priceLineVisible"`
}

// SeriesDescriptor is one drawable series inside a pane.
type SeriesDescriptor struct {
	ID      string     `json:"id"` // e.g. "candles", "sma_20", "bb_upper"
	Type    SeriesType `json:"type"`
	Style   Style      `json:"style"`
	Candles []Candle   `json:"candles,omitempty"`
	Points  Series     `json:"points,omitempty"`
}

// PaneDescriptor describes one pane in top-to-bottom order.
type PaneDescriptor struct {
	ID           string             `json:"id"`
	Role         PaneRole           `json:"role"`
	Label        string             `json:"label,omitempty"`
	Height       int                `json:"height"`
	Width        int                `json:"width,omitempty"`
	TimeVisible  bool               `json:"timeVisible"`
	Background   string             `json:"background"`
	Series       []SeriesDescriptor `json:"series"`
	VisibleRange LogicalRange       `json:"visibleRange"`
}

// ColorScheme is supplied by the host; zero fields fall back to defaults.
type ColorScheme struct {
	Up         string `json:"up" yaml:"up"`
	Down       string `json:"down" yaml:"down"`
	Background string `json:"bg" yaml:"bg"`
}

// Default chart colors.
const (
	DefaultUpColor         = "#0ECB81"
	DefaultDownColor       = "#F6465D"
	DefaultBackgroundColor = "#161A1E"
)

// WithDefaults fills empty fields with the default palette.
func (cs ColorScheme) WithDefaults() ColorScheme {
	if cs.Up == "" {
		cs.Up = DefaultUpColor
	}
	if cs.Down == "" {
		cs.Down = DefaultDownColor
	}
	if cs.Background == "" {
		cs.Background = DefaultBackgroundColor
	}
	return cs
}
