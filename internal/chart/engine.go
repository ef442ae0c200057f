// Package chart turns a candle snapshot and a set of active indicators into an
// ordered list of synchronized panes.
//
// An Engine is driven from a single goroutine. Every call to Rebuild disposes
// the previous panes and all their range subscriptions before creating new
// ones, so callbacks from a replaced chart can never reach the new one. A full
// rebuild per change is fine for a few thousand candles; incremental updates
// are not supported.
package chart

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joaaoazul/hypermint/internal/candles"
	"github.com/joaaoazul/hypermint/internal/indicator"
	"github.com/joaaoazul/hypermint/internal/layout"
	"github.com/joaaoazul/hypermint/internal/model"
	"github.com/joaaoazul/hypermint/internal/viewport"
)

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("chart engine closed")

// Observer receives engine and sync metrics. *metrics.Metrics implements it.
type Observer interface {
	viewport.Observer
	ObserveIndicator(kind string, d time.Duration, err error)
	ObserveRebuild(d time.Duration, panes int)
}

// Options configures an Engine. Zero values use the defaults.
type Options struct {
	Planner layout.Planner
	Colors  model.ColorScheme

	// Volume colors the volume bars. Zero means translucent variants of
	// Colors.Up and Colors.Down.
	Volume candles.VolumeColors

	// Specs overrides indicator parameters per kind. Kinds without an entry
	// use indicator.DefaultSpec.
	Specs []indicator.Spec

	// RightOffset is the number of empty bars left after the last candle
	// when the chart is fitted.
	RightOffset float64

	Sink     viewport.Sink
	Observer Observer
	Logger   *slog.Logger
}

func (o Options) specMap() map[indicator.Kind]indicator.Spec {
	specs := make(map[indicator.Kind]indicator.Spec, len(o.Specs))
	for _, s := range o.Specs {
		specs[s.Kind] = s
	}
	return specs
}

// SpecFor returns the parameters an engine built from o uses for k.
func (o Options) SpecFor(k indicator.Kind) indicator.Spec {
	if s, ok := o.specMap()[k]; ok {
		return s
	}
	return indicator.DefaultSpec(k)
}

// Engine owns the panes of one chart.
type Engine struct {
	opts  Options
	specs map[indicator.Kind]indicator.Spec
	log   *slog.Logger

	ctrl   *viewport.Controller
	panes  []model.PaneDescriptor
	width  int
	closed bool
}

// New creates an engine with no panes.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	opts.Colors = opts.Colors.WithDefaults()
	if opts.Volume == (candles.VolumeColors{}) {
		opts.Volume = candles.VolumeFromScheme(opts.Colors)
	}

	return &Engine{
		opts:  opts,
		specs: opts.specMap(),
		log:   log.With(slog.String("component", "chart")),
	}
}

// Rebuild replaces the chart with one built from data and active.
//
// Identifiers in active are matched case-insensitively against the indicator
// kinds; unknown ones are ignored. An indicator that fails or yields no points
// is left out and never affects the others. Empty data produces no panes.
func (e *Engine) Rebuild(data []model.Candle, active []string) ([]model.PaneDescriptor, error) {
	if e.closed {
		return nil, ErrClosed
	}
	start := time.Now()
	e.teardown()

	if len(data) == 0 {
		e.log.Debug("rebuild with no candles")
		return nil, nil
	}

	store := candles.NewStore(data, e.opts.Volume)
	if err := store.Validate(); err != nil {
		e.log.Warn("candle snapshot failed validation", slog.Any("error", err))
	}

	results := e.compute(store, e.kinds(active))

	var oscillators []indicator.Kind
	for _, r := range results {
		if r.Spec.Kind.Oscillator() {
			oscillators = append(oscillators, r.Spec.Kind)
		}
	}
	slots := e.opts.Planner.Plan(oscillators)

	panes := make([]model.PaneDescriptor, 0, len(slots))
	for _, slot := range slots {
		panes = append(panes, e.describe(slot, store, results))
	}

	ctrl := viewport.NewController(viewport.Options{
		Sink:     e.opts.Sink,
		Observer: e.opts.Observer,
		Logger:   e.log,
	})
	for _, p := range panes {
		if _, err := ctrl.AddPane(p.ID); err != nil {
			ctrl.Dispose()
			return nil, fmt.Errorf("register pane %q: %w", p.ID, err)
		}
	}
	e.ctrl, e.panes = ctrl, panes

	if e.width > 0 {
		ctrl.Resize(e.width)
	}
	if err := ctrl.Fit(layout.MainPaneID, viewport.FitRange(store.Len(), e.opts.RightOffset)); err != nil {
		e.teardown()
		return nil, fmt.Errorf("fit main pane: %w", err)
	}

	d := time.Since(start)
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveRebuild(d, len(panes))
	}
	e.log.Debug("rebuilt",
		slog.Int("candles", store.Len()),
		slog.Int("panes", len(panes)),
		slog.Int("indicators", len(results)),
		slog.Duration("took", d),
	)
	return e.Panes(), nil
}

// OnVisibleRangeChange is the render adapter's callback for a user pan/zoom
// on pane.
func (e *Engine) OnVisibleRangeChange(pane string, r model.LogicalRange) error {
	if e.closed {
		return ErrClosed
	}
	if e.ctrl == nil {
		return fmt.Errorf("%q: %w", pane, viewport.ErrUnknownPane)
	}
	return e.ctrl.UserRange(pane, r)
}

// Resize applies a container width to every pane. The width is remembered and
// applied to panes created by later rebuilds.
func (e *Engine) Resize(width int) {
	if e.closed || width <= 0 {
		return
	}
	e.width = width
	if e.ctrl != nil {
		e.ctrl.Resize(width)
	}
}

// Panes returns the current panes with their live visible range and width.
func (e *Engine) Panes() []model.PaneDescriptor {
	out := make([]model.PaneDescriptor, len(e.panes))
	copy(out, e.panes)
	if e.ctrl == nil {
		return out
	}
	for i := range out {
		if v, ok := e.ctrl.Pane(out[i].ID); ok {
			out[i].VisibleRange, _ = v.Range()
			out[i].Width = v.Width()
		}
	}
	return out
}

// Range returns the shared visible range.
func (e *Engine) Range() (model.LogicalRange, bool) {
	if e.ctrl == nil {
		return model.LogicalRange{}, false
	}
	return e.ctrl.Range()
}

// Stats returns sync counters for the current chart.
func (e *Engine) Stats() viewport.Stats {
	if e.ctrl == nil {
		return viewport.Stats{}
	}
	return e.ctrl.Stats()
}

// Close disposes all panes. Later calls fail with ErrClosed.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.teardown()
	e.closed = true
}

func (e *Engine) teardown() {
	if e.ctrl != nil {
		e.ctrl.Dispose()
		e.ctrl = nil
	}
	e.panes = nil
}

// kinds resolves identifiers to kinds, dropping unknowns and duplicates.
func (e *Engine) kinds(active []string) []indicator.Kind {
	seen := make(map[indicator.Kind]bool, len(active))
	var out []indicator.Kind
	for _, name := range active {
		k, ok := indicator.ParseKind(name)
		if !ok {
			e.log.Debug("ignoring unknown indicator", slog.String("name", name))
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func (e *Engine) specFor(k indicator.Kind) indicator.Spec {
	if s, ok := e.specs[k]; ok {
		return s
	}
	return indicator.DefaultSpec(k)
}

// compute runs every requested indicator, keeping only those that succeed
// with at least one point.
func (e *Engine) compute(store *candles.Store, kinds []indicator.Kind) []indicator.Result {
	results := make([]indicator.Result, 0, len(kinds))
	for _, k := range kinds {
		spec := e.specFor(k)
		start := time.Now()
		res, err := indicator.Compute(store, spec)
		if e.opts.Observer != nil {
			e.opts.Observer.ObserveIndicator(strings.ToLower(string(k)), time.Since(start), err)
		}
		switch {
		case err != nil:
			e.log.Warn("indicator skipped",
				slog.String("indicator", spec.Key()),
				slog.Any("error", err),
			)
		case res.Empty():
			e.log.Debug("indicator has no points",
				slog.String("indicator", spec.Key()),
				slog.Int("candles", store.Len()),
			)
		default:
			results = append(results, res)
		}
	}
	return results
}

func (e *Engine) describe(slot layout.Slot, store *candles.Store, results []indicator.Result) model.PaneDescriptor {
	p := model.PaneDescriptor{
		ID:         slot.ID,
		Role:       slot.Role,
		Height:     slot.Height,
		Background: e.opts.Colors.Background,
	}

	if slot.Role == model.RoleMain {
		p.TimeVisible = true
		p.Series = append(p.Series,
			model.SeriesDescriptor{
				ID:      "candles",
				Type:    model.SeriesCandlestick,
				Style:   candleStyle(e.opts.Colors),
				Candles: store.Candles(),
			},
			model.SeriesDescriptor{
				ID:     "volume",
				Type:   model.SeriesHistogram,
				Style:  model.Style{PriceScaleID: volumeScaleID},
				Points: store.Volume(),
			},
		)
		for _, r := range results {
			if r.Spec.Kind.Overlay() {
				p.Series = append(p.Series, overlaySeries(r)...)
			}
		}
		return p
	}

	for _, r := range results {
		if r.Spec.Kind != slot.Kind {
			continue
		}
		p.Label = r.Spec.Label()
		p.Series = oscillatorSeries(r, store.Times())
	}
	return p
}

func overlaySeries(r indicator.Result) []model.SeriesDescriptor {
	key := r.Spec.Key()
	if r.Bands != nil {
		band := lineStyle(ColorBands, 1)
		middle := band
		middle.LineStyle = model.LineDotted
		return []model.SeriesDescriptor{
			{ID: key + "_upper", Type: model.SeriesLine, Style: band, Points: r.Bands.Upper},
			{ID: key + "_middle", Type: model.SeriesLine, Style: middle, Points: r.Bands.Middle},
			{ID: key + "_lower", Type: model.SeriesLine, Style: band, Points: r.Bands.Lower},
		}
	}
	return []model.SeriesDescriptor{{
		ID:     key,
		Type:   model.SeriesLine,
		Style:  lineStyle(overlayColor(r.Spec.Kind), 2),
		Points: r.Line,
	}}
}

func oscillatorSeries(r indicator.Result, times []int64) []model.SeriesDescriptor {
	key := r.Spec.Key()
	if r.MACD != nil {
		return []model.SeriesDescriptor{
			{ID: key + "_hist", Type: model.SeriesHistogram, Style: model.Style{Color: ColorHistUp}, Points: histogramColors(r.MACD.Histogram)},
			{ID: key + "_line", Type: model.SeriesLine, Style: lineStyle(ColorMACDLine, 1), Points: r.MACD.Line},
			{ID: key + "_signal", Type: model.SeriesLine, Style: lineStyle(ColorMACDSignal, 1), Points: r.MACD.Signal},
		}
	}

	guide := model.Style{Color: ColorGuide, LineWidth: 1, LineStyle: model.LineDashed}
	style := lineStyle(ColorRSI, 2)
	style.PriceLineShown = true
	return []model.SeriesDescriptor{
		{ID: key, Type: model.SeriesLine, Style: style, Points: r.Line},
		{ID: key + "_70", Type: model.SeriesLine, Style: guide, Points: constant(times, RSIOverbought)},
		{ID: key + "_30", Type: model.SeriesLine, Style: guide, Points: constant(times, RSIOversold)},
	}
}
