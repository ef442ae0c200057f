// Package viewport keeps the visible logical range identical across chart
// panes.
//
// Each pane owns a Viewport. A user pan/zoom on one pane is the only thing
// that makes a Viewport emit a range-changed event; the Controller relays that
// range to every other pane with a silent assignment that never emits, so a
// broadcast cannot bounce back. Assignments of a range a pane already shows are
// skipped altogether.
package viewport

import (
	"errors"
	"math"

	"github.com/joaaoazul/hypermint/internal/model"
)

var (
	ErrUnknownPane   = errors.New("unknown pane")
	ErrDuplicatePane = errors.New("pane already registered")
	ErrDisposed      = errors.New("viewport controller disposed")
	ErrInvalidRange  = errors.New("invalid logical range")
)

// Listener is notified when a pane emits a range-changed event.
type Listener func(pane string, r model.LogicalRange)

// Viewport is the range and pixel width of one pane.
// Not safe for concurrent use; the Controller drives it from one goroutine.
type Viewport struct {
	id       string
	rng      model.LogicalRange
	hasRange bool
	width    int
	emitted  int

	listeners map[uint64]Listener
	order     []uint64
	nextID    uint64
}

func newViewport(id string) *Viewport {
	return &Viewport{id: id, listeners: make(map[uint64]Listener)}
}

// ID returns the pane id.
func (v *Viewport) ID() string { return v.id }

// Range returns the current range; ok is false before the first assignment.
func (v *Viewport) Range() (r model.LogicalRange, ok bool) { return v.rng, v.hasRange }

// Width returns the pixel width last applied by a resize.
func (v *Viewport) Width() int { return v.width }

// Emitted returns how many range-changed events this pane has emitted.
func (v *Viewport) Emitted() int { return v.emitted }

// OnRangeChanged registers l and returns its release function.
func (v *Viewport) OnRangeChanged(l Listener) (release func()) {
	v.nextID++
	id := v.nextID
	v.listeners[id] = l
	v.order = append(v.order, id)
	return func() {
		if _, ok := v.listeners[id]; !ok {
			return
		}
		delete(v.listeners, id)
		for i, x := range v.order {
			if x == id {
				v.order = append(v.order[:i], v.order[i+1:]...)
				break
			}
		}
	}
}

// Listeners returns the number of registered range listeners.
func (v *Viewport) Listeners() int { return len(v.listeners) }

// shows reports whether the pane already displays r.
func (v *Viewport) shows(r model.LogicalRange) bool {
	return v.hasRange && v.rng == r
}

// interact is the user pan/zoom path: it updates the range and emits.
// A report of the range the pane already shows is dropped without emitting.
func (v *Viewport) interact(r model.LogicalRange) bool {
	if v.shows(r) {
		return false
	}
	v.rng, v.hasRange = r, true
	v.emit()
	return true
}

// assign is the silent path used for broadcasts: it never emits.
func (v *Viewport) assign(r model.LogicalRange) bool {
	if v.shows(r) {
		return false
	}
	v.rng, v.hasRange = r, true
	return true
}

func (v *Viewport) emit() {
	v.emitted++
	for _, id := range append([]uint64(nil), v.order...) {
		if l, ok := v.listeners[id]; ok {
			l(v.id, v.rng)
		}
	}
}

func validRange(r model.LogicalRange) error {
	if math.IsNaN(r.From) || math.IsNaN(r.To) || math.IsInf(r.From, 0) || math.IsInf(r.To, 0) || r.From > r.To {
		return ErrInvalidRange
	}
	return nil
}

// FitRange is the "fit all content" range for n candles: every bar visible,
// plus rightOffset empty bars after the last one.
func FitRange(n int, rightOffset float64) model.LogicalRange {
	if n <= 0 {
		return model.LogicalRange{}
	}
	return model.LogicalRange{From: 0, To: float64(n-1) + rightOffset}
}
