package viewport

import (
	"fmt"
	"log/slog"

	"github.com/joaaoazul/hypermint/internal/model"
)

// Sink is told whenever the controller changes a pane programmatically, so the
// render adapter can move the matching on-screen pane. User-originated changes
// are not echoed to the sink: the adapter already shows them.
type Sink interface {
	RangeApplied(pane string, r model.LogicalRange)
	WidthApplied(pane string, width int)
}

// Observer receives sync counters (e.g. Prometheus).
type Observer interface {
	ObserveBroadcast(deliveries int)
	ObserveSuppressed()
}

// Stats counts sync activity since the controller was created.
type Stats struct {
	UserEvents int // interactions reported by the adapter
	Echoes     int // interactions dropped because the pane already showed the range
	Broadcasts int // publishes on the bus
	Deliveries int // bus deliveries to other panes
	Applied    int // deliveries that changed a pane
	Suppressed int // deliveries skipped because the pane already showed the range
}

// Options configures a Controller. All fields are optional.
type Options struct {
	Sink     Sink
	Observer Observer
	Logger   *slog.Logger
}

// Controller keeps every registered pane on the same logical range.
//
// It is the sole writer of pane ranges and is meant to be driven from a single
// goroutine (the UI event loop). Every listener and bus subscription it creates
// is owned by one Scope, so Dispose releases all of them at once.
type Controller struct {
	bus   *Bus
	scope *Scope
	panes []*Viewport
	byID  map[string]*Viewport

	sink     Sink
	observer Observer
	log      *slog.Logger
	stats    Stats
}

// NewController creates a controller with no panes.
func NewController(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		bus:      NewBus(),
		scope:    NewScope(),
		byID:     make(map[string]*Viewport),
		sink:     opts.Sink,
		observer: opts.Observer,
		log:      log.With(slog.String("component", "viewport")),
	}
}

// AddPane registers a pane and wires it into the sync protocol.
func (c *Controller) AddPane(id string) (*Viewport, error) {
	if c.scope.Closed() {
		return nil, ErrDisposed
	}
	if _, dup := c.byID[id]; dup {
		return nil, fmt.Errorf("%q: %w", id, ErrDuplicatePane)
	}

	v := newViewport(id)

	// Pane → bus: a user event on this pane is published to the others.
	if err := c.scope.Acquire(v.OnRangeChanged(c.publish)); err != nil {
		return nil, err
	}
	// Bus → pane: silent assignment, skipped when already equal.
	if err := c.scope.Acquire(c.bus.Subscribe(id, func(_ string, r model.LogicalRange) {
		c.deliver(v, r)
	})); err != nil {
		return nil, err
	}
	if err := c.scope.Acquire(func() { c.unregister(id) }); err != nil {
		return nil, err
	}

	c.panes = append(c.panes, v)
	c.byID[id] = v
	return v, nil
}

func (c *Controller) unregister(id string) {
	delete(c.byID, id)
	for i, p := range c.panes {
		if p.id == id {
			c.panes = append(c.panes[:i], c.panes[i+1:]...)
			return
		}
	}
}

// Pane looks up a registered pane.
func (c *Controller) Pane(id string) (*Viewport, bool) {
	v, ok := c.byID[id]
	return v, ok
}

// Panes returns the registered panes in registration order.
func (c *Controller) Panes() []*Viewport {
	return append([]*Viewport(nil), c.panes...)
}

// UserRange is the adapter callback for a pan/zoom on pane id.
// Reports of the range the pane already shows are dropped, which is what
// stops an adapter that echoes programmatic moves from starting a cascade.
func (c *Controller) UserRange(id string, r model.LogicalRange) error {
	if c.scope.Closed() {
		return ErrDisposed
	}
	if err := validRange(r); err != nil {
		return fmt.Errorf("pane %q %+v: %w", id, r, err)
	}
	v, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownPane)
	}
	c.stats.UserEvents++
	if !v.interact(r) {
		c.stats.Echoes++
	}
	return nil
}

// Fit sets the initial range on the designated pane and broadcasts it to the
// rest through the same bus used for user events.
func (c *Controller) Fit(id string, r model.LogicalRange) error {
	if c.scope.Closed() {
		return ErrDisposed
	}
	if err := validRange(r); err != nil {
		return err
	}
	v, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("%q: %w", id, ErrUnknownPane)
	}
	if v.assign(r) && c.sink != nil {
		c.sink.RangeApplied(id, r)
	}
	v.emit()
	return nil
}

// Resize applies a pixel width to every pane. Ranges are left untouched.
func (c *Controller) Resize(width int) {
	for _, v := range c.panes {
		v.width = width
		if c.sink != nil {
			c.sink.WidthApplied(v.id, width)
		}
	}
}

// Range returns the shared range, taken from the first pane.
func (c *Controller) Range() (model.LogicalRange, bool) {
	if len(c.panes) == 0 {
		return model.LogicalRange{}, false
	}
	return c.panes[0].Range()
}

// Stats returns a copy of the counters.
func (c *Controller) Stats() Stats { return c.stats }

// Bus exposes the underlying bus (read-only use: subscription counts).
func (c *Controller) Bus() *Bus { return c.bus }

// Dispose releases every listener and subscription in reverse acquisition
// order. Safe to call more than once.
func (c *Controller) Dispose() {
	if c.scope.Closed() {
		return
	}
	c.scope.Close()
	c.log.Debug("disposed", slog.Int("bus_subscriptions", c.bus.Len()))
}

func (c *Controller) publish(source string, r model.LogicalRange) {
	c.stats.Broadcasts++
	n := c.bus.Publish(source, r)
	c.stats.Deliveries += n
	if c.observer != nil {
		c.observer.ObserveBroadcast(n)
	}
}

func (c *Controller) deliver(v *Viewport, r model.LogicalRange) {
	if !v.assign(r) {
		c.stats.Suppressed++
		if c.observer != nil {
			c.observer.ObserveSuppressed()
		}
		return
	}
	c.stats.Applied++
	if c.sink != nil {
		c.sink.RangeApplied(v.id, r)
	}
}
