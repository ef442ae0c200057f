package viewport

import (
	"sync"

	"github.com/joaaoazul/hypermint/internal/model"
)

// Handler receives a range published by another pane.
type Handler func(source string, r model.LogicalRange)

type subscriber struct {
	id   uint64
	pane string
	fn   Handler
}

// Bus broadcasts visible-range changes between panes, keyed by pane id.
// A publish is never delivered back to subscribers of the publishing pane.
//
// Handlers run synchronously on the publishing goroutine, outside the bus
// lock, so a handler may subscribe, release or publish without deadlocking.
type Bus struct {
	mu     sync.RWMutex
	subs   []subscriber
	nextID uint64
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for pane. The returned release removes it; calling
// release more than once is harmless.
func (b *Bus) Subscribe(pane string, fn Handler) (release func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber{id: id, pane: pane, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers r to every subscriber whose pane differs from source and
// returns the number of deliveries.
func (b *Bus) Publish(source string, r model.LogicalRange) int {
	b.mu.RLock()
	targets := make([]subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		if s.pane != source {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		s.fn(source, r)
	}
	return len(targets)
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
