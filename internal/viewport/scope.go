package viewport

import "sync"

// Scope is an ownership list of release functions.
//
// Everything acquired for one engine lifetime (pane listeners, bus
// subscriptions) is recorded here and released together by Close, in reverse
// acquisition order. After Close the scope refuses new resources.
type Scope struct {
	mu       sync.Mutex
	releases []func()
	closed   bool
}

// NewScope returns an empty, open scope.
func NewScope() *Scope {
	return &Scope{}
}

// Acquire records release. If the scope is already closed, release runs
// immediately and ErrDisposed is returned.
func (s *Scope) Acquire(release func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		release()
		return ErrDisposed
	}
	s.releases = append(s.releases, release)
	s.mu.Unlock()
	return nil
}

// Len returns the number of resources currently held.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.releases)
}

// Closed reports whether Close has been called.
func (s *Scope) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close releases every resource in reverse acquisition order. The list is
// detached under the lock first, so no resource can be observed half-released
// by a concurrent Acquire or Len. Safe to call more than once.
func (s *Scope) Close() {
	s.mu.Lock()
	releases := s.releases
	s.releases = nil
	s.closed = true
	s.mu.Unlock()

	for i := len(releases) - 1; i >= 0; i-- {
		releases[i]()
	}
}
