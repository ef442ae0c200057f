package viewport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScope_ReleasesInReverseOrder(t *testing.T) {
	s := NewScope()
	var order []int
	for i := 1; i <= 4; i++ {
		i := i
		assert.NoError(t, s.Acquire(func() { order = append(order, i) }))
	}
	assert.Equal(t, 4, s.Len())

	s.Close()
	assert.Equal(t, []int{4, 3, 2, 1}, order)
	assert.Zero(t, s.Len())
	assert.True(t, s.Closed())

	s.Close()
	assert.Len(t, order, 4, "second Close must not release again")
}

func TestScope_AcquireAfterClose(t *testing.T) {
	s := NewScope()
	s.Close()

	released := false
	err := s.Acquire(func() { released = true })
	assert.True(t, errors.Is(err, ErrDisposed))
	assert.True(t, released, "late resource must be released immediately")
	assert.Zero(t, s.Len())
}
