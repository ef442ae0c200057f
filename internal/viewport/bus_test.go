package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaaoazul/hypermint/internal/model"
)

func TestBus_SelfExclusion(t *testing.T) {
	b := NewBus()
	got := map[string][]model.LogicalRange{}
	for _, id := range []string{"main", "rsi", "macd"} {
		id := id
		b.Subscribe(id, func(source string, r model.LogicalRange) {
			assert.NotEqual(t, id, source, "delivered back to publisher")
			got[id] = append(got[id], r)
		})
	}

	r := model.LogicalRange{From: 10, To: 50}
	n := b.Publish("main", r)

	assert.Equal(t, 2, n)
	assert.Empty(t, got["main"])
	assert.Equal(t, []model.LogicalRange{r}, got["rsi"])
	assert.Equal(t, []model.LogicalRange{r}, got["macd"])
}

func TestBus_ReleaseIsIdempotent(t *testing.T) {
	b := NewBus()
	calls := 0
	release := b.Subscribe("rsi", func(string, model.LogicalRange) { calls++ })
	b.Subscribe("macd", func(string, model.LogicalRange) {})
	require.Equal(t, 2, b.Len())

	release()
	release()
	assert.Equal(t, 1, b.Len())

	b.Publish("main", model.LogicalRange{To: 1})
	assert.Zero(t, calls)
}

func TestBus_HandlerMayReenter(t *testing.T) {
	b := NewBus()
	var inner func()
	b.Subscribe("rsi", func(string, model.LogicalRange) {
		// Subscribing and publishing from a handler must not deadlock.
		inner = b.Subscribe("late", func(string, model.LogicalRange) {})
		b.Publish("rsi", model.LogicalRange{To: 2})
	})

	b.Publish("main", model.LogicalRange{To: 1})
	require.NotNil(t, inner)
	assert.Equal(t, 2, b.Len())
}

func TestBus_PublishWithNoSubscribers(t *testing.T) {
	assert.Zero(t, NewBus().Publish("main", model.LogicalRange{}))
}
