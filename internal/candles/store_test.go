package candles

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaaoazul/hypermint/internal/model"
)

func sample() []model.Candle {
	return []model.Candle{
		{Time: 60, Open: 10, High: 12, Low: 9, Close: 11, Volume: 100}, // up
		{Time: 120, Open: 11, High: 11, Low: 8, Close: 9, Volume: 250}, // down
		{Time: 180, Open: 9, High: 10, Low: 9, Close: 9, Volume: 0},    // flat counts as up
	}
}

func TestStore_VolumeColoring(t *testing.T) {
	s := NewStore(sample(), VolumeColors{})

	vol := s.Volume()
	require.Len(t, vol, 3)
	assert.Equal(t, DefaultVolumeUpColor, vol[0].Color)
	assert.Equal(t, DefaultVolumeDownColor, vol[1].Color)
	assert.Equal(t, DefaultVolumeUpColor, vol[2].Color)
	assert.Equal(t, 250.0, vol[1].Value)
	assert.Equal(t, int64(120), vol[1].Time)
}

func TestStore_CustomColors(t *testing.T) {
	s := NewStore(sample(), VolumeColors{Up: "green", Down: "red"})
	vol := s.Volume()
	assert.Equal(t, "green", vol[0].Color)
	assert.Equal(t, "red", vol[1].Color)
}

func TestStore_IsImmutable(t *testing.T) {
	in := sample()
	s := NewStore(in, VolumeColors{})

	in[0].Close = 999
	assert.Equal(t, 11.0, s.At(0).Close, "store must not alias caller slice")

	out := s.Candles()
	out[1].Close = 999
	assert.Equal(t, 9.0, s.At(1).Close, "Candles() must return a copy")

	vol := s.Volume()
	vol[0].Value = -1
	assert.Equal(t, 100.0, s.Volume()[0].Value)
}

func TestStore_Accessors(t *testing.T) {
	s := NewStore(sample(), VolumeColors{})
	assert.Equal(t, 3, s.Len())
	assert.False(t, s.Empty())
	assert.Equal(t, []float64{11, 9, 9}, s.Closes())
	assert.Equal(t, []int64{60, 120, 180}, s.Times())

	empty := NewStore(nil, VolumeColors{})
	assert.True(t, empty.Empty())
	assert.Empty(t, empty.Volume())
}

func TestStore_Validate(t *testing.T) {
	assert.NoError(t, NewStore(sample(), VolumeColors{}).Validate())

	dup := sample()
	dup[2].Time = 120
	err := NewStore(dup, VolumeColors{}).Validate()
	assert.True(t, errors.Is(err, ErrUnordered), "got %v", err)

	bad := sample()
	bad[1].Low = 0
	err = NewStore(bad, VolumeColors{}).Validate()
	assert.True(t, errors.Is(err, ErrBadPrice), "got %v", err)
}

func TestVolumeFromScheme(t *testing.T) {
	v := VolumeFromScheme(model.ColorScheme{}.WithDefaults())
	assert.Equal(t, DefaultVolumeUpColor, v.Up)
	assert.Equal(t, DefaultVolumeDownColor, v.Down)

	v = VolumeFromScheme(model.ColorScheme{Up: "#2962FF", Down: "#f0a"})
	assert.Equal(t, "rgba(41, 98, 255, 0.3)", v.Up)
	assert.Equal(t, "rgba(255, 0, 170, 0.3)", v.Down)

	v = VolumeFromScheme(model.ColorScheme{Up: "teal", Down: "#12345"})
	assert.Empty(t, v.Up)
	assert.Empty(t, v.Down)
	vol := NewStore(sample(), v).Volume()
	assert.Equal(t, DefaultVolumeUpColor, vol[0].Color)
}
