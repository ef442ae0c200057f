// Package candles wraps one immutable OHLCV snapshot and the series derived
// directly from it (volume bars colored by candle direction).
//
// A Store is never mutated after construction. Any change to the data means
// building a new Store.
package candles

import (
	"errors"
	"fmt"

	"github.com/joaaoazul/hypermint/internal/model"
)

// Volume bar colors: translucent variants of the default up/down colors.
const (
	DefaultVolumeUpColor   = "rgba(14, 203, 129, 0.3)"
	DefaultVolumeDownColor = "rgba(246, 70, 93, 0.3)"
)

var (
	// ErrUnordered is reported by Validate for non-increasing candle times.
	ErrUnordered = errors.New("candle times not strictly increasing")
	// ErrBadPrice is reported by Validate for non-positive prices or negative volume.
	ErrBadPrice = errors.New("candle has non-positive price or negative volume")
)

// VolumeColors selects the colors used for the derived volume series.
type VolumeColors struct {
	Up   string
	Down string
}

// Store is a read-only candle snapshot.
type Store struct {
	candles []model.Candle
	volume  model.Series
}

// NewStore copies candles into a new Store and derives the volume series.
// Zero-valued colors fall back to the defaults.
func NewStore(candles []model.Candle, colors VolumeColors) *Store {
	if colors.Up == "" {
		colors.Up = DefaultVolumeUpColor
	}
	if colors.Down == "" {
		colors.Down = DefaultVolumeDownColor
	}

	cp := make([]model.Candle, len(candles))
	copy(cp, candles)

	vol := make(model.Series, len(cp))
	for i := range cp {
		c := &cp[i]
		color := colors.Down
		if c.Up() {
			color = colors.Up
		}
		vol[i] = model.Point{Time: c.Time, Value: c.Volume, Color: color}
	}

	return &Store{candles: cp, volume: vol}
}

// Len returns the number of candles.
func (s *Store) Len() int { return len(s.candles) }

// Empty reports whether the snapshot has no candles.
func (s *Store) Empty() bool { return len(s.candles) == 0 }

// Candles returns a copy of the raw candles.
func (s *Store) Candles() []model.Candle {
	out := make([]model.Candle, len(s.candles))
	copy(out, s.candles)
	return out
}

// At returns the i-th candle.
func (s *Store) At(i int) model.Candle { return s.candles[i] }

// Closes returns the close prices in candle order.
func (s *Store) Closes() []float64 {
	out := make([]float64, len(s.candles))
	for i := range s.candles {
		out[i] = s.candles[i].Close
	}
	return out
}

// Times returns the candle times in order.
func (s *Store) Times() []int64 {
	out := make([]int64, len(s.candles))
	for i := range s.candles {
		out[i] = s.candles[i].Time
	}
	return out
}

// Volume returns a copy of the derived volume series.
func (s *Store) Volume() model.Series {
	out := make(model.Series, len(s.volume))
	copy(out, s.volume)
	return out
}

// Validate checks ordering and price sanity. The engine does not require a
// valid series; callers decide whether to warn or refuse.
func (s *Store) Validate() error {
	for i := range s.candles {
		c := &s.candles[i]
		if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 || c.Volume < 0 {
			return fmt.Errorf("index %d (time %d): %w", i, c.Time, ErrBadPrice)
		}
		if i > 0 && c.Time <= s.candles[i-1].Time {
			return fmt.Errorf("index %d: time %d after %d: %w", i, c.Time, s.candles[i-1].Time, ErrUnordered)
		}
	}
	return nil
}
