package indicator

import "github.com/joaaoazul/hypermint/internal/model"

// ema is the exponential smoothing recurrence.
// O(1) per update; no window storage needed.
type ema struct {
	multiplier float64
	current    float64
	count      int
}

func newEMA(period int) *ema {
	return &ema{multiplier: 2.0 / float64(period+1)}
}

func (e *ema) update(price float64) float64 {
	e.count++
	if e.count == 1 {
		// Seed with the first price
		e.current = price
		return e.current
	}
	// EMA formula: EMA = (Price * multiplier) + (EMA_prev * (1 - multiplier))
	e.current = (price * e.multiplier) + (e.current * (1 - e.multiplier))
	return e.current
}

// EMA returns the exponential moving average of closes with k = 2/(period+1).
// The recurrence runs over the whole series seeded with the first close, but
// only values from index period-1 onward are emitted.
func EMA(data []model.Candle, period int) (model.Series, error) {
	if err := checkPeriod("EMA", period); err != nil {
		return nil, err
	}
	return emaOf(closeSeries(data), period), nil
}

// emaOf applies EMA to any series treated as a price series.
func emaOf(src model.Series, period int) model.Series {
	if len(src) < period {
		return model.Series{}
	}
	e := newEMA(period)
	out := make(model.Series, 0, len(src)-period+1)
	for i, p := range src {
		v := e.update(p.Value)
		if i >= period-1 {
			out = append(out, model.Point{Time: p.Time, Value: v})
		}
	}
	return out
}
