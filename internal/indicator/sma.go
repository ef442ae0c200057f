package indicator

import (
	"math"

	"github.com/joaaoazul/hypermint/internal/model"
)

// window is a trailing window of the last `period` values.
// Uses a preallocated circular buffer and a running sum, so each push is O(1).
type window struct {
	period int
	buf    []float64 // preallocated circular buffer
	idx    int       // current write position
	count  int       // total values received
	sum    float64
}

func newWindow(period int) *window {
	return &window{
		period: period,
		buf:    make([]float64, period),
	}
}

func (w *window) push(v float64) {
	if w.count >= w.period {
		// Subtract the oldest value being overwritten
		w.sum -= w.buf[w.idx]
	}

	w.buf[w.idx] = v
	w.sum += v
	w.idx = (w.idx + 1) % w.period
	w.count++

	// Re-sum once per lap so float drift from the running sum stays bounded.
	if w.idx == 0 {
		s := 0.0
		for _, x := range w.buf {
			s += x
		}
		w.sum = s
	}
}

func (w *window) ready() bool { return w.count >= w.period }

func (w *window) mean() float64 { return w.sum / float64(w.period) }

// stddev is the population standard deviation of the window around mean.
func (w *window) stddev(mean float64) float64 {
	ss := 0.0
	for _, x := range w.buf {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(w.period))
}

// SMA returns the simple moving average of closes over a trailing window of
// period candles, one point per candle from index period-1 onward.
func SMA(data []model.Candle, period int) (model.Series, error) {
	if err := checkPeriod("SMA", period); err != nil {
		return nil, err
	}
	return smaOf(closeSeries(data), period), nil
}

func smaOf(src model.Series, period int) model.Series {
	if len(src) < period {
		return model.Series{}
	}
	w := newWindow(period)
	out := make(model.Series, 0, len(src)-period+1)
	for _, p := range src {
		w.push(p.Value)
		if w.ready() {
			out = append(out, model.Point{Time: p.Time, Value: w.mean()})
		}
	}
	return out
}
