package indicator

import (
	"fmt"

	"github.com/joaaoazul/hypermint/internal/model"
)

func checkMACD(fast, slow, signal int) error {
	for _, p := range []struct {
		name string
		v    int
	}{{"MACD fast", fast}, {"MACD slow", slow}, {"MACD signal", signal}} {
		if err := checkPeriod(p.name, p.v); err != nil {
			return err
		}
	}
	if fast >= slow {
		return fmt.Errorf("MACD fast %d must be below slow %d: %w", fast, slow, ErrInvalidParameter)
	}
	return nil
}

// MACD computes line = EMA(fast) - EMA(slow), signal = EMA(signal) of the line
// and histogram = line - signal.
//
// Both differences are inner joins on time: a candle missing either operand
// contributes no point. The signal EMA is seeded at the first line value, so the
// histogram starts exactly where the signal line starts, signal-1 points after
// the first line point.
func MACD(data []model.Candle, fast, slow, signal int) (model.MACD, error) {
	if err := checkMACD(fast, slow, signal); err != nil {
		return model.MACD{}, err
	}

	closes := closeSeries(data)
	fastEMA := emaOf(closes, fast)
	slowEMA := emaOf(closes, slow)

	line := subtract(fastEMA, slowEMA)
	sig := emaOf(line, signal)
	hist := subtract(line, sig)

	return model.MACD{Line: line, Signal: sig, Histogram: hist}, nil
}

// subtract returns a - b for every time present in both, in a's order.
func subtract(a, b model.Series) model.Series {
	idx := b.Index()
	out := make(model.Series, 0, len(b))
	for _, p := range a {
		if v, ok := idx[p.Time]; ok {
			out = append(out, model.Point{Time: p.Time, Value: p.Value - v})
		}
	}
	return out
}
