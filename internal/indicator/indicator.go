// Package indicator provides technical indicator calculations over candle data.
//
// Every indicator is a pure function: candles and parameters in, series out.
// Nothing is cached between calls, so the functions are safe to call from any
// number of goroutines. Output points are keyed by the time of the candle that
// produced them and are withheld until the indicator has warmed up.
//
// Insufficient history is not an error: the result is simply empty. Invalid
// parameters (non-positive periods, a fast MACD period not below the slow one)
// are reported as ErrInvalidParameter.
package indicator

import (
	"errors"
	"fmt"

	"github.com/joaaoazul/hypermint/internal/candles"
	"github.com/joaaoazul/hypermint/internal/model"
)

var (
	// ErrInvalidParameter marks a caller configuration error.
	ErrInvalidParameter = errors.New("invalid indicator parameter")
	// ErrUnknownKind is returned when parsing an unsupported indicator name.
	ErrUnknownKind = errors.New("unknown indicator kind")
)

// Result holds the output of one Spec. Exactly one of Line, Bands or MACD is
// populated, depending on the kind.
type Result struct {
	Spec  Spec
	Line  model.Series // SMA, EMA, RSI
	Bands *model.Bands // BB
	MACD  *model.MACD  // MACD
}

// Empty reports whether the result carries no points at all.
func (r Result) Empty() bool {
	switch {
	case r.Bands != nil:
		return len(r.Bands.Middle) == 0
	case r.MACD != nil:
		return len(r.MACD.Line) == 0
	default:
		return len(r.Line) == 0
	}
}

// Compute runs the indicator described by spec over the store's candles.
func Compute(store *candles.Store, spec Spec) (Result, error) {
	res := Result{Spec: spec}
	if err := spec.Validate(); err != nil {
		return res, err
	}

	data := store.Candles()
	var err error
	switch spec.Kind {
	case KindSMA:
		res.Line, err = SMA(data, spec.Period)
	case KindEMA:
		res.Line, err = EMA(data, spec.Period)
	case KindRSI:
		res.Line, err = RSI(data, spec.Period)
	case KindBB:
		var b model.Bands
		b, err = BollingerBands(data, spec.Period, spec.Multiplier)
		res.Bands = &b
	case KindMACD:
		var m model.MACD
		m, err = MACD(data, spec.Fast, spec.Slow, spec.Signal)
		res.MACD = &m
	default:
		return res, fmt.Errorf("%q: %w", spec.Kind, ErrUnknownKind)
	}
	return res, err
}

// closeSeries views candles as a (time, close) series.
func closeSeries(data []model.Candle) model.Series {
	out := make(model.Series, len(data))
	for i := range data {
		out[i] = model.Point{Time: data[i].Time, Value: data[i].Close}
	}
	return out
}

func checkPeriod(name string, period int) error {
	if period <= 0 {
		return fmt.Errorf("%s period %d: %w", name, period, ErrInvalidParameter)
	}
	return nil
}
