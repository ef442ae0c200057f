package indicator

import (
	"fmt"

	"github.com/joaaoazul/hypermint/internal/model"
)

// BollingerBands returns middle = SMA(period) and upper/lower at
// multiplier population standard deviations (divide by period) of the same
// trailing window. The bands are symmetric around the middle by construction.
func BollingerBands(data []model.Candle, period int, multiplier float64) (model.Bands, error) {
	if err := checkPeriod("BB", period); err != nil {
		return model.Bands{}, err
	}
	if multiplier <= 0 {
		return model.Bands{}, fmt.Errorf("BB multiplier %v: %w", multiplier, ErrInvalidParameter)
	}

	n := len(data) - period + 1
	if n <= 0 {
		return model.Bands{Upper: model.Series{}, Middle: model.Series{}, Lower: model.Series{}}, nil
	}

	bands := model.Bands{
		Upper:  make(model.Series, 0, n),
		Middle: make(model.Series, 0, n),
		Lower:  make(model.Series, 0, n),
	}
	w := newWindow(period)
	for i := range data {
		w.push(data[i].Close)
		if !w.ready() {
			continue
		}
		mid := w.mean()
		dev := w.stddev(mid) * multiplier
		t := data[i].Time
		bands.Middle = append(bands.Middle, model.Point{Time: t, Value: mid})
		bands.Upper = append(bands.Upper, model.Point{Time: t, Value: mid + dev})
		bands.Lower = append(bands.Lower, model.Point{Time: t, Value: mid - dev})
	}
	return bands, nil
}
