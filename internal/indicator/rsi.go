package indicator

import "github.com/joaaoazul/hypermint/internal/model"

// Values returned when the average loss is zero and RS is undefined.
const (
	// RSIAllGains is used when there were gains but no losses.
	RSIAllGains = 100.0
	// RSIFlat is used when the window has neither gains nor losses.
	RSIFlat = 50.0
)

// RSI calculates the Relative Strength Index using Wilder's smoothing method.
//
// Average gain and loss are seeded from the first period price deltas
// (indices 1..period) and then smoothed with
// avg = (avg*(period-1) + x) / period for each later index. The first value is
// emitted at index period+1, after the first smoothing step.
// Values always lie in [0, 100]; see RSIAllGains and RSIFlat for avgLoss == 0.
func RSI(data []model.Candle, period int) (model.Series, error) {
	if err := checkPeriod("RSI", period); err != nil {
		return nil, err
	}
	if len(data) < period+2 {
		return model.Series{}, nil
	}

	gains, losses := newSMMA(period), newSMMA(period)
	out := make(model.Series, 0, len(data)-period-1)
	for i := 1; i < len(data); i++ {
		delta := data[i].Close - data[i-1].Close
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		gains.update(gain)
		losses.update(loss)

		if gains.smoothed() {
			out = append(out, model.Point{Time: data[i].Time, Value: rsiValue(gains.value(), losses.value())})
		}
	}
	return out, nil
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return RSIFlat
		}
		return RSIAllGains
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}
