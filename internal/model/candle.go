package model

// Candle is one OHLCV bucket of a chart series.
// Time is the bucket start in unix seconds; candles of one series are ordered
// by strictly increasing Time.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Up reports whether the candle closed at or above its open.
func (c *Candle) Up() bool {
	return c.Close >= c.Open
}
