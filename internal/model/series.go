package model

// Point is a single value of a derived series, keyed by the candle time it was
// computed at.
type Point struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"` // per-point color for histograms
}

// Series is an ordered sequence of points with strictly increasing Time.
type Series []Point

// Index builds a time → value lookup.
func (s Series) Index() map[int64]float64 {
	m := make(map[int64]float64, len(s))
	for _, p := range s {
		m[p.Time] = p.Value
	}
	return m
}

// Bands is the composite output of Bollinger Bands.
type Bands struct {
	Upper  Series `json:"upper"`
	Middle Series `json:"middle"`
	Lower  Series `json:"lower"`
}

// MACD is the composite output of the MACD indicator.
type MACD struct {
	Line      Series `json:"line"`
	Signal    Series `json:"signal"`
	Histogram Series `json:"histogram"`
}
