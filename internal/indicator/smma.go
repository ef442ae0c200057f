package indicator

// smma is a Smoothed Moving Average (Wilder-style smoothing).
// First value is the plain mean of the first period inputs, then
// SMMA = (prev*(period-1) + x) / period.
type smma struct {
	period  int
	count   int
	sum     float64
	current float64
}

func newSMMA(period int) *smma {
	return &smma{period: period}
}

func (s *smma) update(x float64) {
	s.count++

	if s.count <= s.period {
		// Accumulate for initial mean seed
		s.sum += x
		if s.count == s.period {
			s.current = s.sum / float64(s.period)
		}
		return
	}

	p := float64(s.period)
	s.current = (s.current*(p-1) + x) / p
}

func (s *smma) value() float64 { return s.current }

// smoothed reports whether at least one smoothing step followed the seed.
func (s *smma) smoothed() bool { return s.count > s.period }
