package indicator

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies an indicator family.
type Kind string

const (
	KindSMA  Kind = "SMA"
	KindEMA  Kind = "EMA"
	KindBB   Kind = "BB"
	KindRSI  Kind = "RSI"
	KindMACD Kind = "MACD"
)

// ParseKind maps a name ("rsi", "MACD") to a Kind. ok is false for unknown names.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case KindSMA, KindEMA, KindBB, KindRSI, KindMACD:
		return k, true
	}
	return "", false
}

// Overlay reports whether the kind is drawn over the price pane.
func (k Kind) Overlay() bool {
	return k == KindSMA || k == KindEMA || k == KindBB
}

// Oscillator reports whether the kind needs a pane of its own.
func (k Kind) Oscillator() bool {
	return k == KindRSI || k == KindMACD
}

// Spec specifies a single indicator to compute.
// Period is used by SMA, EMA, RSI and BB; Multiplier by BB; Fast/Slow/Signal by MACD.
type Spec struct {
	Kind       Kind    `json:"kind" yaml:"kind"`
	Period     int     `json:"period,omitempty" yaml:"period,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	Fast       int     `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow       int     `json:"slow,omitempty" yaml:"slow,omitempty"`
	Signal     int     `json:"signal,omitempty" yaml:"signal,omitempty"`
}

// DefaultSpec returns the stock parameters for a kind:
// SMA 20, EMA 20, BB(20, 2), RSI 14, MACD(12, 26, 9).
func DefaultSpec(k Kind) Spec {
	switch k {
	case KindBB:
		return Spec{Kind: k, Period: 20, Multiplier: 2}
	case KindRSI:
		return Spec{Kind: k, Period: 14}
	case KindMACD:
		return Spec{Kind: k, Fast: 12, Slow: 26, Signal: 9}
	default:
		return Spec{Kind: k, Period: 20}
	}
}

// Validate rejects missing or non-positive parameters.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindSMA, KindEMA, KindRSI:
		return checkPeriod(string(s.Kind), s.Period)
	case KindBB:
		if err := checkPeriod("BB", s.Period); err != nil {
			return err
		}
		if s.Multiplier <= 0 {
			return fmt.Errorf("BB multiplier %v: %w", s.Multiplier, ErrInvalidParameter)
		}
		return nil
	case KindMACD:
		return checkMACD(s.Fast, s.Slow, s.Signal)
	}
	return fmt.Errorf("%q: %w", s.Kind, ErrUnknownKind)
}

// Key is a stable identifier, e.g. "sma_20", "bb_20_2", "macd_12_26_9".
func (s Spec) Key() string {
	k := strings.ToLower(string(s.Kind))
	switch s.Kind {
	case KindBB:
		return k + "_" + strconv.Itoa(s.Period) + "_" + formatFloat(s.Multiplier)
	case KindMACD:
		return k + "_" + strconv.Itoa(s.Fast) + "_" + strconv.Itoa(s.Slow) + "_" + strconv.Itoa(s.Signal)
	}
	return k + "_" + strconv.Itoa(s.Period)
}

// Label is the human-readable name, e.g. "RSI (14)" or "MACD (12, 26, 9)".
func (s Spec) Label() string {
	switch s.Kind {
	case KindBB:
		return fmt.Sprintf("BB (%d, %s)", s.Period, formatFloat(s.Multiplier))
	case KindMACD:
		return fmt.Sprintf("MACD (%d, %d, %d)", s.Fast, s.Slow, s.Signal)
	}
	return fmt.Sprintf("%s (%d)", s.Kind, s.Period)
}

// ParseSpec parses "KIND[:ARG...]". A bare kind gets DefaultSpec parameters.
//
//	SMA:50  EMA:9  RSI:14  BB:20:2.5  MACD:12:26:9  MACD
func ParseSpec(s string) (Spec, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	kind, ok := ParseKind(parts[0])
	if !ok {
		return Spec{}, fmt.Errorf("%q: %w", parts[0], ErrUnknownKind)
	}
	spec := DefaultSpec(kind)
	args := parts[1:]
	if len(args) == 0 {
		return spec, nil
	}

	ints := func(n int) ([]int, error) {
		if len(args) != n {
			return nil, fmt.Errorf("%q: want %d arguments, got %d: %w", s, n, len(args), ErrInvalidParameter)
		}
		out := make([]int, n)
		for i, a := range args {
			v, err := strconv.Atoi(strings.TrimSpace(a))
			if err != nil {
				return nil, fmt.Errorf("%q: %w", s, ErrInvalidParameter)
			}
			out[i] = v
		}
		return out, nil
	}

	switch kind {
	case KindBB:
		if len(args) > 2 {
			return Spec{}, fmt.Errorf("%q: want at most 2 arguments: %w", s, ErrInvalidParameter)
		}
		p, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil {
			return Spec{}, fmt.Errorf("%q: %w", s, ErrInvalidParameter)
		}
		spec.Period = p
		if len(args) == 2 {
			m, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
			if err != nil {
				return Spec{}, fmt.Errorf("%q: %w", s, ErrInvalidParameter)
			}
			spec.Multiplier = m
		}
	case KindMACD:
		v, err := ints(3)
		if err != nil {
			return Spec{}, err
		}
		spec.Fast, spec.Slow, spec.Signal = v[0], v[1], v[2]
	default:
		v, err := ints(1)
		if err != nil {
			return Spec{}, err
		}
		spec.Period = v[0]
	}
	return spec, spec.Validate()
}

// ParseSpecs parses a comma-separated list, e.g. "SMA:20,EMA:20,RSI:14".
// An empty string yields nil. Later entries of the same kind replace earlier
// ones: the chart shows at most one series per kind.
func ParseSpecs(s string) ([]Spec, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var specs []Spec
	seen := make(map[Kind]int)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		spec, err := ParseSpec(part)
		if err != nil {
			return nil, err
		}
		if i, dup := seen[spec.Kind]; dup {
			specs[i] = spec
			continue
		}
		seen[spec.Kind] = len(specs)
		specs = append(specs, spec)
	}
	return specs, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
