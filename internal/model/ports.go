package model

import "context"

// ── Feed Port Interfaces ──
// These interfaces decouple the chart engine and gateway from the concrete
// candle feed (SQLite, Redis). The engine itself never touches them; it is
// handed a plain []Candle snapshot.

// CandleSource loads the full candle snapshot for a symbol.
type CandleSource interface {
	// LoadCandles returns candles ordered by ascending time.
	// An unknown symbol yields an empty slice, not an error.
	LoadCandles(ctx context.Context, symbol string) ([]Candle, error)

	// Close releases underlying resources.
	Close() error
}

// SymbolLister is implemented by sources that can enumerate their symbols.
type SymbolLister interface {
	// Symbols returns the symbols with a stored snapshot, sorted.
	Symbols(ctx context.Context) ([]string, error)
}

// CandleWatcher notifies when a symbol's snapshot has been replaced.
type CandleWatcher interface {
	// WatchCandles calls onChange with the symbol whenever new data is
	// published. Blocks until ctx is cancelled.
	WatchCandles(ctx context.Context, onChange func(symbol string)) error
}

// CandleWriter replaces a symbol's snapshot. Used by fixture tooling.
type CandleWriter interface {
	WriteCandles(ctx context.Context, symbol string, candles []Candle) error

	// Close releases underlying resources.
	Close() error
}
