package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"

	"github.com/joaaoazul/hypermint/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

// Reader provides read-only access to stored candle snapshots.
type Reader struct {
	db *sql.DB
}

var (
	_ model.CandleSource = (*Reader)(nil)
	_ model.SymbolLister = (*Reader)(nil)
)

// NewReader opens a SQLite connection for reading. The schema is created if
// the file is new, so an empty database reads as "no candles".
func NewReader(dbPath string) (*Reader, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("sqlite open reader: %w", err)
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	slog.Info("sqlite reader opened", slog.String("path", dbPath))
	return &Reader{db: db}, nil
}

// DB returns the underlying sql.DB for health checks.
func (r *Reader) DB() *sql.DB { return r.db }

// LoadCandles reads every candle of symbol ordered by timestamp ascending.
func (r *Reader) LoadCandles(ctx context.Context, symbol string) ([]model.Candle, error) {
	return r.LoadCandlesAfter(ctx, symbol, math.MinInt64)
}

// LoadCandlesAfter reads candles of symbol with ts > afterTS.
func (r *Reader) LoadCandlesAfter(ctx context.Context, symbol string, afterTS int64) ([]model.Candle, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT ts, open, high, low, close, volume
		FROM candles
		WHERE symbol = ? AND ts > ?
		ORDER BY ts ASC
	`, symbol, afterTS)
	if err != nil {
		return nil, fmt.Errorf("sqlite query candles: %w", err)
	}
	defer rows.Close()

	candles := []model.Candle{}
	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.Time, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("sqlite scan candles: %w", err)
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}

// Symbols lists the symbols that have at least one candle.
func (r *Reader) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT symbol FROM candles ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query symbols: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close closes the reader.
func (r *Reader) Close() error {
	return r.db.Close()
}
