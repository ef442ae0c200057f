package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"github.com/joaaoazul/hypermint/internal/model"
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	// TTL expires snapshots; zero keeps them forever.
	TTL time.Duration
}

// Writer replaces candle snapshots and announces them on the update channel.
type Writer struct {
	client *goredis.Client
	ttl    time.Duration
}

var _ model.CandleWriter = (*Writer)(nil)

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a new Redis Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis writer connected", slog.String("addr", cfg.Addr))
	return &Writer{client: client, ttl: cfg.TTL}, nil
}

// WriteCandles stores the snapshot and publishes the symbol on its update
// channel in a single pipeline round trip.
func (w *Writer) WriteCandles(ctx context.Context, symbol string, candles []model.Candle) error {
	data, err := encodeCandles(candles)
	if err != nil {
		return err
	}

	pipe := w.client.TxPipeline()
	pipe.Set(ctx, CandlesKey(symbol), data, w.ttl)
	pipe.Publish(ctx, UpdateChannel(symbol), symbol)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis write %s (%d candles): %w", symbol, len(candles), err)
	}
	return nil
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
