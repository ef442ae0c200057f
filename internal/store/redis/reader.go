package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jpillora/backoff"

	"github.com/joaaoazul/hypermint/internal/model"
)

// ReaderConfig configures the Redis reader.
type ReaderConfig struct {
	Addr     string
	Password string
	DB       int

	// Breaker settings; zero values use 5 failures and a 10s cooldown.
	MaxFailures int
	Cooldown    time.Duration
}

// Reader loads candle snapshots from Redis and watches the update channels.
type Reader struct {
	client  *goredis.Client
	breaker *CircuitBreaker
	log     *slog.Logger
}

var (
	_ model.CandleSource  = (*Reader)(nil)
	_ model.CandleWatcher = (*Reader)(nil)
	_ model.SymbolLister  = (*Reader)(nil)
)

// NewReader creates a new Redis Reader and pings the server.
func NewReader(cfg ReaderConfig) (*Reader, error) {
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

	r := newReader(client, cfg)
	r.log.Info("connected", slog.String("addr", cfg.Addr))
	return r, nil
}

func newReader(client *goredis.Client, cfg ReaderConfig) *Reader {
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 10 * time.Second
	}

	log := slog.Default().With(slog.String("component", "redis-reader"))
	cb := NewCircuitBreaker(maxFailures, cooldown)
	cb.OnStateChange = func(from, to State) {
		log.Warn("circuit breaker transition", slog.String("from", from.String()), slog.String("to", to.String()))
	}
	return &Reader{client: client, breaker: cb, log: log}
}

// Client returns the underlying Redis client for health checks.
func (r *Reader) Client() *goredis.Client { return r.client }

// Breaker exposes the read circuit breaker.
func (r *Reader) Breaker() *CircuitBreaker { return r.breaker }

// LoadCandles returns symbol's snapshot. A missing key is an empty snapshot.
func (r *Reader) LoadCandles(ctx context.Context, symbol string) ([]model.Candle, error) {
	var candles []model.Candle
	err := r.breaker.Execute(func() error {
		data, err := r.client.Get(ctx, CandlesKey(symbol)).Result()
		if errors.Is(err, goredis.Nil) {
			candles = []model.Candle{}
			return nil
		}
		if err != nil {
			return fmt.Errorf("redis GET %s: %w", CandlesKey(symbol), err)
		}
		candles, err = decodeCandles(data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return candles, nil
}

// Symbols scans the snapshot keys and returns their symbols sorted.
func (r *Reader) Symbols(ctx context.Context) ([]string, error) {
	symbols := []string{}
	err := r.breaker.Execute(func() error {
		iter := r.client.Scan(ctx, 0, candlesPattern, 100).Iterator()
		for iter.Next(ctx) {
			if s, ok := symbolFromKey(iter.Val()); ok {
				symbols = append(symbols, s)
			}
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("redis SCAN %s: %w", candlesPattern, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(symbols)
	return symbols, nil
}

// WatchCandles subscribes to every update channel and calls onChange with the
// symbol of each announced snapshot. Dropped subscriptions are re-established
// with exponential backoff. Blocks until ctx is cancelled.
func (r *Reader) WatchCandles(ctx context.Context, onChange func(symbol string)) error {
	b := &backoff.Backoff{Min: 200 * time.Millisecond, Max: 10 * time.Second, Factor: 2, Jitter: true}
	for {
		err := r.watchOnce(ctx, onChange, b)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := b.Duration()
		r.log.Warn("update subscription lost, retrying",
			slog.Any("error", err),
			slog.Duration("backoff", wait),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (r *Reader) watchOnce(ctx context.Context, onChange func(string), b *backoff.Backoff) error {
	sub := r.client.PSubscribe(ctx, updatePattern)
	defer sub.Close()

	// Wait for the subscription confirmation before reading messages.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis PSUBSCRIBE %s: %w", updatePattern, err)
	}
	b.Reset()
	r.log.Info("watching candle updates", slog.String("pattern", updatePattern))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return errors.New("pubsub channel closed")
			}
			symbol, ok := symbolFromChannel(msg.Channel)
			if !ok {
				continue
			}
			onChange(symbol)
		}
	}
}

// Close closes the Redis client.
func (r *Reader) Close() error {
	return r.client.Close()
}
