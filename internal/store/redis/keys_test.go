package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaaoazul/hypermint/internal/model"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "chart:candles:BTCUSDT", CandlesKey("BTCUSDT"))
	assert.Equal(t, "pub:chart:BTCUSDT", UpdateChannel("BTCUSDT"))

	sym, ok := symbolFromChannel(UpdateChannel("ETHUSDT"))
	assert.True(t, ok)
	assert.Equal(t, "ETHUSDT", sym)

	for _, bad := range []string{"pub:chart:", "pub:candle:60s:NSE:1", "other"} {
		_, ok := symbolFromChannel(bad)
		assert.False(t, ok, bad)
	}

	sym, ok = symbolFromKey(CandlesKey("SOLUSDT"))
	assert.True(t, ok)
	assert.Equal(t, "SOLUSDT", sym)
	for _, bad := range []string{"chart:candles:", "pub:chart:BTCUSDT"} {
		_, ok := symbolFromKey(bad)
		assert.False(t, ok, bad)
	}
}

func TestEncodeDecodeCandles(t *testing.T) {
	in := []model.Candle{
		{Time: 60, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10},
		{Time: 120, Open: 1.5, High: 1.6, Low: 1.1, Close: 1.2, Volume: 4},
	}
	data, err := encodeCandles(in)
	require.NoError(t, err)
	assert.Contains(t, data, `"time":60`)

	out, err := decodeCandles(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	empty, err := encodeCandles(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", empty)

	out, err = decodeCandles("null")
	require.NoError(t, err)
	assert.NotNil(t, out)

	_, err = decodeCandles("{not json")
	assert.Error(t, err)
}

// With nothing listening on the address every load fails, and after
// MaxFailures the breaker answers without touching the network.
func TestReader_BreakerOpensOnUnreachableRedis(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := newReader(client, ReaderConfig{MaxFailures: 2, Cooldown: time.Minute})
	defer r.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := r.LoadCandles(ctx, "BTCUSDT")
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrCircuitOpen))
	}
	_, err := r.LoadCandles(ctx, "BTCUSDT")
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.Equal(t, StateOpen, r.Breaker().CurrentState())
}

func TestReader_SymbolsFailsOnUnreachableRedis(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	r := newReader(client, ReaderConfig{MaxFailures: 1, Cooldown: time.Minute})
	defer r.Close()

	_, err := r.Symbols(context.Background())
	require.Error(t, err)
	_, err = r.Symbols(context.Background())
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}
