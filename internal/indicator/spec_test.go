package indicator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaaoazul/hypermint/internal/candles"
)

func TestParseSpec(t *testing.T) {
	tests := []struct {
		in   string
		want Spec
	}{
		{"SMA", Spec{Kind: KindSMA, Period: 20}},
		{"sma:50", Spec{Kind: KindSMA, Period: 50}},
		{" EMA:9 ", Spec{Kind: KindEMA, Period: 9}},
		{"RSI", Spec{Kind: KindRSI, Period: 14}},
		{"BB", Spec{Kind: KindBB, Period: 20, Multiplier: 2}},
		{"BB:10", Spec{Kind: KindBB, Period: 10, Multiplier: 2}},
		{"BB:10:2.5", Spec{Kind: KindBB, Period: 10, Multiplier: 2.5}},
		{"MACD", Spec{Kind: KindMACD, Fast: 12, Slow: 26, Signal: 9}},
		{"macd:5:35:5", Spec{Kind: KindMACD, Fast: 5, Slow: 35, Signal: 5}},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSpec(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSpec_Errors(t *testing.T) {
	_, err := ParseSpec("VWAP:20")
	assert.True(t, errors.Is(err, ErrUnknownKind), "got %v", err)

	for _, in := range []string{"SMA:0", "SMA:x", "SMA:1:2", "BB:20:0", "BB:20:2:1", "MACD:12:26", "MACD:26:12:9", "RSI:-1"} {
		_, err := ParseSpec(in)
		assert.True(t, errors.Is(err, ErrInvalidParameter), "%s: got %v", in, err)
	}
}

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs("SMA:20, RSI ,MACD:12:26:9,,SMA:50")
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, Spec{Kind: KindSMA, Period: 50}, specs[0], "later entry of the same kind wins")
	assert.Equal(t, KindRSI, specs[1].Kind)
	assert.Equal(t, KindMACD, specs[2].Kind)

	specs, err = ParseSpecs("")
	require.NoError(t, err)
	assert.Nil(t, specs)

	_, err = ParseSpecs("SMA:20,EMA:0")
	assert.Error(t, err)
}

func TestSpec_KeyAndLabel(t *testing.T) {
	assert.Equal(t, "sma_20", DefaultSpec(KindSMA).Key())
	assert.Equal(t, "bb_20_2", DefaultSpec(KindBB).Key())
	assert.Equal(t, "macd_12_26_9", DefaultSpec(KindMACD).Key())
	assert.Equal(t, "RSI (14)", DefaultSpec(KindRSI).Label())
	assert.Equal(t, "MACD (12, 26, 9)", DefaultSpec(KindMACD).Label())
	assert.Equal(t, "BB (20, 2.5)", Spec{Kind: KindBB, Period: 20, Multiplier: 2.5}.Label())
}

func TestKindClassification(t *testing.T) {
	for _, k := range []Kind{KindSMA, KindEMA, KindBB} {
		assert.True(t, k.Overlay(), k)
		assert.False(t, k.Oscillator(), k)
	}
	for _, k := range []Kind{KindRSI, KindMACD} {
		assert.True(t, k.Oscillator(), k)
		assert.False(t, k.Overlay(), k)
	}
	_, ok := ParseKind("ichimoku")
	assert.False(t, ok)
}

func TestCompute_Dispatch(t *testing.T) {
	store := candles.NewStore(randomWalk(120, 2), candles.VolumeColors{})

	for _, k := range []Kind{KindSMA, KindEMA, KindRSI} {
		res, err := Compute(store, DefaultSpec(k))
		require.NoError(t, err, k)
		assert.NotEmpty(t, res.Line, k)
		assert.False(t, res.Empty(), k)
		assert.Nil(t, res.Bands)
		assert.Nil(t, res.MACD)
	}

	res, err := Compute(store, DefaultSpec(KindBB))
	require.NoError(t, err)
	require.NotNil(t, res.Bands)
	assert.Len(t, res.Bands.Middle, 120-20+1)

	res, err = Compute(store, DefaultSpec(KindMACD))
	require.NoError(t, err)
	require.NotNil(t, res.MACD)
	assert.Len(t, res.MACD.Line, 120-26+1)
	assert.False(t, res.Empty())
}

func TestCompute_Errors(t *testing.T) {
	store := candles.NewStore(randomWalk(50, 2), candles.VolumeColors{})

	_, err := Compute(store, Spec{Kind: KindSMA})
	assert.True(t, errors.Is(err, ErrInvalidParameter), "missing period: %v", err)

	_, err = Compute(store, Spec{Kind: "VWAP", Period: 3})
	assert.True(t, errors.Is(err, ErrUnknownKind), "got %v", err)

	res, err := Compute(store, Spec{Kind: KindSMA, Period: 500})
	require.NoError(t, err)
	assert.True(t, res.Empty())
}
