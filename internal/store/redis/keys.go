package redis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joaaoazul/hypermint/internal/model"
)

// Key layout:
//
//	chart:candles:{symbol}  JSON array of candles, ascending by time
//	pub:chart:{symbol}      PubSub channel announcing a replaced snapshot
const (
	candlesKeyPrefix = "chart:candles:"
	updateChPrefix   = "pub:chart:"
	updatePattern    = updateChPrefix + "*"
	candlesPattern   = candlesKeyPrefix + "*"
)

// CandlesKey is the key holding symbol's candle snapshot.
func CandlesKey(symbol string) string { return candlesKeyPrefix + symbol }

// UpdateChannel is the PubSub channel announcing a new snapshot of symbol.
func UpdateChannel(symbol string) string { return updateChPrefix + symbol }

// symbolFromKey extracts the symbol from a snapshot key.
func symbolFromKey(key string) (string, bool) {
	s := strings.TrimPrefix(key, candlesKeyPrefix)
	if s == key || s == "" {
		return "", false
	}
	return s, true
}

// symbolFromChannel extracts the symbol from an update channel name.
func symbolFromChannel(ch string) (string, bool) {
	s := strings.TrimPrefix(ch, updateChPrefix)
	if s == ch || s == "" {
		return "", false
	}
	return s, true
}

func encodeCandles(candles []model.Candle) (string, error) {
	if candles == nil {
		candles = []model.Candle{}
	}
	b, err := json.Marshal(candles)
	if err != nil {
		return "", fmt.Errorf("encode candles: %w", err)
	}
	return string(b), nil
}

func decodeCandles(data string) ([]model.Candle, error) {
	var out []model.Candle
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("decode candles: %w", err)
	}
	if out == nil {
		out = []model.Candle{}
	}
	return out, nil
}
