package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joaaoazul/hypermint/config"
	"github.com/joaaoazul/hypermint/internal/candles"
	"github.com/joaaoazul/hypermint/internal/logger"
	"github.com/joaaoazul/hypermint/internal/model"
	"github.com/joaaoazul/hypermint/internal/store/redis"
	"github.com/joaaoazul/hypermint/internal/store/sqlite"
)

var seedFlags struct {
	csv    string
	symbol string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import candles from a CSV file into the feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Init("chartd", logger.ParseLevel(cfg.LogLevel))

		symbol := seedFlags.symbol
		if symbol == "" {
			symbol = cfg.Symbol
		}
		return seed(cmd.Context(), cfg, seedFlags.csv, symbol)
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFlags.csv, "csv", "", "CSV file with time,open,high,low,close[,volume] rows")
	seedCmd.Flags().StringVar(&seedFlags.symbol, "symbol", "", "symbol to store the candles under (default $SYMBOL)")
	seedCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(seedCmd)
}

func seed(ctx context.Context, cfg *config.Config, path, symbol string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := readCandlesCSV(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := candles.NewStore(data, candles.VolumeColors{}).Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	writers := []model.CandleWriter{}
	sw, err := sqlite.New(sqlite.WriterConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		return err
	}
	writers = append(writers, sw)

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	replaced, err := sw.LastTimestamp(ctx, symbol)
	if err != nil {
		sw.Close()
		return err
	}

	if cfg.Feed == config.FeedRedis {
		rw, err := redis.New(redis.WriterConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			sw.Close()
			return err
		}
		writers = append(writers, rw)
	}

	for _, w := range writers {
		defer w.Close()
		if err := w.WriteCandles(ctx, symbol, data); err != nil {
			return err
		}
	}

	slog.Info("seeded",
		slog.String("symbol", symbol),
		slog.Int("candles", len(data)),
		slog.Int("stores", len(writers)),
		slog.Int64("replaced_through", replaced),
	)
	return nil
}
