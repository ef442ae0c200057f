package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joaaoazul/hypermint/config"
	"github.com/joaaoazul/hypermint/internal/gateway"
	"github.com/joaaoazul/hypermint/internal/logger"
)

var renderFlags struct {
	symbol     string
	indicators string
	width      int
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Build a chart once and print its panes as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		// Logs go to stderr so stdout stays valid JSON.
		slog.SetDefault(logger.New(os.Stderr, "chartd", logger.ParseLevel(cfg.LogLevel)))

		symbol := renderFlags.symbol
		if symbol == "" {
			symbol = cfg.Symbol
		}
		active := cfg.Active()
		if cmd.Flags().Changed("indicators") {
			active = splitList(renderFlags.indicators)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return render(ctx, cfg, os.Stdout, symbol, active, renderFlags.width)
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderFlags.symbol, "symbol", "", "symbol to chart (default $SYMBOL)")
	renderCmd.Flags().StringVar(&renderFlags.indicators, "indicators", "", "comma-separated indicators, e.g. RSI,MACD")
	renderCmd.Flags().IntVar(&renderFlags.width, "width", 0, "container width applied to every pane")
	rootCmd.AddCommand(renderCmd)
}

func render(ctx context.Context, cfg *config.Config, w io.Writer, symbol string, active []string, width int) error {
	engine, err := engineOptions(cfg)
	if err != nil {
		return err
	}
	f, err := openFeed(cfg)
	if err != nil {
		return err
	}
	defer f.Close()

	hub := gateway.NewHub(gateway.Options{Source: f.source, Engine: engine, FeedName: cfg.Feed})
	defer hub.Close()

	panes, err := hub.Render(ctx, symbol, active, width)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(gateway.LayoutMsg{Type: gateway.MsgLayout, Symbol: symbol, Panes: panes})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
