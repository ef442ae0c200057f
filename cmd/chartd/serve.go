package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joaaoazul/hypermint/config"
	"github.com/joaaoazul/hypermint/internal/chart"
	"github.com/joaaoazul/hypermint/internal/gateway"
	"github.com/joaaoazul/hypermint/internal/logger"
	"github.com/joaaoazul/hypermint/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chart gateway and metrics server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.Init("chartd", logger.ParseLevel(cfg.LogLevel))
		return serve(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// engineOptions builds the per-session engine template from config.
func engineOptions(cfg *config.Config) (chart.Options, error) {
	specs, err := cfg.Specs()
	if err != nil {
		return chart.Options{}, err
	}
	return chart.Options{
		Planner:     cfg.Planner(),
		Colors:      cfg.Colors(),
		Specs:       specs,
		RightOffset: cfg.RightOffset,
	}, nil
}

func serve(cfg *config.Config) error {
	slog.Info("starting",
		slog.String("feed", cfg.Feed),
		slog.String("listen", cfg.ListenAddr),
		slog.String("symbol", cfg.Symbol),
	)

	engine, err := engineOptions(cfg)
	if err != nil {
		return err
	}

	f, err := openFeed(cfg)
	if err != nil {
		return err
	}
	defer f.Close()

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	health := metrics.NewHealthStatus(cfg.Feed)

	hub := gateway.NewHub(gateway.Options{
		Source:   f.source,
		Watcher:  f.watcher,
		Engine:   engine,
		Active:   cfg.Active(),
		FeedName: cfg.Feed,
		Metrics:  m,
		Health:   health,
	})
	defer hub.Close()

	metricsSrv := metrics.NewServer(cfg.MetricsAddr, prometheus.DefaultGatherer, health)
	metricsSrv.Start()

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           gateway.NewRouter(hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health.StartLivenessChecker(ctx, f.rdb, f.db, 10*time.Second)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		slog.Info("gateway listening", slog.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		hub.Close()
		metricsSrv.Stop(shutdownCtx)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("stopped with error", slog.Any("error", err))
		return err
	}
	slog.Info("stopped")
	return nil
}
