package main

import (
	"database/sql"
	"fmt"

	goredis "github.com/go-redis/redis/v8"

	"github.com/joaaoazul/hypermint/config"
	"github.com/joaaoazul/hypermint/internal/model"
	"github.com/joaaoazul/hypermint/internal/store/redis"
	"github.com/joaaoazul/hypermint/internal/store/sqlite"
)

// feed is the opened candle source plus the handles the health checker probes.
type feed struct {
	source  model.CandleSource
	watcher model.CandleWatcher // nil for sqlite
	rdb     *goredis.Client
	db      *sql.DB
}

func (f *feed) Close() error { return f.source.Close() }

func openFeed(cfg *config.Config) (*feed, error) {
	switch cfg.Feed {
	case config.FeedRedis:
		r, err := redis.NewReader(redis.ReaderConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, err
		}
		return &feed{source: r, watcher: r, rdb: r.Client()}, nil
	case config.FeedSQLite:
		r, err := sqlite.NewReader(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &feed{source: r, db: r.DB()}, nil
	}
	return nil, fmt.Errorf("unknown feed %q", cfg.Feed)
}
