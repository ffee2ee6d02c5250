package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/crisp-geo/crisp/internal/db"
	"github.com/crisp-geo/crisp/internal/geodata"
	"github.com/crisp-geo/crisp/internal/insight"
	"github.com/crisp-geo/crisp/internal/webmap"
	"github.com/crisp-geo/crisp/pkg/places"
)

// appEnv holds the wired application components shared by the commands.
type appEnv struct {
	pool     db.Pool
	geocoder places.Client
	cache    *places.Cache
	registry *geodata.Registry
	fetcher  *geodata.Fetcher
	runner   *insight.Runner
	tiles    *webmap.TileProxy
}

// initEnv connects the store and builds the pipeline components from
// configuration.
func initEnv(ctx context.Context) (*appEnv, error) {
	pool, err := db.Connect(ctx, cfg.Store.Pool)
	if err != nil {
		return nil, eris.Wrap(err, "cmd: connect store")
	}

	env := &appEnv{pool: pool}

	opts := []places.Option{
		places.WithBaseURL(cfg.Places.BaseURL),
		places.WithCountryFilter(cfg.Places.CountryFilter),
		places.WithDataset(cfg.Places.Dataset),
		places.WithRateLimit(cfg.Places.RateLimit),
	}
	if cfg.Places.CachePath != "" {
		cache, err := places.OpenCache(cfg.Places.CachePath, cfg.Places.CacheTTLDays)
		if err != nil {
			pool.Close()
			return nil, eris.Wrap(err, "cmd: open geocode cache")
		}
		env.cache = cache
		opts = append(opts, places.WithCache(cache))
	}
	env.geocoder = places.NewClient(cfg.Places.Key, opts...)

	env.registry = geodata.NewRegistry(cfg.Store)
	queryCache := geodata.NewQueryCache(cfg.Fetch.CacheEntries, cfg.Fetch.CacheTTL)
	env.fetcher = geodata.NewFetcher(pool, queryCache, time.Duration(cfg.Fetch.TimeoutSecs)*time.Second)
	env.runner = insight.NewRunner(env.fetcher, env.registry)

	tileCache := webmap.NewTileCache(cfg.Tiles.CacheEntries, cfg.Tiles.CacheTTL)
	env.tiles = webmap.NewTileProxy(cfg.Tiles.BaseURL, cfg.Tiles.Key, tileCache)

	return env, nil
}

// Close releases the store pool and the geocode cache.
func (e *appEnv) Close() {
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			zap.L().Warn("close geocode cache", zap.Error(err))
		}
	}
	if e.pool != nil {
		e.pool.Close()
	}
}
