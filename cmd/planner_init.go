package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/network-planner/internal/annotate"
	"github.com/sells-group/network-planner/internal/dataset"
	"github.com/sells-group/network-planner/internal/observability"
	"github.com/sells-group/network-planner/internal/planner"
	"github.com/sells-group/network-planner/pkg/geocode"
)

// plannerEnv holds the planner and the resources backing it.
type plannerEnv struct {
	Planner *planner.Planner
	Metrics *observability.Collector

	cache           *geocode.Cache
	pool            *pgxpool.Pool
	shutdownTracing func(context.Context) error
}

// Close releases resources held by the planner environment.
func (pe *plannerEnv) Close() {
	if pe.cache != nil {
		_ = pe.cache.Close()
	}
	if pe.pool != nil {
		pe.pool.Close()
	}
	if pe.shutdownTracing != nil {
		observability.ShutdownWithTimeout(context.Background(), pe.shutdownTracing)
	}
}

// initPlanner wires tracing, metrics, the region source and the geocoders
// from cfg. datasetLocation overrides cfg.Dataset.Location when non-empty.
// Callers should defer env.Close().
func initPlanner(ctx context.Context, reg prometheus.Registerer, datasetLocation string) (*plannerEnv, error) {
	env := &plannerEnv{}

	shutdown, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	env.shutdownTracing = shutdown

	metrics, err := observability.NewCollector(reg)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Metrics = metrics

	opts := []planner.Option{planner.WithMetrics(metrics)}

	location := datasetLocation
	if location == "" {
		location = cfg.Dataset.Location
	}
	if location != "" {
		opts = append(opts, planner.WithSource(
			dataset.NewSource(location, cfg.Dataset.SheetName, cfg.Geocode.Nominatim.UserAgent, 0),
		))
	}

	if cfg.Annotate.Enabled {
		reverser, err := env.initReverser(ctx, metrics)
		if err != nil {
			env.Close()
			return nil, err
		}
		opts = append(opts, planner.WithAnnotator(annotate.New(reverser,
			annotate.WithTimeout(time.Duration(cfg.Annotate.TimeoutSecs)*time.Second),
			annotate.WithConcurrency(cfg.Annotate.Concurrency),
			annotate.WithSentinel(cfg.Annotate.Sentinel),
		)))
	}

	env.Planner = planner.New(opts...)
	return env, nil
}

// initReverser builds the provider cascade in configured order, wrapped by
// the SQLite cache when a cache path is set.
func (pe *plannerEnv) initReverser(ctx context.Context, metrics *observability.Collector) (geocode.Reverser, error) {
	var providers []geocode.Provider
	for _, name := range cfg.Geocode.Providers {
		switch name {
		case "nominatim":
			providers = append(providers, geocode.NewNominatimProvider(
				geocode.WithBaseURL(cfg.Geocode.Nominatim.BaseURL),
				geocode.WithUserAgent(cfg.Geocode.Nominatim.UserAgent),
				geocode.WithRateLimit(cfg.Geocode.Nominatim.RateLimit),
			))
		case "google":
			if cfg.Geocode.Google.Key == "" {
				zap.L().Warn("geocode: google provider configured without a key, skipping")
				continue
			}
			providers = append(providers, geocode.NewGoogleProvider(cfg.Geocode.Google.Key,
				geocode.WithRateLimit(cfg.Geocode.Google.RateLimit),
			))
		case "tiger":
			if cfg.Geocode.Tiger.DatabaseURL == "" {
				zap.L().Warn("geocode: tiger provider configured without a database url, skipping")
				continue
			}
			pool, err := pgxpool.New(ctx, cfg.Geocode.Tiger.DatabaseURL)
			if err != nil {
				return nil, eris.Wrap(err, "geocode: connect tiger database")
			}
			pe.pool = pool
			providers = append(providers, geocode.NewTigerProvider(pool))
		}
	}
	if len(providers) == 0 {
		zap.L().Warn("geocode: no usable providers, location names will use the sentinel")
		return nil, nil
	}

	var reverser geocode.Reverser = geocode.NewCascadeClient(geocode.BreakerConfig{
		FailureThreshold: cfg.Geocode.Breaker.FailureThreshold,
		ResetTimeout:     time.Duration(cfg.Geocode.Breaker.ResetTimeoutSecs) * time.Second,
	}, metrics, providers...)

	if cfg.Geocode.Cache.Path != "" {
		cache, err := geocode.OpenCache(ctx, cfg.Geocode.Cache.Path, time.Duration(cfg.Geocode.Cache.TTLDays)*24*time.Hour)
		if err != nil {
			return nil, err
		}
		pe.cache = cache
		reverser = geocode.NewCachedReverser(reverser, cache)
	}
	return reverser, nil
}
