// api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"visitstats/api/cache"
	"visitstats/api/config"
	"visitstats/api/database"
	"visitstats/api/geo"
	"visitstats/api/handlers"
	"visitstats/api/jobs"
	"visitstats/api/logging"
	"visitstats/api/middleware"
	"visitstats/api/stats"
	"visitstats/api/store"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logging.SetLevelWithStr(cfg.Server.LogLevel)

	if cfg.Server.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	visitStore, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("failed to initialize visit store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	rdb, err := database.NewRedisClient(ctx, cfg.Cache)
	if err != nil {
		slog.Warn("stats cache unavailable, continuing without it", "error", err)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	reporter, err := newReporter(cfg, visitStore, rdb)
	if err != nil {
		slog.Error("failed to initialize stats reporter", "error", err)
		os.Exit(1)
	}

	resolver := geo.NewResolver(cfg.Geo)
	if closer, ok := resolver.(*geo.GeoIPResolver); ok {
		defer closer.Close()
	}

	if rdb != nil && cfg.Cache.WarmSchedule != "" {
		scheduler := jobs.NewScheduler()
		if err := scheduler.Register(cfg.Cache.WarmSchedule, jobs.NewStatsWarmer(reporter, 0)); err != nil {
			slog.Error("failed to schedule stats warm-up", "error", err)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	limiter := middleware.NewIPRateLimiter(cfg.Server.RateLimitPerMinute, cfg.Server.RateLimitBurst)
	go limiter.RunCleanup(ctx)

	visitHandlers := handlers.NewVisitHandlers(visitStore, reporter, resolver)
	r, err := newRouter(cfg.Server, visitHandlers, limiter)
	if err != nil {
		slog.Error("failed to build router", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("visit stats API starting", "addr", "http://localhost:"+cfg.Server.Port, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exiting")
}

// newReporter builds the aggregator in the configured stats time zone,
// fronted by the Redis cache when rdb is non-nil.
func newReporter(cfg *config.Config, s store.VisitStore, rdb *redis.Client) (*stats.CachedReporter, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	agg := stats.NewAggregator(s, loc, cfg.Stats.TopCountries)
	return stats.NewCachedReporter(agg, cache.NewRedisStatsCache(rdb, cfg.Cache.TTL.Std())), nil
}

// openStore connects the configured backend and makes sure its schema exists.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.VisitStore, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		dbClient, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewPostgresVisitStore(dbClient.DB)
		if err := s.EnsureSchema(ctx); err != nil {
			dbClient.Close()
			return nil, nil, err
		}
		return s, dbClient.Close, nil

	case config.DriverClickHouse:
		chClient, err := database.NewClickHouseDB(ctx, cfg.ClickHouse)
		if err != nil {
			return nil, nil, err
		}
		s := store.NewClickHouseVisitStore(chClient)
		if err := s.EnsureSchema(ctx); err != nil {
			chClient.Close()
			return nil, nil, err
		}
		return s, chClient.Close, nil

	case config.DriverMemory:
		slog.Warn("using in-memory visit store, data is lost on restart")
		return store.NewMemoryVisitStore(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
}
