package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/pemrank/internal/config"
	"github.com/kailas-cloud/pemrank/internal/db"
	dbRedis "github.com/kailas-cloud/pemrank/internal/db/redis"
	logpkg "github.com/kailas-cloud/pemrank/internal/logger"
	"github.com/kailas-cloud/pemrank/internal/metrics"
	"github.com/kailas-cloud/pemrank/internal/repository/rankcache"
	chiTransport "github.com/kailas-cloud/pemrank/internal/transport/chi"
	"github.com/kailas-cloud/pemrank/internal/transport/wire"
	healthuc "github.com/kailas-cloud/pemrank/internal/usecase/health"
	rankuc "github.com/kailas-cloud/pemrank/internal/usecase/rank"
	"github.com/kailas-cloud/pemrank/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	cal := cfg.Ranking
	logger.Info("Starting pemrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("calibration_version", cal.Version),
		zap.String("calibration_fingerprint", cal.Fingerprint()),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
	)

	// Register ranking metrics explicitly (no init())
	metrics.RegisterRankingMetrics()

	engine, err := rankuc.NewEngine(cal)
	if err != nil {
		logger.Fatal("Invalid calibration", zap.Error(err))
	}

	// Optional response cache. Pass a nil interface, not a typed nil pointer,
	// when the cache is disabled.
	var (
		cache  rankuc.Cache
		pinger healthuc.CachePinger
	)
	if cfg.Cache.Enabled {
		store := mustOpenStore(cfg.Cache, logger)
		defer store.Close()
		cache = rankcache.New(store, time.Duration(cfg.Cache.TTLSec)*time.Second)
		pinger = store
	}

	rankSvc := rankuc.NewService(engine, cache)
	healthSvc := healthuc.New(pinger, cal.Version)

	server := chiTransport.NewServer(rankSvc, wire.NewBinder(cal.MaxCandidates), healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		APIKeys:    cfg.Auth.APIKeys,
		TrustProxy: cfg.HTTP.TrustProxy,
		RateLimit:  rateLimitConfig(cfg.RateLimit),
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// mustOpenStore connects the response cache. Valkey and Redis share the rueidis store.
func mustOpenStore(cfg config.CacheConfig, logger *zap.Logger) db.Store {
	logger.Info("Connecting response cache",
		zap.String("driver", cfg.Driver),
		zap.Strings("addrs", cfg.Addrs),
	)
	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Addrs,
		Password: cfg.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create cache store", zap.Error(err))
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Cache not ready", zap.Error(err))
	}
	logger.Info("Connected to response cache")
	return store
}

func rateLimitConfig(cfg config.RateLimitConfig) chiTransport.RateLimitConfig {
	if !cfg.Enabled {
		return chiTransport.RateLimitConfig{}
	}
	return chiTransport.RateLimitConfig{
		RPS:       cfg.RPS,
		Burst:     cfg.Burst,
		PerClient: cfg.PerClient,
	}
}
