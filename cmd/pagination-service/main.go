package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/edgecomet/pagination/internal/common/config"
	"github.com/edgecomet/pagination/internal/common/logger"
	"github.com/edgecomet/pagination/internal/common/metricsserver"
	"github.com/edgecomet/pagination/internal/common/redis"
	"github.com/edgecomet/pagination/internal/pagination/headlinks"
	"github.com/edgecomet/pagination/internal/pagination/rewrite"
	pagesignal "github.com/edgecomet/pagination/internal/pagination/signal"
	"github.com/edgecomet/pagination/internal/pagination/totals"
	"github.com/edgecomet/pagination/internal/service"
	"github.com/edgecomet/pagination/internal/service/metrics"
)

func main() {
	configPath := flag.String("c", "configs/example/pagination-service.yaml", "path to pagination service configuration file")
	flag.Parse()

	// Create initial logger for startup
	initialLogger, err := logger.NewDefaultLogger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	initialLogger.Info("Starting Pagination Service",
		zap.String("config_path", *configPath))

	cfg, err := config.LoadServiceConfig(*configPath, initialLogger.Logger)
	if err != nil {
		initialLogger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Reconfigure logger (INFO during startup if the configured level is higher)
	dynamicLogger, err := logger.NewLoggerWithStartupOverride(cfg.Log)
	if err != nil {
		initialLogger.Fatal("Failed to create configured logger", zap.Error(err))
	}
	defer dynamicLogger.Sync()
	zapLogger := dynamicLogger.Logger

	promMetrics := metrics.NewPrometheusMetrics(cfg.Metrics.Namespace, zapLogger)

	opts := service.Options{
		Emitter:        headlinks.NewEmitter(signatures(cfg.Pagination.Signatures)),
		Metrics:        promMetrics,
		InjectScript:   cfg.Pagination.InjectScript,
		RequestTimeout: time.Duration(cfg.Server.Timeout),
	}

	// The totals cache is optional: without it head links rely on the host's query total
	var cache pagesignal.TotalsCache
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.NewClient(&cfg.Redis, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()

		cache = totals.NewStore(redisClient, redis.NewKeyGenerator(cfg.Redis.KeyPrefix), zapLogger,
			totals.WithTTL(time.Duration(cfg.Pagination.CacheTTL)),
			totals.WithTimeout(time.Duration(cfg.Redis.Timeout)),
			totals.WithRecorder(promMetrics))
		opts.Cache = redisClient
	} else {
		zapLogger.Warn("Redis address not configured, totals cache disabled")
	}

	resolver := pagesignal.NewResolver(cache, zapLogger)
	opts.Resolver = resolver
	opts.Rewriter = rewrite.NewRewriter(resolver, cfg.Pagination.WindowSize, zapLogger)

	svc, err := service.New(opts, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to create pagination service", zap.Error(err))
	}

	metricsServer, err := metricsserver.Start(cfg.Metrics, promMetrics, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to start metrics server", zap.Error(err))
	}

	server := service.NewServer(cfg.Server, svc.ServeHTTP, zapLogger)
	if err := server.Start(cfg.Server.Listen); err != nil {
		zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	zapLogger.Info("Pagination service started",
		zap.String("api_addr", server.Addr()),
		zap.Int("window_size", cfg.Pagination.WindowSize),
		zap.Bool("totals_cache", cache != nil))

	// Switch to configured log level after startup is complete
	dynamicLogger.SwitchToConfiguredLevel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	dynamicLogger.EnsureInfoLevelForShutdown()
	zapLogger.Info("Shutting down Pagination Service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
	}
	if metricsServer != nil {
		if err := metricsServer.ShutdownWithContext(shutdownCtx); err != nil {
			zapLogger.Error("Failed to shutdown metrics server gracefully", zap.Error(err))
		}
	}

	zapLogger.Info("Pagination service stopped")
}

func signatures(configured []string) headlinks.SignaturePredicate {
	if len(configured) == 0 {
		return nil
	}
	return headlinks.SubstringPredicate(configured)
}
