package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iwvelando/emi-calculator/internal/cache"
	"github.com/iwvelando/emi-calculator/internal/logging"
	"github.com/iwvelando/emi-calculator/internal/metrics"
	"github.com/iwvelando/emi-calculator/internal/server"
	"github.com/iwvelando/emi-calculator/internal/service"
	"github.com/iwvelando/emi-calculator/internal/store"
	"github.com/iwvelando/emi-calculator/pkg/constants"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	configLocation := flag.String("config", constants.DefaultServerConfigFile, "path to server configuration file")
	address := flag.String("address", "", "listen address override, e.g. :4000")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	cfg, err := server.LoadConfig(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}
	if *address != "" {
		cfg.Address = *address
	}

	logger, err := logging.New(cfg.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	repo, closeStore, err := store.New(startupCtx, cfg.Storage.Driver, cfg.Storage.DSN)
	cancelStartup()
	if err != nil {
		logger.Fatal("failed to open result store",
			zap.String("op", "main"),
			zap.String("driver", cfg.Storage.Driver),
			zap.Error(err),
		)
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close result store",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}()

	resultCache, err := cache.New(cfg.Cache.Driver, cfg.Cache.Address, cfg.CacheTTL(), logger)
	if err != nil {
		logger.Fatal("failed to configure result cache",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	if redisCache, ok := resultCache.(*cache.RedisCache); ok {
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			logger.Warn("redis is unreachable, results will be recomputed until it recovers",
				zap.String("op", "main"),
				zap.String("address", cfg.Cache.Address),
				zap.Error(err),
			)
		}
		cancelPing()
		defer func() {
			_ = redisCache.Close()
		}()
	}

	m := metrics.New()
	opts := []service.Option{
		service.WithMetrics(m),
		service.WithStartMonth(cfg.Anchor()),
	}
	if resultCache != nil {
		opts = append(opts, service.WithCache(resultCache))
	}
	if cfg.ProcessingFee != nil {
		opts = append(opts, service.WithDefaultProcessingFee(*cfg.ProcessingFee))
	}
	calc := service.NewCalculator(repo, logger, opts...)

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           server.NewHandler(calc, m, logger, cfg.BodySizeBytes(), version),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("op", "main"),
			zap.String("address", cfg.Address),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("cache", cfg.Cache.Driver),
			zap.String("version", version),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
		return
	case <-quit:
		logger.Info("shutting down server", zap.String("op", "main"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info("server exited", zap.String("op", "main"))
}
