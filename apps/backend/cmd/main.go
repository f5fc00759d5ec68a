package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/api"
	"whitelabel/apps/backend/internal/assets"
	"whitelabel/apps/backend/internal/bootstrap"
	"whitelabel/apps/backend/internal/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Starting application with configuration",
		zap.String("network", cfg.Network),
		zap.String("exchange_contract", cfg.ExchangeAddress),
		zap.String("kafka_broker", cfg.KafkaBroker),
		zap.String("kafka_topic", cfg.KafkaTopic),
		zap.Int("api_port", cfg.APIPort),
		zap.Bool("order_sync_enabled", cfg.OrderSyncEnabled),
		zap.Int("order_sync_interval_seconds", cfg.OrderSyncInterval),
		zap.Int("order_sync_batch_size", cfg.OrderSyncBatchSize),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orderSync, err := bootstrap.NewOrderSync(context.Background(), cfg, reg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize order sync", zap.Error(err))
	}

	assetRegistry, err := assets.LoadRegistry(cfg.AssetsPath, cfg.Network)
	if err != nil {
		logger.Fatal("Failed to load asset registry", zap.Error(err))
	}

	apiServer, err := api.NewServer(api.ServerConfig{
		Port:           cfg.APIPort,
		AdminAPIKey:    cfg.AdminAPIKey,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
		AssetCacheTTL:  cfg.AssetCacheTTL,
	}, orderSync.Orders, orderSync.Updater, orderSync.Client, assetRegistry, reg, logger)
	if err != nil {
		logger.Fatal("Failed to create API server", zap.Error(err))
	}
	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Fatal("API server failed", zap.Error(err))
		}
	}()

	if cfg.OrderSyncEnabled {
		orderSync.Updater.Start(cfg.OrderSyncInterval)
	} else {
		logger.Info("Order id updater disabled")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Received shutdown signal, starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Stop(ctx); err != nil {
		logger.Error("Error shutting down API server", zap.Error(err))
	}

	// Close waits for an in-flight reconciliation pass to finish
	orderSync.Close()

	logger.Info("Application shutdown complete")
}
