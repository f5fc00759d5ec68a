// Package bootstrap wires the order sync components shared by the server and
// the ordersync CLI.
package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/config"
	"whitelabel/apps/backend/internal/event_publisher"
	"whitelabel/apps/backend/internal/exchange"
	"whitelabel/apps/backend/internal/metrics"
	"whitelabel/apps/backend/internal/reconciler"
	"whitelabel/apps/backend/internal/repository"
)

type OrderSync struct {
	DB        *sql.DB
	Client    *ethclient.Client
	Orders    *repository.OrderRepository
	Publisher *event_publisher.EventPublisher // nil when Kafka is not configured
	Updater   *reconciler.OrderIDUpdater
	logger    *zap.Logger
	closeOnce sync.Once
}

// NewOrderSync connects to the database and the RPC node, applies migrations
// and builds the updater. Metrics are registered on reg.
func NewOrderSync(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *zap.Logger) (*OrderSync, error) {
	o := &OrderSync{logger: logger}

	db, err := sql.Open("postgres", cfg.DbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	o.DB = db

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		o.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := repository.InitMigration(db); err != nil {
		o.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	client, err := ethclient.DialContext(ctx, cfg.RpcURL)
	if err != nil {
		o.Close()
		return nil, fmt.Errorf("failed to connect to Ethereum client: %w", err)
	}
	o.Client = client

	decoder, err := newDecoder(cfg, logger)
	if err != nil {
		o.Close()
		return nil, err
	}

	// keep the interface nil when Kafka is off so the updater skips publishing
	var publisher event_publisher.ResolutionPublisher
	if cfg.KafkaBroker != "" {
		p, err := event_publisher.NewEventPublisher(cfg.KafkaBroker, cfg.KafkaTopic, logger)
		if err != nil {
			o.Close()
			return nil, err
		}
		o.Publisher = p
		publisher = p
	} else {
		logger.Info("KAFKA_BROKER not set, order id resolutions will not be published")
	}

	o.Orders = repository.NewOrderRepository(db, logger)
	o.Updater = reconciler.NewOrderIDUpdater(
		o.Orders,
		client,
		decoder,
		publisher,
		metrics.NewOrderSyncMetrics(reg),
		logger,
		reconciler.Options{
			BatchSize:      cfg.OrderSyncBatchSize,
			Delay:          cfg.OrderSyncDelay,
			StaleAfter:     cfg.OrderSyncStaleAfter,
			PublishTimeout: cfg.OrderSyncPublishTimeout,
		})

	return o, nil
}

func newDecoder(cfg *config.Config, logger *zap.Logger) (*exchange.Decoder, error) {
	contractABI, err := exchange.LoadABI(cfg.ExchangeABIPath)
	if err != nil {
		return nil, err
	}

	var contract common.Address
	switch {
	case cfg.ExchangeAddress == "":
		logger.Warn("Exchange contract address not set, accepting order events from any contract")
	case !common.IsHexAddress(cfg.ExchangeAddress):
		return nil, fmt.Errorf("invalid exchange contract address %q", cfg.ExchangeAddress)
	default:
		contract = common.HexToAddress(cfg.ExchangeAddress)
	}

	return exchange.NewDecoder(contractABI, contract)
}

// Close stops the updater timer and releases connections. Only the first call
// has an effect.
func (o *OrderSync) Close() {
	o.closeOnce.Do(o.close)
}

func (o *OrderSync) close() {
	if o.Updater != nil {
		o.Updater.Stop()
		o.Updater.Wait()
	}
	if o.Publisher != nil {
		if err := o.Publisher.Close(); err != nil {
			o.logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}
	if o.Client != nil {
		o.Client.Close()
	}
	if o.DB != nil {
		if err := o.DB.Close(); err != nil {
			o.logger.Error("Failed to close database", zap.Error(err))
		}
	}
}
