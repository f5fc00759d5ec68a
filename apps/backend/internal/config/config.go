package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	NetworkMainnet = "mainnet"
	NetworkTestnet = "testnet"
)

type Config struct {
	Network                 string
	RpcURL                  string
	ExchangeAddress         string
	ExchangeABIPath         string
	AssetsPath              string
	DbURL                   string
	KafkaBroker             string
	KafkaTopic              string
	APIPort                 int
	AdminAPIKey             string
	OrderSyncEnabled        bool
	OrderSyncInterval       int // seconds
	OrderSyncBatchSize      int
	OrderSyncDelay          time.Duration
	OrderSyncStaleAfter     time.Duration
	OrderSyncPublishTimeout time.Duration
	TrustedProxies          []string // proxy IPs or CIDRs whose X-Forwarded-For is honored
	RateLimitRPS            float64
	RateLimitBurst          int
	AssetCacheTTL           time.Duration
}

// NewConfig loads configuration from the environment, reading a .env file
// first when one is present.
func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return Load()
}

// Load builds a Config from environment variables only.
func Load() (*Config, error) {
	network := strings.ToLower(getEnv("NETWORK", NetworkTestnet))
	if network != NetworkMainnet && network != NetworkTestnet {
		return nil, fmt.Errorf("invalid NETWORK %q: expected %s or %s", network, NetworkMainnet, NetworkTestnet)
	}

	suffix := strings.ToUpper(network)
	cfg := &Config{
		Network:             network,
		RpcURL:              getEnv("RPC_URL_"+suffix, os.Getenv("RPC_URL")),
		ExchangeAddress:     getEnv("EXCHANGE_CONTRACT_"+suffix, os.Getenv("EXCHANGE_CONTRACT")),
		ExchangeABIPath:     os.Getenv("EXCHANGE_ABI_PATH"),
		AssetsPath:          os.Getenv("ASSETS_PATH"),
		DbURL:               os.Getenv("DB_URL"),
		KafkaBroker:         os.Getenv("KAFKA_BROKER"),
		KafkaTopic:          getEnv("KAFKA_TOPIC", "order-id-resolved"),
		APIPort:             getEnvInt("API_PORT", 8080),
		AdminAPIKey:         os.Getenv("ADMIN_API_KEY"),
		OrderSyncEnabled:    getEnvBool("ORDER_SYNC_ENABLED", true),
		OrderSyncInterval:   getEnvInt("ORDER_SYNC_INTERVAL_SECONDS", 30),
		OrderSyncBatchSize:  getEnvInt("ORDER_SYNC_BATCH_SIZE", 10),
		OrderSyncDelay:      time.Duration(getEnvInt("ORDER_SYNC_DELAY_MS", 100)) * time.Millisecond,
		OrderSyncStaleAfter: getEnvDuration("ORDER_SYNC_STALE_AFTER", 24*time.Hour),
		RateLimitRPS:        getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:      getEnvInt("RATE_LIMIT_BURST", 20),
		AssetCacheTTL:       getEnvDuration("ASSET_CACHE_TTL", 5*time.Minute),

		OrderSyncPublishTimeout: getEnvDuration("ORDER_SYNC_PUBLISH_TIMEOUT", 10*time.Second),
		TrustedProxies:          getEnvList("TRUSTED_PROXIES"),
	}

	var missing []string
	if cfg.RpcURL == "" {
		missing = append(missing, "RPC_URL_"+suffix)
	}
	if cfg.DbURL == "" {
		missing = append(missing, "DB_URL")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.OrderSyncInterval <= 0 {
		return nil, fmt.Errorf("ORDER_SYNC_INTERVAL_SECONDS must be positive, got %d", cfg.OrderSyncInterval)
	}
	if cfg.OrderSyncBatchSize <= 0 {
		return nil, fmt.Errorf("ORDER_SYNC_BATCH_SIZE must be positive, got %d", cfg.OrderSyncBatchSize)
	}
	if cfg.OrderSyncPublishTimeout <= 0 {
		return nil, fmt.Errorf("ORDER_SYNC_PUBLISH_TIMEOUT must be positive, got %s", cfg.OrderSyncPublishTimeout)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string) []string {
	var items []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
