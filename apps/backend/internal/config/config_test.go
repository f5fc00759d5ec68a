package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NETWORK", "")
	t.Setenv("RPC_URL_TESTNET", "http://localhost:8545")
	t.Setenv("DB_URL", "postgres://localhost/whitelabel")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, NetworkTestnet, cfg.Network)
	assert.Equal(t, "http://localhost:8545", cfg.RpcURL)
	assert.Equal(t, 30, cfg.OrderSyncInterval)
	assert.Equal(t, 10, cfg.OrderSyncBatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.OrderSyncDelay)
	assert.Equal(t, 24*time.Hour, cfg.OrderSyncStaleAfter)
	assert.Equal(t, "order-id-resolved", cfg.KafkaTopic)
	assert.True(t, cfg.OrderSyncEnabled)
	assert.Equal(t, 10*time.Second, cfg.OrderSyncPublishTimeout)
	assert.Empty(t, cfg.TrustedProxies)
}

func TestLoadSelectsNetworkSpecificValues(t *testing.T) {
	t.Setenv("NETWORK", "MAINNET")
	t.Setenv("RPC_URL_MAINNET", "https://mainnet.example")
	t.Setenv("RPC_URL_TESTNET", "https://testnet.example")
	t.Setenv("EXCHANGE_CONTRACT_MAINNET", "0x00000000000000000000000000000000000000aa")
	t.Setenv("DB_URL", "postgres://localhost/whitelabel")
	t.Setenv("ORDER_SYNC_DELAY_MS", "250")
	t.Setenv("ORDER_SYNC_STALE_AFTER", "90m")
	t.Setenv("ORDER_SYNC_PUBLISH_TIMEOUT", "3s")
	t.Setenv("TRUSTED_PROXIES", " 10.0.0.0/8, ,192.0.2.1 ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, NetworkMainnet, cfg.Network)
	assert.Equal(t, "https://mainnet.example", cfg.RpcURL)
	assert.Equal(t, "0x00000000000000000000000000000000000000aa", cfg.ExchangeAddress)
	assert.Equal(t, 250*time.Millisecond, cfg.OrderSyncDelay)
	assert.Equal(t, 90*time.Minute, cfg.OrderSyncStaleAfter)
	assert.Equal(t, 3*time.Second, cfg.OrderSyncPublishTimeout)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.TrustedProxies)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "UnknownNetwork",
			env:  map[string]string{"NETWORK": "devnet", "RPC_URL": "http://x", "DB_URL": "postgres://x"},
		},
		{
			name: "MissingRPC",
			env:  map[string]string{"NETWORK": "testnet", "DB_URL": "postgres://x"},
		},
		{
			name: "MissingDB",
			env:  map[string]string{"NETWORK": "testnet", "RPC_URL": "http://x"},
		},
		{
			name: "ZeroInterval",
			env:  map[string]string{"RPC_URL": "http://x", "DB_URL": "postgres://x", "ORDER_SYNC_INTERVAL_SECONDS": "0"},
		},
		{
			name: "ZeroPublishTimeout",
			env:  map[string]string{"RPC_URL": "http://x", "DB_URL": "postgres://x", "ORDER_SYNC_PUBLISH_TIMEOUT": "0s"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"NETWORK", "RPC_URL", "RPC_URL_TESTNET", "RPC_URL_MAINNET", "DB_URL", "ORDER_SYNC_INTERVAL_SECONDS", "ORDER_SYNC_PUBLISH_TIMEOUT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
