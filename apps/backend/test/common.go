package test

import (
	"encoding/json"
	"net/http"
	"os"
	"testing"
	"time"
)

const (
	// Test wallet address (example address)
	TestWalletAddress = "0x0B8fA6F76eB75ae3a4ca28eb3020DFC4503F2136"

	// Symbol present in every bundled asset list
	TestAssetSymbol = "USDC"

	AdminKeyHeader = "X-Admin-Key"
)

// OrderStats mirrors GET /api/admin/order-sync/stats
type OrderStats struct {
	Active          int64 `json:"active"`
	Filled          int64 `json:"filled"`
	Cancelled       int64 `json:"cancelled"`
	Total           int64 `json:"total"`
	Unresolved      int64 `json:"unresolved"`
	StaleUnresolved int64 `json:"stale_unresolved"`
}

// PassResult mirrors POST /api/admin/order-sync/force
type PassResult struct {
	Candidates int `json:"candidates"`
	Resolved   int `json:"resolved"`
	Pending    int `json:"pending"`
	Unmatched  int `json:"unmatched"`
	Failed     int `json:"failed"`
}

// BalanceResponse represents the API response for wallet balance information
type BalanceResponse struct {
	WalletAddress string                  `json:"wallet_address"`
	Balances      map[string]TokenBalance `json:"balances"`
}

// TokenBalance represents balance information for a specific token
type TokenBalance struct {
	Balance  string `json:"balance"`
	Symbol   string `json:"symbol"`
	Address  string `json:"address"`
	Decimals int    `json:"decimals"`
}

// ErrorResponse represents the API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

var httpClient = &http.Client{Timeout: 60 * time.Second}

// baseURL returns INTEGRATION_BASE_URL or skips the test when it is unset.
func baseURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("INTEGRATION_BASE_URL")
	if url == "" {
		t.Skip("INTEGRATION_BASE_URL not set, skipping integration test")
	}
	return url
}

// adminKey returns INTEGRATION_ADMIN_KEY or skips the test when it is unset.
func adminKey(t *testing.T) string {
	t.Helper()
	key := os.Getenv("INTEGRATION_ADMIN_KEY")
	if key == "" {
		t.Skip("INTEGRATION_ADMIN_KEY not set, skipping admin integration test")
	}
	return key
}

func doRequest(t *testing.T, method, url string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make %s request to %s: %v", method, url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
}
