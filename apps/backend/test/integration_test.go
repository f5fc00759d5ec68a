package test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestHealth(t *testing.T) {
	base := baseURL(t)

	resp := doRequest(t, http.MethodGet, base+"/api/health", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %q", body["status"])
	}
}

func TestGetBalance(t *testing.T) {
	base := baseURL(t)

	t.Run("AllAssets", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/balance/"+TestWalletAddress, nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var balanceResp BalanceResponse
		decodeBody(t, resp, &balanceResp)

		if !strings.EqualFold(balanceResp.WalletAddress, TestWalletAddress) {
			t.Errorf("Expected wallet %s, got %s", TestWalletAddress, balanceResp.WalletAddress)
		}
		if len(balanceResp.Balances) == 0 {
			t.Fatal("Expected at least one token balance")
		}
		for symbol, balance := range balanceResp.Balances {
			if balance.Balance == "" {
				t.Errorf("Balance for %s should not be empty", symbol)
			}
			if !strings.HasPrefix(balance.Address, "0x") {
				t.Errorf("Token address for %s should be hex, got %s", symbol, balance.Address)
			}
		}
	})

	t.Run("SingleAsset", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/balance/"+TestWalletAddress+"/"+strings.ToLower(TestAssetSymbol), nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var tokenBalance TokenBalance
		decodeBody(t, resp, &tokenBalance)
		if tokenBalance.Symbol != TestAssetSymbol {
			t.Errorf("Expected symbol %s, got %s", TestAssetSymbol, tokenBalance.Symbol)
		}
	})

	t.Run("UnsupportedAsset", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/balance/"+TestWalletAddress+"/NOPE", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", resp.StatusCode)
		}

		var errorResp ErrorResponse
		decodeBody(t, resp, &errorResp)
		if errorResp.Error != "unsupported_asset" {
			t.Errorf("Expected unsupported_asset, got %s", errorResp.Error)
		}
	})

	t.Run("InvalidWallet", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/balance/0x1234", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", resp.StatusCode)
		}
	})
}

func TestGetOrder(t *testing.T) {
	base := baseURL(t)

	t.Run("UnknownOrder", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/orders/"+uuid.NewString(), nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("Expected status 404, got %d", resp.StatusCode)
		}
	})

	t.Run("MalformedID", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/orders/12345", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("Expected status 400, got %d", resp.StatusCode)
		}
	})
}

func TestAdminOrderSync(t *testing.T) {
	base := baseURL(t)

	t.Run("RejectsMissingKey", func(t *testing.T) {
		resp := doRequest(t, http.MethodGet, base+"/api/admin/order-sync/stats", nil)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("Expected 401 or 503 without admin key, got %d", resp.StatusCode)
		}
	})

	t.Run("StatsAndForce", func(t *testing.T) {
		auth := map[string]string{AdminKeyHeader: adminKey(t)}

		resp := doRequest(t, http.MethodGet, base+"/api/admin/order-sync/stats", auth)
		var before OrderStats
		decodeBody(t, resp, &before)
		resp.Body.Close()

		if before.Total != before.Active+before.Filled+before.Cancelled {
			t.Errorf("Total %d does not match status counts %+v", before.Total, before)
		}
		if before.StaleUnresolved > before.Unresolved {
			t.Errorf("Stale count %d exceeds unresolved %d", before.StaleUnresolved, before.Unresolved)
		}

		resp = doRequest(t, http.MethodPost, base+"/api/admin/order-sync/force", auth)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected status 200, got %d", resp.StatusCode)
		}

		var result PassResult
		decodeBody(t, resp, &result)
		if result.Resolved+result.Pending+result.Unmatched+result.Failed > result.Candidates {
			t.Errorf("Outcomes exceed candidates: %+v", result)
		}
	})
}
