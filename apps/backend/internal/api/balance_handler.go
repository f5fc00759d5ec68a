package api

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/assets"
)

// ERC20 ABI for balanceOf function
const ERC20ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "_owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "balance", "type": "uint256"}],
		"type": "function"
	}
]`

// BalanceHandler handles balance-related API endpoints
type BalanceHandler struct {
	responder
	caller        ethereum.ContractCaller
	erc20ABI      abi.ABI
	assetRegistry *assets.AssetRegistry
}

// NewBalanceHandler creates a new BalanceHandler. caller is usually the
// shared *ethclient.Client.
func NewBalanceHandler(caller ethereum.ContractCaller, registry *assets.AssetRegistry, logger *zap.Logger) (*BalanceHandler, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &BalanceHandler{
		responder:     responder{logger: logger},
		caller:        caller,
		erc20ABI:      parsedABI,
		assetRegistry: registry,
	}, nil
}

// GetBalance handles GET /api/balance/{wallet_address}
func (h *BalanceHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	walletAddress, ok := h.walletFromRequest(w, r)
	if !ok {
		return
	}

	address := common.HexToAddress(walletAddress)
	balances := make(map[string]TokenBalance)

	for _, asset := range h.assetRegistry.GetAll() {
		balance, err := h.getTokenBalance(r.Context(), address, asset)
		if err != nil {
			h.logger.Error("Failed to get token balance",
				zap.String("token", asset.Symbol),
				zap.String("address", walletAddress),
				zap.Error(err))
			// Report zero rather than failing the whole wallet
			balance = "0"
		}

		balances[asset.Symbol] = TokenBalance{
			Balance:  balance,
			Symbol:   asset.Symbol,
			Address:  asset.Address.Hex(),
			Decimals: asset.Decimals,
		}
	}

	h.logger.Info("Retrieved wallet balances",
		zap.String("wallet_address", walletAddress),
		zap.Int("token_count", len(balances)))

	h.writeJSONResponse(w, http.StatusOK, BalanceResponse{
		WalletAddress: walletAddress,
		Balances:      balances,
	})
}

// GetTokenBalance handles GET /api/balance/{wallet_address}/{symbol}. The
// symbol is checked by the asset validation middleware first.
func (h *BalanceHandler) GetTokenBalance(w http.ResponseWriter, r *http.Request) {
	walletAddress, ok := h.walletFromRequest(w, r)
	if !ok {
		return
	}

	asset, exists := h.assetRegistry.GetBySymbol(mux.Vars(r)["symbol"])
	if !exists {
		h.writeErrorResponse(w, http.StatusNotFound, "unsupported_asset", "Asset is not supported")
		return
	}

	balance, err := h.getTokenBalance(r.Context(), common.HexToAddress(walletAddress), asset)
	if err != nil {
		h.logger.Error("Failed to get token balance",
			zap.String("token", asset.Symbol),
			zap.String("address", walletAddress),
			zap.Error(err))
		h.writeErrorResponse(w, http.StatusBadGateway, "rpc_error", "Failed to read token balance")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, TokenBalance{
		Balance:  balance,
		Symbol:   asset.Symbol,
		Address:  asset.Address.Hex(),
		Decimals: asset.Decimals,
	})
}

func (h *BalanceHandler) walletFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	walletAddress := mux.Vars(r)["wallet_address"]

	if walletAddress == "" {
		h.writeErrorResponse(w, http.StatusBadRequest, "missing_wallet_address", "Wallet address is required")
		return "", false
	}
	if !common.IsHexAddress(walletAddress) {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_wallet_address", "Invalid Ethereum address format")
		return "", false
	}
	return walletAddress, true
}

// getTokenBalance retrieves the balance for a specific ERC20 token
func (h *BalanceHandler) getTokenBalance(ctx context.Context, walletAddress common.Address, asset *assets.Asset) (string, error) {
	tokenAddress := asset.Address

	data, err := h.erc20ABI.Pack("balanceOf", walletAddress)
	if err != nil {
		return "", fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	result, err := h.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &tokenAddress,
		Data: data,
	}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to call balanceOf: %w", err)
	}

	var balance *big.Int
	if err := h.erc20ABI.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return "", fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}

	return formatUnits(balance, asset.Decimals), nil
}

// formatUnits renders a base-unit amount as a decimal string without
// trailing zeros.
func formatUnits(amount *big.Int, decimals int) string {
	if decimals == 0 {
		return amount.String()
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	wholePart, remainder := new(big.Int).QuoRem(amount, divisor, new(big.Int))
	if remainder.Sign() == 0 {
		return wholePart.String()
	}

	remainderStr := remainder.String()
	if len(remainderStr) < decimals {
		remainderStr = strings.Repeat("0", decimals-len(remainderStr)) + remainderStr
	}
	return wholePart.String() + "." + strings.TrimRight(remainderStr, "0")
}
