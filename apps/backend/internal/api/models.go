package api

import (
	"time"
)

// OrderResponse represents the API response for order information
type OrderResponse struct {
	ID                string    `json:"id"`
	BlockchainOrderID uint64    `json:"blockchain_order_id"`
	Resolved          bool      `json:"resolved"`
	TxHash            *string   `json:"tx_hash"`
	Status            string    `json:"status"`
	Side              string    `json:"side"`
	WalletAddress     string    `json:"wallet_address"`
	TokenAddress      string    `json:"token_address"`
	Amount            string    `json:"amount"`
	Price             string    `json:"price"`
	BlockNumber       *uint64   `json:"block_number"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
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
