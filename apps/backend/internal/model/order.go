package model

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusFilled    OrderStatus = "filled"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// Order is an exchange order tracked off-chain. BlockchainOrderID stays 0
// until the id assigned by the contract is known.
type Order struct {
	ID                string      `db:"id"`
	BlockchainOrderID uint64      `db:"blockchain_order_id"`
	TxHash            *string     `db:"transaction_hash"` // nullable until the creation tx is submitted
	Status            OrderStatus `db:"status"`
	Side              OrderSide   `db:"side"`
	WalletAddress     string      `db:"wallet_address"`
	TokenAddress      string      `db:"token_address"`
	Amount            string      `db:"amount"`
	Price             string      `db:"price"`
	BlockNumber       *uint64     `db:"block_number"`
	CreatedAt         time.Time   `db:"created_at"`
	UpdatedAt         time.Time   `db:"updated_at"`
}

// IsResolved reports whether the on-chain order id has been captured.
func (o Order) IsResolved() bool {
	return o.BlockchainOrderID != 0
}
