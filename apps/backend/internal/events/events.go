package events

import (
	"time"
)

const EventTypeOrderIDResolved = "order_id_resolved"

// OrderIDResolvedEvent is published once an order's on-chain id has been
// written back to the orders table.
type OrderIDResolvedEvent struct {
	EventType         string    `json:"event_type"`
	OrderID           string    `json:"order_id"`
	BlockchainOrderID uint64    `json:"blockchain_order_id"`
	ContractEvent     string    `json:"contract_event"`
	TxHash            string    `json:"tx_hash"`
	BlockNumber       uint64    `json:"block_number"`
	WalletAddress     string    `json:"wallet_address"`
	ResolvedAt        time.Time `json:"resolved_at"`
	Timestamp         time.Time `json:"timestamp"`
}
