package model

import "time"

type OrderStats struct {
	Active          int64 `json:"active"`
	Filled          int64 `json:"filled"`
	Cancelled       int64 `json:"cancelled"`
	Total           int64 `json:"total"`
	Unresolved      int64 `json:"unresolved"`
	StaleUnresolved int64 `json:"stale_unresolved"`
}

// PassResult summarizes one reconciliation pass.
type PassResult struct {
	Candidates int           `json:"candidates"`
	Resolved   int           `json:"resolved"`
	Pending    int           `json:"pending"`
	Unmatched  int           `json:"unmatched"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// ResolvedOrder is produced when the reconciler backfills an order id.
type ResolvedOrder struct {
	OrderID           string    `json:"order_id"`
	BlockchainOrderID uint64    `json:"blockchain_order_id"`
	BlockNumber       uint64    `json:"block_number"`
	TxHash            string    `json:"tx_hash"`
	Event             string    `json:"event"`
	WalletAddress     string    `json:"wallet_address"`
	ResolvedAt        time.Time `json:"resolved_at"`
}
