// Package exchangetest builds exchange contract logs and receipts for tests.
package exchangetest

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type OrderCreated struct {
	Event       string // BuyOrderCreated or SellOrderCreated
	Contract    common.Address
	OrderID     uint64
	Maker       common.Address
	Token       common.Address
	Amount      int64
	Price       int64
	BlockNumber uint64
	TxHash      common.Hash
	Index       uint
}

// Log encodes an order-created event the way the contract emits it.
func Log(contractABI abi.ABI, ev OrderCreated) (*types.Log, error) {
	event, ok := contractABI.Events[ev.Event]
	if !ok {
		return nil, fmt.Errorf("unknown event %s", ev.Event)
	}

	data, err := event.Inputs.NonIndexed().Pack(big.NewInt(ev.Amount), big.NewInt(ev.Price), big.NewInt(1700000000))
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s data: %w", ev.Event, err)
	}

	return &types.Log{
		Address: ev.Contract,
		Topics: []common.Hash{
			event.ID,
			common.BigToHash(new(big.Int).SetUint64(ev.OrderID)),
			common.BytesToHash(ev.Maker.Bytes()),
			common.BytesToHash(ev.Token.Bytes()),
		},
		Data:        data,
		BlockNumber: ev.BlockNumber,
		TxHash:      ev.TxHash,
		Index:       ev.Index,
	}, nil
}

// Receipt wraps logs into a successful receipt mined at blockNumber.
func Receipt(txHash common.Hash, blockNumber uint64, logs ...*types.Log) *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      txHash,
		BlockNumber: new(big.Int).SetUint64(blockNumber),
		Logs:        logs,
	}
}
