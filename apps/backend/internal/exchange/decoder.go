package exchange

import (
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

//go:embed exchange_abi.json
var defaultABI string

type EventKind string

const (
	BuyOrderCreated  EventKind = "BuyOrderCreated"
	SellOrderCreated EventKind = "SellOrderCreated"
)

// DecodedEvent is an order-created event pulled out of a receipt log.
type DecodedEvent struct {
	Kind        EventKind
	OrderID     uint64
	Maker       common.Address
	Token       common.Address
	Amount      *big.Int
	Price       *big.Int
	BlockNumber uint64
	LogIndex    uint
	TxHash      common.Hash
}

// LoadABI reads the exchange contract ABI from path. An empty path yields the
// ABI bundled with the binary.
func LoadABI(path string) (abi.ABI, error) {
	if path == "" {
		return parseABI(defaultABI)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to read exchange ABI %s: %w", path, err)
	}
	return parseABI(string(raw))
}

func parseABI(raw string) (abi.ABI, error) {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		return abi.ABI{}, fmt.Errorf("failed to parse exchange ABI: %w", err)
	}
	return parsed, nil
}

// Decoder recognizes BuyOrderCreated and SellOrderCreated logs.
type Decoder struct {
	abi      abi.ABI
	contract common.Address
	events   map[common.Hash]abi.Event
}

// NewDecoder builds a decoder for the given ABI. When contract is the zero
// address logs from any emitter are considered.
func NewDecoder(contractABI abi.ABI, contract common.Address) (*Decoder, error) {
	events := make(map[common.Hash]abi.Event, 2)
	for _, kind := range []EventKind{BuyOrderCreated, SellOrderCreated} {
		event, ok := contractABI.Events[string(kind)]
		if !ok {
			return nil, fmt.Errorf("exchange ABI has no %s event", kind)
		}
		events[event.ID] = event
	}

	return &Decoder{
		abi:      contractABI,
		contract: contract,
		events:   events,
	}, nil
}

// DecodeLog returns the order-created event carried by eventLog, if any.
func (d *Decoder) DecodeLog(eventLog *types.Log) (DecodedEvent, bool) {
	if eventLog == nil || len(eventLog.Topics) == 0 {
		return DecodedEvent{}, false
	}
	if d.contract != (common.Address{}) && eventLog.Address != d.contract {
		return DecodedEvent{}, false
	}

	event, ok := d.events[eventLog.Topics[0]]
	if !ok {
		return DecodedEvent{}, false
	}

	// Topics[1..3] are orderId, maker, token
	var indexed struct {
		OrderId *big.Int
		Maker   common.Address
		Token   common.Address
	}
	var indexedArgs abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexedArgs = append(indexedArgs, input)
		}
	}
	if err := abi.ParseTopics(&indexed, indexedArgs, eventLog.Topics[1:]); err != nil {
		return DecodedEvent{}, false
	}

	var data struct {
		Amount    *big.Int
		Price     *big.Int
		Timestamp *big.Int
	}
	if err := d.abi.UnpackIntoInterface(&data, event.Name, eventLog.Data); err != nil {
		return DecodedEvent{}, false
	}

	// ids must fit a signed BIGINT column
	if indexed.OrderId == nil || !indexed.OrderId.IsInt64() || indexed.OrderId.Sign() < 0 {
		return DecodedEvent{}, false
	}

	return DecodedEvent{
		Kind:        EventKind(event.Name),
		OrderID:     indexed.OrderId.Uint64(),
		Maker:       indexed.Maker,
		Token:       indexed.Token,
		Amount:      data.Amount,
		Price:       data.Price,
		BlockNumber: eventLog.BlockNumber,
		LogIndex:    eventLog.Index,
		TxHash:      eventLog.TxHash,
	}, true
}

// FindOrderCreated scans the receipt logs in order and returns the first
// order-created event.
func (d *Decoder) FindOrderCreated(receipt *types.Receipt) (DecodedEvent, bool) {
	if receipt == nil {
		return DecodedEvent{}, false
	}

	for _, eventLog := range receipt.Logs {
		decoded, ok := d.DecodeLog(eventLog)
		if !ok {
			continue
		}
		if decoded.BlockNumber == 0 && receipt.BlockNumber != nil {
			decoded.BlockNumber = receipt.BlockNumber.Uint64()
		}
		return decoded, true
	}

	return DecodedEvent{}, false
}
