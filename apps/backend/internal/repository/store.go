package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whitelabel/apps/backend/internal/model"
)

// ErrInvalidInput is returned when an order fails basic validation.
var ErrInvalidInput = errors.New("invalid input")

// OrderStore is the order table as seen by the reconciler and the API.
type OrderStore interface {
	// FindUnresolved returns up to limit active orders that have a transaction
	// hash but no blockchain order id yet, newest first.
	FindUnresolved(ctx context.Context, limit int) ([]model.Order, error)

	// SetBlockchainOrderID records the on-chain id and block number. It never
	// overwrites a non-zero id and reports whether a row was changed.
	SetBlockchainOrderID(ctx context.Context, id string, blockchainOrderID, blockNumber uint64) (bool, error)

	// CountByStatus returns the number of orders per status.
	CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error)

	// CountUnresolved returns the number of reconciliation candidates and how
	// many of them were created before staleBefore.
	CountUnresolved(ctx context.Context, staleBefore time.Time) (total int64, stale int64, err error)

	// GetOrderByID returns nil, nil when the order does not exist.
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)

	CreateOrder(ctx context.Context, order model.Order) error
}

// ValidateOrder checks the fields every stored order must carry.
func ValidateOrder(order model.Order) error {
	if order.ID == "" {
		return fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	switch order.Status {
	case model.OrderStatusActive, model.OrderStatusFilled, model.OrderStatusCancelled:
	default:
		return fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, order.Status)
	}
	switch order.Side {
	case model.OrderSideBuy, model.OrderSideSell:
	default:
		return fmt.Errorf("%w: unknown order side %q", ErrInvalidInput, order.Side)
	}
	return nil
}
