package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"whitelabel/apps/backend/internal/model"
	"whitelabel/apps/backend/internal/repository"
)

// OrderStore is an in-memory implementation of repository.OrderStore.
type OrderStore struct {
	mu     sync.RWMutex
	orders map[string]model.Order
	now    func() time.Time
}

// NewOrderStore creates an empty in-memory order store.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]model.Order),
		now:    time.Now,
	}
}

var _ repository.OrderStore = (*OrderStore)(nil)

func (s *OrderStore) FindUnresolved(_ context.Context, limit int) ([]model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.Order
	for _, order := range s.orders {
		if isCandidate(order) {
			result = append(result, copyOrder(order))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *OrderStore) SetBlockchainOrderID(_ context.Context, id string, blockchainOrderID, blockNumber uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok || order.BlockchainOrderID != 0 {
		return false, nil
	}

	order.BlockchainOrderID = blockchainOrderID
	order.BlockNumber = &blockNumber
	order.UpdatedAt = s.now()
	s.orders[id] = order
	return true, nil
}

func (s *OrderStore) CountByStatus(_ context.Context) (map[model.OrderStatus]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[model.OrderStatus]int64)
	for _, order := range s.orders {
		counts[order.Status]++
	}
	return counts, nil
}

func (s *OrderStore) CountUnresolved(_ context.Context, staleBefore time.Time) (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, stale int64
	for _, order := range s.orders {
		if !isCandidate(order) {
			continue
		}
		total++
		if order.CreatedAt.Before(staleBefore) {
			stale++
		}
	}
	return total, stale, nil
}

func (s *OrderStore) GetOrderByID(_ context.Context, id string) (*model.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order, ok := s.orders[id]
	if !ok {
		return nil, nil
	}
	order = copyOrder(order)
	return &order, nil
}

func (s *OrderStore) CreateOrder(_ context.Context, order model.Order) error {
	if err := repository.ValidateOrder(order); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[order.ID]; exists {
		return fmt.Errorf("%w: order %s already exists", repository.ErrInvalidInput, order.ID)
	}

	now := s.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func isCandidate(order model.Order) bool {
	return order.BlockchainOrderID == 0 && order.TxHash != nil && order.Status == model.OrderStatusActive
}

// copyOrder detaches the nullable fields so callers cannot mutate stored rows.
func copyOrder(order model.Order) model.Order {
	if order.TxHash != nil {
		txHash := *order.TxHash
		order.TxHash = &txHash
	}
	if order.BlockNumber != nil {
		blockNumber := *order.BlockNumber
		order.BlockNumber = &blockNumber
	}
	return order
}
