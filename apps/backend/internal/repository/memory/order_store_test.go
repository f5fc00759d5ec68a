package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"whitelabel/apps/backend/internal/model"
	"whitelabel/apps/backend/internal/repository"
)

func strPtr(s string) *string { return &s }

func newOrder(id string, txHash *string, status model.OrderStatus, createdAt time.Time) model.Order {
	return model.Order{
		ID:            id,
		TxHash:        txHash,
		Status:        status,
		Side:          model.OrderSideBuy,
		WalletAddress: "0x0B8fA6F76eB75ae3a4ca28eb3020DFC4503F2136",
		TokenAddress:  "0x00000000000000000000000000000000000000aa",
		Amount:        "10",
		Price:         "1.5",
		CreatedAt:     createdAt,
	}
}

func TestOrderStore_FindUnresolvedFilter(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	orders := []model.Order{
		newOrder("old", strPtr("0x01"), model.OrderStatusActive, base),
		newOrder("new", strPtr("0x02"), model.OrderStatusActive, base.Add(time.Hour)),
		newOrder("no-hash", nil, model.OrderStatusActive, base.Add(2*time.Hour)),
		newOrder("filled", strPtr("0x03"), model.OrderStatusFilled, base.Add(3*time.Hour)),
	}
	resolved := newOrder("resolved", strPtr("0x04"), model.OrderStatusActive, base.Add(4*time.Hour))
	resolved.BlockchainOrderID = 9
	orders = append(orders, resolved)

	for _, o := range orders {
		if err := store.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder(%s) failed: %v", o.ID, err)
		}
	}

	result, err := store.FindUnresolved(ctx, 10)
	if err != nil {
		t.Fatalf("FindUnresolved failed: %v", err)
	}

	if len(result) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(result))
	}
	if result[0].ID != "new" || result[1].ID != "old" {
		t.Errorf("Expected newest first, got %s, %s", result[0].ID, result[1].ID)
	}

	limited, err := store.FindUnresolved(ctx, 1)
	if err != nil {
		t.Fatalf("FindUnresolved failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "new" {
		t.Errorf("Expected only the newest candidate, got %+v", limited)
	}
}

func TestOrderStore_SetBlockchainOrderIDNeverOverwrites(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	if err := store.CreateOrder(ctx, newOrder("o1", strPtr("0xabc"), model.OrderStatusActive, time.Now())); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	updated, err := store.SetBlockchainOrderID(ctx, "o1", 42, 1000)
	if err != nil || !updated {
		t.Fatalf("First update: updated=%v err=%v", updated, err)
	}

	updated, err = store.SetBlockchainOrderID(ctx, "o1", 99, 2000)
	if err != nil {
		t.Fatalf("Second update failed: %v", err)
	}
	if updated {
		t.Error("Second update should not change a resolved order")
	}

	order, err := store.GetOrderByID(ctx, "o1")
	if err != nil || order == nil {
		t.Fatalf("GetOrderByID: order=%v err=%v", order, err)
	}
	if order.BlockchainOrderID != 42 {
		t.Errorf("BlockchainOrderID: got %d, want 42", order.BlockchainOrderID)
	}
	if order.BlockNumber == nil || *order.BlockNumber != 1000 {
		t.Errorf("BlockNumber: got %v, want 1000", order.BlockNumber)
	}

	updated, err = store.SetBlockchainOrderID(ctx, "missing", 1, 1)
	if err != nil || updated {
		t.Errorf("Missing order: updated=%v err=%v", updated, err)
	}
}

func TestOrderStore_Counts(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()
	now := time.Now()

	fixtures := []model.Order{
		newOrder("a", strPtr("0x01"), model.OrderStatusActive, now.Add(-48*time.Hour)),
		newOrder("b", strPtr("0x02"), model.OrderStatusActive, now),
		newOrder("c", nil, model.OrderStatusActive, now),
		newOrder("d", strPtr("0x03"), model.OrderStatusFilled, now),
		newOrder("e", strPtr("0x04"), model.OrderStatusCancelled, now),
	}
	for _, o := range fixtures {
		if err := store.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder(%s) failed: %v", o.ID, err)
		}
	}

	counts, err := store.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if counts[model.OrderStatusActive] != 3 || counts[model.OrderStatusFilled] != 1 || counts[model.OrderStatusCancelled] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}

	total, stale, err := store.CountUnresolved(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CountUnresolved failed: %v", err)
	}
	if total != 2 || stale != 1 {
		t.Errorf("CountUnresolved: got total=%d stale=%d, want 2 and 1", total, stale)
	}
}

func TestOrderStore_CreateOrderValidation(t *testing.T) {
	store := NewOrderStore()
	ctx := context.Background()

	bad := newOrder("", nil, model.OrderStatusActive, time.Now())
	if err := store.CreateOrder(ctx, bad); !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing id, got %v", err)
	}

	bad = newOrder("x", nil, "open", time.Now())
	if err := store.CreateOrder(ctx, bad); !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for unknown status, got %v", err)
	}

	ok := newOrder("x", nil, model.OrderStatusActive, time.Now())
	if err := store.CreateOrder(ctx, ok); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if err := store.CreateOrder(ctx, ok); !errors.Is(err, repository.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for duplicate id, got %v", err)
	}
}
