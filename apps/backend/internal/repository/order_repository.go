package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/model"
)

const orderColumns = `id, blockchain_order_id, transaction_hash, status, side, wallet_address, token_address, amount, price, block_number, created_at, updated_at`

type OrderRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewOrderRepository(db *sql.DB, logger *zap.Logger) *OrderRepository {
	return &OrderRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (model.Order, error) {
	var order model.Order
	err := row.Scan(&order.ID, &order.BlockchainOrderID, &order.TxHash, &order.Status, &order.Side,
		&order.WalletAddress, &order.TokenAddress, &order.Amount, &order.Price, &order.BlockNumber,
		&order.CreatedAt, &order.UpdatedAt)
	return order, err
}

func (r *OrderRepository) FindUnresolved(ctx context.Context, limit int) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE blockchain_order_id = 0 AND transaction_hash IS NOT NULL AND status = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, model.OrderStatusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unresolved order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating unresolved orders: %w", err)
	}

	return orders, nil
}

func (r *OrderRepository) SetBlockchainOrderID(ctx context.Context, id string, blockchainOrderID, blockNumber uint64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET blockchain_order_id = $1, block_number = $2, updated_at = NOW()
		WHERE id = $3 AND blockchain_order_id = 0
	`, blockchainOrderID, blockNumber, id)
	if err != nil {
		return false, fmt.Errorf("failed to set blockchain order id: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if affected > 0 {
		r.logger.Info("Updated blockchain order id",
			zap.String("order_id", id),
			zap.Uint64("blockchain_order_id", blockchainOrderID),
			zap.Uint64("block_number", blockNumber))
	}
	return affected > 0, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[model.OrderStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM orders GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.OrderStatus]int64)
	for rows.Next() {
		var status model.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

func (r *OrderRepository) CountUnresolved(ctx context.Context, staleBefore time.Time) (int64, int64, error) {
	var total, stale int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE created_at < $2)
		FROM orders
		WHERE blockchain_order_id = 0 AND transaction_hash IS NOT NULL AND status = $1
	`, model.OrderStatusActive, staleBefore.UTC()).Scan(&total, &stale)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count unresolved orders: %w", err)
	}
	return total, stale, nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	order, err := scanOrder(r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order by ID: %w", err)
	}

	return &order, nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order model.Order) error {
	if err := ValidateOrder(order); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO orders (id, blockchain_order_id, transaction_hash, status, side, wallet_address, token_address, amount, price, block_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, order.ID, order.BlockchainOrderID, order.TxHash, order.Status, order.Side, order.WalletAddress,
		order.TokenAddress, order.Amount, order.Price, order.BlockNumber)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Info("Created order",
		zap.String("order_id", order.ID),
		zap.String("side", string(order.Side)),
		zap.String("status", string(order.Status)),
		zap.String("wallet_address", order.WalletAddress))
	return nil
}
