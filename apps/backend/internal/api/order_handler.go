package api

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/model"
)

type orderGetter interface {
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
}

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	responder
	orders orderGetter
}

func NewOrderHandler(orders orderGetter, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		responder: responder{logger: logger},
		orders:    orders,
	}
}

// GetOrder handles GET /api/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := uuid.Parse(id); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, "invalid_order_id", "Order id must be a UUID")
		return
	}

	order, err := h.orders.GetOrderByID(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get order", zap.String("order_id", id), zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to retrieve order")
		return
	}

	if order == nil {
		h.writeErrorResponse(w, http.StatusNotFound, "order_not_found", "Order not found")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, OrderResponse{
		ID:                order.ID,
		BlockchainOrderID: order.BlockchainOrderID,
		Resolved:          order.IsResolved(),
		TxHash:            order.TxHash,
		Status:            string(order.Status),
		Side:              string(order.Side),
		WalletAddress:     order.WalletAddress,
		TokenAddress:      order.TokenAddress,
		Amount:            order.Amount,
		Price:             order.Price,
		BlockNumber:       order.BlockNumber,
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
	})
}
