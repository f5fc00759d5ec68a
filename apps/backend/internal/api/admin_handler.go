package api

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/model"
)

const adminKeyHeader = "X-Admin-Key"

// OrderSync is the operator surface of the order id reconciler.
type OrderSync interface {
	GetStats(ctx context.Context) (model.OrderStats, error)
	ForceUpdateAll(ctx context.Context) model.PassResult
}

// AdminHandler exposes reconciler stats and the manual force update.
type AdminHandler struct {
	responder
	orderSync OrderSync
	apiKey    string
}

func NewAdminHandler(orderSync OrderSync, apiKey string, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		responder: responder{logger: logger},
		orderSync: orderSync,
		apiKey:    apiKey,
	}
}

// GetOrderSyncStats handles GET /api/admin/order-sync/stats
func (h *AdminHandler) GetOrderSyncStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orderSync.GetStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to get order sync stats", zap.Error(err))
		h.writeErrorResponse(w, http.StatusInternalServerError, "database_error", "Failed to retrieve order stats")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, stats)
}

// ForceOrderSync handles POST /api/admin/order-sync/force
func (h *AdminHandler) ForceOrderSync(w http.ResponseWriter, r *http.Request) {
	h.logger.Info("Manual order sync requested", zap.String("remote_addr", r.RemoteAddr))

	result := h.orderSync.ForceUpdateAll(r.Context())
	h.writeJSONResponse(w, http.StatusOK, result)
}

// requireAdminKey rejects requests whose X-Admin-Key does not match. With no
// key configured the admin routes are disabled.
func (h *AdminHandler) requireAdminKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.apiKey == "" {
			h.writeErrorResponse(w, http.StatusServiceUnavailable, "admin_disabled", "Admin API is not configured")
			return
		}

		provided := r.Header.Get(adminKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(h.apiKey)) != 1 {
			h.writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid admin key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
