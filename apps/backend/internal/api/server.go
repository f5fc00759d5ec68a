package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"whitelabel/apps/backend/internal/assets"
)

type ServerConfig struct {
	Port           int
	AdminAPIKey    string
	RateLimitRPS   float64
	RateLimitBurst int
	TrustedProxies []string
	AssetCacheTTL  time.Duration
	Clock          clock.Clock
}

// Server represents the API server
type Server struct {
	responder
	orderHandler   *OrderHandler
	balanceHandler *BalanceHandler
	adminHandler   *AdminHandler
	rateLimiter    *RateLimiter
	assetValidator *assets.Validator
	gatherer       prometheus.Gatherer
	clock          clock.Clock
	handler        http.Handler
	server         *http.Server
}

// NewServer creates a new API server
func NewServer(
	cfg ServerConfig,
	orders orderGetter,
	orderSync OrderSync,
	caller ethereum.ContractCaller,
	registry *assets.AssetRegistry,
	gatherer prometheus.Gatherer,
	logger *zap.Logger) (*Server, error) {
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	balanceHandler, err := NewBalanceHandler(caller, registry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create balance handler: %w", err)
	}

	rateLimiter, err := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies, cfg.Clock, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limiter: %w", err)
	}

	s := &Server{
		responder:      responder{logger: logger},
		orderHandler:   NewOrderHandler(orders, logger),
		balanceHandler: balanceHandler,
		adminHandler:   NewAdminHandler(orderSync, cfg.AdminAPIKey, logger),
		rateLimiter:    rateLimiter,
		assetValidator: assets.NewValidator(registry, cfg.AssetCacheTTL, cfg.Clock),
		gatherer:       gatherer,
		clock:          cfg.Clock,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second, // force sync waits on RPC
			IdleTimeout:  60 * time.Second,
		},
	}
	// CORS wraps the router so preflight requests never hit route matching
	s.handler = s.corsMiddleware(s.setupRoutes())
	s.server.Handler = s.handler

	return s, nil
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the API server
func (s *Server) Start() error {
	s.logger.Info("Starting API server", zap.String("address", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping API server")
	return s.server.Shutdown(ctx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() *mux.Router {
	router := mux.NewRouter()

	router.Use(s.loggingMiddleware)

	if s.gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimiter.Middleware)

	api.HandleFunc("/health", s.healthCheck).Methods("GET")

	api.HandleFunc("/orders/{id}", s.orderHandler.GetOrder).Methods("GET")

	api.HandleFunc("/balance/{wallet_address}", s.balanceHandler.GetBalance).Methods("GET")
	api.Handle("/balance/{wallet_address}/{symbol}",
		s.assetValidationMiddleware(s.assetValidator)(http.HandlerFunc(s.balanceHandler.GetTokenBalance))).Methods("GET")

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(s.adminHandler.requireAdminKey)
	admin.HandleFunc("/order-sync/stats", s.adminHandler.GetOrderSyncStats).Methods("GET")
	admin.HandleFunc("/order-sync/force", s.adminHandler.ForceOrderSync).Methods("POST")

	return router
}

// healthCheck handles the health check endpoint
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.clock.Now().UTC().Format(time.RFC3339),
	})
}
