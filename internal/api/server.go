// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/lumina-dashboard/internal/advisor"
	"github.com/lumina-dashboard/internal/dashboard"
	"github.com/lumina-dashboard/internal/logging"
)

// Server represents the HTTP API server.
type Server struct {
	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	session    *dashboard.Session
	hub        *StreamHub
	config     *ServerConfig
	logger     *logging.Logger
	started    time.Time
	publisher  TickCounter
}

// TickCounter reports delivery counts of an external tick fan-out
type TickCounter interface {
	Counts() (published, failed uint64)
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerSecond float64 // per client; 0 disables limiting
	Burst             int
}

// DefaultServerConfig returns timeouts suited to the slowest simulated
// operations (swap and wallet delays) with room to spare.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:              "0.0.0.0",
		Port:              "8080",
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		RequestsPerSecond: 20,
		Burst:             40,
	}
}

// NewServer creates a new API server instance and subscribes its stream hub
// to the session's ticks.
func NewServer(config *ServerConfig, session *dashboard.Session, logger *logging.Logger) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	s := &Server{
		router:  mux.NewRouter(),
		session: session,
		hub:     NewStreamHub(session.Metrics, logger),
		config:  config,
		logger:  logger.WithField("component", "api"),
		started: time.Now(),
	}
	session.AddTickListener(s.hub)

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.RequestsPerSecond, s.config.Burst)

	// Set up middleware (order matters!)
	s.router.Use(RequestIDMiddleware(s.logger))
	s.router.Use(LoggingMiddleware(s.session.Metrics))
	s.router.Use(RecoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.session.Metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(rateLimiter))
	api.Use(CompressionMiddleware)
	s.setupRoutes(api)

	// CORS wraps the router so preflight requests are answered before
	// method matching
	s.handler = CORSMiddleware(s.router)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes(api *mux.Router) {
	// Market endpoints
	api.HandleFunc("/assets", s.handleListAssets).Methods(http.MethodGet)
	api.HandleFunc("/assets/{id}", s.handleGetAsset).Methods(http.MethodGet)
	api.HandleFunc("/gas", s.handleGetGas).Methods(http.MethodGet)
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	// Portfolio endpoints
	api.HandleFunc("/portfolio", s.handleGetPortfolio).Methods(http.MethodGet)

	// Swap endpoints
	api.HandleFunc("/swap/quote", s.handleGetQuote).Methods(http.MethodGet)
	api.HandleFunc("/swap", s.handleExecuteSwap).Methods(http.MethodPost)

	// Activity endpoints
	api.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.handleListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications", s.handlePushNotification).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}", s.handleRemoveNotification).Methods(http.MethodDelete)
	api.HandleFunc("/actions/copy-address", s.handleCopyAddress).Methods(http.MethodPost)
	api.HandleFunc("/actions/claim-rewards", s.handleClaimRewards).Methods(http.MethodPost)

	// Wallet endpoints
	api.HandleFunc("/wallet", s.handleGetWallet).Methods(http.MethodGet)
	api.HandleFunc("/wallet/connect", s.handleConnectWallet).Methods(http.MethodPost)

	// Advisor endpoints
	api.HandleFunc("/advisor/messages", s.handleListMessages).Methods(http.MethodGet)
	api.HandleFunc("/advisor/messages", s.handleClearMessages).Methods(http.MethodDelete)
	api.HandleFunc("/advisor/chat", s.handleChat).Methods(http.MethodPost)
	api.HandleFunc("/advisor/actions/{action}", s.handleQuickAction).Methods(http.MethodPost)
	api.HandleFunc("/advisor/brief", s.handleBrief).Methods(http.MethodGet)
	api.HandleFunc("/advisor/assets/{id}/analysis", s.handleAnalyzeAsset).Methods(http.MethodGet)
	api.HandleFunc("/advisor/rebalance", s.handleRebalance).Methods(http.MethodGet)
	api.HandleFunc("/advisor/history", s.handleAnalyzeHistory).Methods(http.MethodGet)
}

// Router exposes the configured handler, mainly for tests.
// SetTickPublisher adds the publisher's counts to the health report
func (s *Server) SetTickPublisher(p TickCounter) {
	s.publisher = p
}

func (s *Server) Router() http.Handler {
	return s.handler
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":          "healthy",
		"service":         "lumina-dashboard",
		"uptimeSeconds":   int(time.Since(s.started).Seconds()),
		"simulator":       s.session.Simulator.Running(),
		"streamClients":   s.hub.Len(),
		"tickInterval":    s.session.Simulator.Interval().String(),
		"notificationTTL": s.session.Notifications.TTL().String(),
	}
	if s.publisher != nil {
		published, failed := s.publisher.Counts()
		body["tickPublisher"] = map[string]uint64{
			"published": published,
			"failed":    failed,
		}
	}
	if gw, ok := s.session.Gateway.(*advisor.GeminiGateway); ok {
		body["advisor"] = gw.BreakerStats()
	} else {
		body["advisor"] = map[string]string{"state": "offline"}
	}
	respondJSON(w, http.StatusOK, body)
}

// Start starts the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server. Stream clients are hijacked
// connections the HTTP server does not track, so the hub closes them.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}
