package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hushnetwork/token-factory/internal/api/middleware"
	"github.com/hushnetwork/token-factory/internal/api/rest"
	"github.com/hushnetwork/token-factory/internal/contracts/factory"
	"github.com/hushnetwork/token-factory/internal/ledger"
	"github.com/hushnetwork/token-factory/internal/logger"
)

// Config holds the server configuration
type Config struct {
	Debug        bool
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Admin        common.Address
	JWTPublicKey string
	APIKeys      []string
}

// Server wraps the HTTP server
type Server struct {
	config     Config
	env        *ledger.Env
	factory    *factory.Factory
	httpServer *http.Server
}

// New creates a new API server
func New(cfg Config, env *ledger.Env, f *factory.Factory) *Server {
	return &Server{
		config:  cfg,
		env:     env,
		factory: f,
	}
}

// Start initializes and starts the HTTP server
func (s *Server) Start() error {
	// Set Gin mode based on debug flag
	if s.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()

	// Setup middleware
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.SetupCORS())

	// Create REST handler
	restHandler := rest.NewHandler(s.env, s.factory, s.config.Admin)

	// Setup REST routes
	authCfg := middleware.AuthConfig{
		JWTPublicKey: s.config.JWTPublicKey,
		APIKeys:      s.config.APIKeys,
	}
	rest.SetupRoutes(router, restHandler, authCfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	logger.Info("Starting API server",
		zap.String("address", addr),
	)

	// Start server
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down API server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown server: %w", err)
		}
	}

	return nil
}
