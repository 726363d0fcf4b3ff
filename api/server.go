// Package api provides the HTTP REST backend for UserDeck
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/userdeck/userdeck/pkg/config"
	"github.com/userdeck/userdeck/pkg/interfaces"
	umetrics "github.com/userdeck/userdeck/pkg/metrics"
	"github.com/userdeck/userdeck/pkg/users"
)

// Version reported by the health endpoint and the OpenAPI document
const Version = "1.0.0"

// Server represents the API server instance
type Server struct {
	config    *config.Config
	logger    interfaces.Logger
	metrics   interfaces.Metrics
	router    *gin.Engine
	server    *http.Server
	repo      *users.Repository
	auth      *users.AuthService
	users     *users.Service
	health    interfaces.HealthChecker
	startTime time.Time
}

// NewServer creates a new API server instance
func NewServer(cfg *config.Config, repo *users.Repository, logger interfaces.Logger, metrics interfaces.Metrics) *Server {
	// Set Gin mode based on log level (use LogLevel as proxy for environment)
	if cfg.LogLevel == "error" || cfg.LogLevel == "warn" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	if metrics == nil {
		metrics = umetrics.NewNoOpMetrics()
	}

	router := gin.New()

	s := &Server{
		config:    cfg,
		logger:    logger,
		metrics:   metrics,
		router:    router,
		repo:      repo,
		auth:      users.NewAuthService(cfg.Auth, repo),
		users:     users.NewService(repo),
		health:    repo,
		startTime: time.Now(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Request ID middleware
	s.router.Use(s.requestIDMiddleware())

	// Custom logging middleware
	s.router.Use(s.loggingMiddleware())

	// Metrics middleware
	s.router.Use(s.metricsMiddleware())

	// CORS middleware
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.config.Server.CORSOrigins
	if len(corsConfig.AllowOrigins) == 1 && corsConfig.AllowOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowOrigins = nil
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	s.router.Use(cors.New(corsConfig))
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	// Open endpoints
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/", s.redirectToDocs)
	s.router.GET("/metrics", s.getMetrics)
	s.router.POST("/login", s.login)

	// API documentation endpoints
	s.router.GET("/openapi.json", s.getOpenAPISpec)
	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/openapi.json")))

	// Everything else requires a valid bearer token
	authed := s.router.Group("/", s.requireAuth())
	{
		authed.POST("/logout", s.logout)
		authed.GET("/users", s.listUsers)
		authed.POST("/user", s.createUser)
		authed.GET("/user/:id", s.getUser)
		authed.PUT("/user/:id", s.updateUser)
		authed.DELETE("/user/:id", s.deleteUser)
	}
}

// Start starts the API server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.config.Server.Address(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting API server", map[string]interface{}{
		"addr": s.server.Addr,
		"mode": gin.Mode(),
	})

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for cancellation or a listener failure
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	// Graceful shutdown
	s.logger.Info("Shutting down API server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Stop gracefully stops the API server
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()

	return s.server.Shutdown(ctx)
}
