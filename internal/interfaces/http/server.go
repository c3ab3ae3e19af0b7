// Package http provides the HTTP adapter for the application layer. It is a
// thin translation layer between gin routes and application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kmorales/expenseflow/internal/application/service"
	"github.com/kmorales/expenseflow/internal/auth"
	"github.com/kmorales/expenseflow/internal/receipt"
	"github.com/kmorales/expenseflow/internal/report"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services bundles the application services the server exposes.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Flows    *service.FlowService
	Expenses *service.ExpenseService
	Scanner  *receipt.Scanner
	PDF      *receipt.PDFReader
	Exporter *report.ExpenseExporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	tokens     *auth.TokenManager
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, tokens *auth.TokenManager, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		tokens:   tokens,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(metricsMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authHandlers := NewAuthHandlers(s.services.Auth, s.logger)
	expenseHandlers := NewExpenseHandlers(s.services.Expenses, s.services.Scanner, s.services.PDF, s.logger)
	adminHandlers := NewAdminHandlers(s.services.Users, s.services.Flows, s.services.Expenses, s.services.Exporter, s.logger)

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", metricsHandler())

	api := s.router.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", authHandlers.Register)
		authGroup.POST("/login", authHandlers.Login)
	}

	expenses := api.Group("/expenses", authMiddleware(s.tokens))
	{
		expenses.POST("", expenseHandlers.Submit)
		expenses.GET("/my", expenseHandlers.My)
		expenses.GET("/pending-approvals",
			requireCapability(auth.CapReviewExpenses), expenseHandlers.PendingApprovals)
		expenses.PUT("/:id/process", expenseHandlers.Process)
		expenses.POST("/scan-receipt", expenseHandlers.ScanReceipt)
	}

	admin := api.Group("/admin", authMiddleware(s.tokens))
	{
		users := admin.Group("/users", requireCapability(auth.CapManageUsers))
		{
			users.POST("", adminHandlers.CreateUser)
			users.GET("", adminHandlers.ListUsers)
			users.GET("/:id", adminHandlers.GetUser)
			users.PUT("/:id", adminHandlers.UpdateUser)
		}

		flows := admin.Group("/approval-flows", requireCapability(auth.CapManageFlows))
		{
			flows.POST("", adminHandlers.CreateFlow)
			flows.GET("", adminHandlers.ListFlows)
			flows.GET("/:id", adminHandlers.GetFlow)
			flows.PUT("/:id", adminHandlers.UpdateFlow)
		}

		oversight := admin.Group("/expenses", requireCapability(auth.CapOverseeExpenses))
		{
			oversight.GET("", adminHandlers.ListExpenses)
			oversight.GET("/export", adminHandlers.ExportExpenses)
		}
	}
}

// healthCheck handles GET /health
func (s *Server) healthCheck(c *gin.Context) {
	respondOK(c, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   "1.0.0",
	})
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
