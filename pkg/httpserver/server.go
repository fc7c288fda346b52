package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"onemeter-bridge/pkg/logger"
	"onemeter-bridge/pkg/metrics"
)

// HealthChecker reports the bridge's current attach/subscribe state for the
// /healthz endpoint. Callers typically wire this as
// func() string { return coord.State().String() }.
type HealthChecker func() string

// Config configures the ambient health/metrics HTTP server.
type Config struct {
	Enabled bool
	Port    int
}

// Server serves /healthz and /metrics over Gin, grounded on the teacher
// pack's gin-based exporter server shape, generalized from a dedicated
// metrics-only server to this bridge's combined health+metrics endpoint.
type Server struct {
	cfg     Config
	health  HealthChecker
	metrics metrics.MetricsCollector
	engine  *gin.Engine
	srv     *http.Server

	mu      sync.Mutex
	running bool
}

// New creates a new Server. Pass metrics.NewNullMetrics() to disable
// metrics collection while keeping /healthz available.
func New(cfg Config, health HealthChecker, collector metrics.MetricsCollector) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		cfg:     cfg,
		health:  health,
		metrics: collector,
		engine:  engine,
	}
	s.setupRoutes()

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"state":  s.health(),
	})
}

// Start starts the server in the background if enabled; no-op otherwise.
func (s *Server) Start() {
	if !s.cfg.Enabled {
		logger.LogInfo("http server disabled (http_server.enabled=false)")
		return
	}

	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	logger.LogInfo("starting http server on %s", s.srv.Addr)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError("http server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server, if running.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}
