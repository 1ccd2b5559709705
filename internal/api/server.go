// Package api is the small status server other tools poll: health,
// the latest news-data snapshot, and Prometheus metrics.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/dutchbrat/hedgefund-agent/internal/metrics"
	"github.com/dutchbrat/hedgefund-agent/internal/publish"
)

// SnapshotReader serves the latest cached news-data snapshot
type SnapshotReader interface {
	Read() (*publish.CacheSnapshot, error)
}

// HealthChecker reports database liveness
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server is the REST status server
type Server struct {
	router   *gin.Engine
	cache    SnapshotReader
	db       HealthChecker
	addr     string
	server   *http.Server
	rotation uint64
}

// Config contains server configuration
type Config struct {
	Host  string
	Port  int
	Cache SnapshotReader
	DB    HealthChecker
}

// NewServer creates the status server
func NewServer(config Config) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	server := &Server{
		router: router,
		cache:  config.Cache,
		db:     config.DB,
		addr:   fmt.Sprintf("%s:%d", config.Host, config.Port),
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/hedgefund-news-data", s.handleNewsData)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info().Str("addr", s.addr).Msg("Starting status API server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping status API server")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to stop server: %w", err)
		}
	}

	return nil
}

// Router exposes the gin engine for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// LoggerMiddleware logs requests and feeds the HTTP request counter
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()
		method := c.Request.Method

		metrics.RecordHTTPRequest(method, path, fmt.Sprintf("%d", statusCode))

		logEvent := log.Info().
			Str("method", method).
			Str("path", path).
			Int("status", statusCode).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP())

		if len(c.Errors) > 0 {
			logEvent.Str("errors", c.Errors.String())
		}

		logEvent.Msg("API request")
	}
}
