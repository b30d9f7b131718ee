// Package api exposes a small HTTP diagnostics surface over a running
// connection supervisor: connection state, attempt counter, queue
// depths, and a health probe. The core never depends on this package.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/VeltaLabs/veltalk-client/pkg/network"
)

// Core is the view of the connection supervisor the API serves.
type Core interface {
	State() network.ConnectionState
	ClientID() string
	Stats() network.Stats
}

// Config holds server configuration.
type Config struct {
	Port         int
	EnableCORS   bool
	RateLimit    int // requests per minute per client IP
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:         8080,
		EnableCORS:   true,
		RateLimit:    100,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP diagnostics server.
type Server struct {
	core         Core
	log          zerolog.Logger
	router       *gin.Engine
	port         int
	readTimeout  time.Duration
	writeTimeout time.Duration
	httpServer   *http.Server
	startedAt    time.Time
}

// NewServer creates a diagnostics server over the given core.
func NewServer(core Core, config *Config, log zerolog.Logger) (*Server, error) {
	if core == nil {
		return nil, fmt.Errorf("api server requires a core")
	}
	if config == nil {
		config = DefaultConfig()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	def := DefaultConfig()
	readTimeout := config.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = def.ReadTimeout
	}
	writeTimeout := config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = def.WriteTimeout
	}

	server := &Server{
		core:         core,
		log:          log,
		router:       router,
		port:         config.Port,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
		startedAt:    time.Now(),
	}

	server.setupMiddleware(config)
	server.setupRoutes()

	return server, nil
}

func (s *Server) setupMiddleware(config *Config) {
	if config.EnableCORS {
		s.router.Use(CORSMiddleware())
	}
	if config.RateLimit > 0 {
		s.router.Use(RateLimitMiddleware(NewRateLimiter(config.RateLimit)))
	}
	s.router.Use(LoggingMiddleware(s.log))
	s.router.Use(gin.Recovery())
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/status", s.handleStatus)
		v1.GET("/health", s.handleHealth)
	}

	// Health check endpoint (outside versioning)
	s.router.GET("/health", s.handleHealth)
}

// Handler returns the underlying HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildHTTPServer assembles the http.Server with the configured
// timeouts.
func (s *Server) buildHTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

// Start runs the server until the context is cancelled, then shuts it
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = s.buildHTTPServer()

	go func() {
		s.log.Info().Int("port", s.port).Msg("diagnostics server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error().Err(err).Msg("diagnostics server error")
		}
	}()

	<-ctx.Done()

	s.log.Info().Msg("shutting down diagnostics server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
