// Package server
//
// @title mobbind API
// @version 1.0
// @description Login and search proxy for the Mobbin design-reference API
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mobbind-dev/mobbind/internal/config"
	"github.com/mobbind-dev/mobbind/internal/upstream"
)

// Server represents the HTTP server
type Server struct {
	router   *gin.Engine
	config   *config.Config
	logger   zerolog.Logger
	upstream *upstream.Client
	version  string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	if err := registerValidationsOnce(); err != nil {
		return nil, fmt.Errorf("failed to register validations: %w", err)
	}

	server := &Server{
		config:   cfg,
		logger:   zlog,
		upstream: upstream.New(cfg.Upstream, zlog),
		version:  version,
	}

	if cfg.Upstream.DefaultToken != "" {
		zlog.Info().Msg("Default upstream token configured - protected routes work without a caller token")
	}

	server.setupRouter()

	return server, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(s.config.CORS.AllowedOrigins) == 1 && s.config.CORS.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.config.CORS.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	s.router.Use(cors.New(corsConfig))

	// Health check endpoints (no auth required)
	s.router.GET("/", s.healthCheck)
	s.router.GET("/health", s.healthCheck)

	// Login flows (no auth required)
	login := s.router.Group("/api/login")
	{
		login.POST("/password", s.loginWithPassword)
		login.POST("/send-otp", s.sendOTP)
		login.POST("/verify", s.verifyOTP)
		login.GET("/sso", s.ssoAuthorize)
		login.POST("/sso/callback", s.ssoCallback)
	}

	// Routes that forward a caller-supplied (or default) upstream token
	api := s.router.Group("/api")
	api.Use(UpstreamTokenMiddleware(s.config.Upstream.DefaultToken, s.logger))
	{
		api.GET("/search", s.searchApps)
		api.GET("/latest-apps", s.latestApps)
		api.GET("/session", s.getSession)
	}
}

// @Router / [get]
// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "mobbind",
		"version":   s.version,
	})
}

// Handler returns the router as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until SIGINT or SIGTERM
func (s *Server) Start() error {
	addr := s.config.Addr()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
		// Outbound calls are capped by the upstream timeout, so these only need headroom above it
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.Upstream.Timeout + 30*time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("upstream", s.upstream.BaseURL()).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
