// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     server
// Description: HTTP and gRPC server of the Lovelace compile service
// Author:      msto63
// Created:     2026-09-25
// License:     MIT
// ============================================================================

package server

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	mdwerror "github.com/msto63/ct4pwd/foundation/core/error"
	"github.com/msto63/ct4pwd/internal/lovelace/detector"
	"github.com/msto63/ct4pwd/internal/lovelace/service"
	"github.com/msto63/ct4pwd/internal/lovelace/store"
	"github.com/msto63/ct4pwd/pkg/core/config"
	coregrpc "github.com/msto63/ct4pwd/pkg/core/grpc"
	"github.com/msto63/ct4pwd/pkg/core/health"
	"github.com/msto63/ct4pwd/pkg/core/logging"
	"github.com/msto63/ct4pwd/pkg/core/version"
)

// Server is the Lovelace compile server
type Server struct {
	httpServer *http.Server
	grpcServer *coregrpc.Server
	handler    *Handler
	svc        *service.Service
	health     *health.Registry
	logger     *logging.Logger
	config     Config
}

// Config holds server configuration
type Config struct {
	Host           string
	HTTPPort       int
	GRPCPort       int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	Version        string
	MaxUploadBytes int64
	CORSEnabled    bool
	AllowedOrigins []string
	DetectorURL    string
	DisableGRPC    bool
	Logger         *logging.Logger
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:           "0.0.0.0",
		HTTPPort:       8080,
		GRPCPort:       9080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		Version:        version.Lovelace,
		MaxUploadBytes: 16 * 1024 * 1024,
		CORSEnabled:    true,
		AllowedOrigins: []string{"*"},
	}
}

// ConfigFrom reads the server section of the application configuration
func ConfigFrom(cfg *config.Config) Config {
	c := DefaultConfig()
	c.Host = cfg.Lovelace.Host
	c.HTTPPort = cfg.Lovelace.HTTPPort
	c.GRPCPort = cfg.Lovelace.GRPCPort
	c.ReadTimeout = cfg.Lovelace.ReadTimeout.Duration
	c.WriteTimeout = cfg.Lovelace.WriteTimeout.Duration
	c.MaxUploadBytes = cfg.MaxUploadBytes()
	c.CORSEnabled = cfg.Lovelace.CORS.Enabled
	c.AllowedOrigins = cfg.Lovelace.CORS.AllowedOrigins
	c.DetectorURL = cfg.Lovelace.DetectorURL
	return c
}

// NewService assembles the compile service from the application
// configuration: SQLite store, HTTP detector (when configured) and engine
// options.
func NewService(cfg *config.Config, logger *logging.Logger) (*service.Service, error) {
	svcCfg, err := service.ConfigFrom(cfg)
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLiteStore(store.SQLiteConfig{Path: cfg.Lovelace.DBPath})
	if err != nil {
		return nil, mdwerror.Wrap(err, "failed to open level store").
			WithCode(mdwerror.CodeServiceInitialization).
			WithDetail("path", cfg.Lovelace.DBPath)
	}
	svcCfg.Store = st

	if cfg.Lovelace.DetectorURL != "" {
		svcCfg.Detector = detector.NewHTTPDetector(detector.Config{
			URL:     cfg.Lovelace.DetectorURL,
			Timeout: cfg.Lovelace.DetectorTimeout.Duration,
			Logger:  logger,
		})
	}
	svcCfg.Logger = logger

	return service.New(svcCfg), nil
}

// New creates a new Lovelace server around svc
func New(cfg Config, svc *service.Service) (*Server, error) {
	if svc == nil {
		return nil, mdwerror.New("compile service is required").
			WithCode(mdwerror.CodeServiceInitialization)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("lovelace-server")
	}
	if cfg.Version == "" {
		cfg.Version = version.Lovelace
	}

	healthRegistry := health.NewRegistry("lovelace", cfg.Version)
	healthRegistry.Register(health.AlwaysHealthy("http"))
	healthRegistry.Register(health.PingCheck("store", svc.Store().Ping))
	if cfg.DetectorURL != "" {
		healthRegistry.Register(health.HTTPCheck("detector", cfg.DetectorURL, 2*time.Second, true))
	}

	h := NewHandler(HandlerConfig{
		Version:        cfg.Version,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CORSEnabled:    cfg.CORSEnabled,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}, svc, healthRegistry)
	wsHandler := NewWebSocketHandler(svc, logger)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/ws", wsHandler)
	mux.Handle("/", h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.HTTPPort),
		Handler:      loggingMiddleware(logger, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	s := &Server{
		httpServer: httpServer,
		handler:    h,
		svc:        svc,
		health:     healthRegistry,
		logger:     logger,
		config:     cfg,
	}

	if !cfg.DisableGRPC {
		grpcCfg := coregrpc.DefaultServerConfig()
		grpcCfg.Host = cfg.Host
		grpcCfg.Port = cfg.GRPCPort
		grpcCfg.MaxRecvMsgSize = int(cfg.MaxUploadBytes) * 2
		grpcCfg.Logger = logger
		s.grpcServer = coregrpc.NewServer(grpcCfg)
		RegisterCompilerServer(s.grpcServer.GRPCServer(), NewCompilerServer(svc, logger))
	}

	return s, nil
}

// loggingMiddleware adds request logging
func loggingMiddleware(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"request_id", w.Header().Get(RequestIDHeader),
			"duration", time.Since(start),
		)
	})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWrapper) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher
func (w *responseWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack implements http.Hijacker for WebSocket upgrades
func (w *responseWrapper) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	w.statusCode = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// Start serves gRPC in the background and HTTP until stopped
func (s *Server) Start() error {
	if err := s.startGRPC(); err != nil {
		return err
	}
	s.logger.Info("Starting Lovelace compile server",
		"host", s.config.Host,
		"http_port", s.config.HTTPPort,
		"grpc_port", s.config.GRPCPort,
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// StartAsync starts both servers in the background
func (s *Server) StartAsync() error {
	if err := s.startGRPC(); err != nil {
		return err
	}
	s.logger.Info("Starting Lovelace compile server (async)",
		"host", s.config.Host,
		"http_port", s.config.HTTPPort,
		"grpc_port", s.config.GRPCPort,
	)

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	return nil
}

func (s *Server) startGRPC() error {
	if s.grpcServer == nil {
		return nil
	}
	if err := s.grpcServer.StartAsync(); err != nil {
		return err
	}
	s.grpcServer.SetServingStatus("", true)
	s.grpcServer.SetServingStatus(CompilerServiceName, true)
	return nil
}

// Stop gracefully stops both servers and closes the service
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping Lovelace compile server")

	if s.grpcServer != nil {
		s.grpcServer.SetServingStatus(CompilerServiceName, false)
		s.grpcServer.StopWithTimeout(ctx)
	}

	err := s.httpServer.Shutdown(ctx)
	if cerr := s.svc.Close(); cerr != nil {
		s.logger.Warn("Error closing compile service", "error", cerr)
	}
	return err
}

// Handler returns the HTTP handler including middleware and WebSocket
// route
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// GRPC returns the gRPC server, nil when disabled
func (s *Server) GRPC() *coregrpc.Server {
	return s.grpcServer
}

// Address returns the HTTP server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.HTTPPort)
}

// HealthRegistry returns the health check registry
func (s *Server) HealthRegistry() *health.Registry {
	return s.health
}
