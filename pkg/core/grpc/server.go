// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     grpc
// Description: gRPC server wrapper with interceptors, health and reflection
// Author:      msto63
// Created:     2026-09-16
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/msto63/ct4pwd/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

// ServerConfig holds gRPC server configuration
type ServerConfig struct {
	Host              string
	Port              int
	MaxRecvMsgSize    int
	MaxSendMsgSize    int
	EnableReflection  bool
	EnableHealth      bool
	KeepaliveInterval time.Duration
	KeepaliveTimeout  time.Duration
	Logger            *logging.Logger
}

// DefaultServerConfig returns a default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:              "0.0.0.0",
		Port:              9080,
		MaxRecvMsgSize:    16 * 1024 * 1024, // 16MB
		MaxSendMsgSize:    16 * 1024 * 1024, // 16MB
		EnableReflection:  true,
		EnableHealth:      true,
		KeepaliveInterval: 30 * time.Second,
		KeepaliveTimeout:  10 * time.Second,
	}
}

// Server wraps a gRPC server with additional functionality
type Server struct {
	server   *grpc.Server
	health   *health.Server
	config   ServerConfig
	logger   *logging.Logger
	mu       sync.Mutex
	listener net.Listener
}

// NewServer creates a new gRPC server
func NewServer(cfg ServerConfig, opts ...grpc.ServerOption) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("grpc-server")
	}

	serverOpts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    cfg.KeepaliveInterval,
			Timeout: cfg.KeepaliveTimeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	}
	serverOpts = append(serverOpts, serverInterceptors(logger)...)
	serverOpts = append(serverOpts, opts...)

	server := grpc.NewServer(serverOpts...)

	s := &Server{
		server: server,
		config: cfg,
		logger: logger,
	}

	if cfg.EnableHealth {
		s.health = health.NewServer()
		healthpb.RegisterHealthServer(server, s.health)
	}
	if cfg.EnableReflection {
		reflection.Register(server)
	}

	return s
}

// GRPCServer returns the underlying gRPC server for service registration
func (s *Server) GRPCServer() *grpc.Server {
	return s.server
}

// SetServingStatus updates the health status of service; "" is the
// overall server status. No-op when health is disabled.
func (s *Server) SetServingStatus(service string, serving bool) {
	if s.health == nil {
		return
	}
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus(service, st)
}

// Start listens on the configured address and serves until stopped
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(listener)
}

// Serve serves on an existing listener
func (s *Server) Serve(listener net.Listener) error {
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	return s.server.Serve(listener)
}

// StartAsync starts the gRPC server in a goroutine
func (s *Server) StartAsync() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	go func() {
		if err := s.Serve(listener); err != nil {
			// the server may be shutting down
			s.logger.Error("gRPC server error", "error", err)
		}
	}()

	return nil
}

// Stop gracefully stops the gRPC server
func (s *Server) Stop() {
	if s.health != nil {
		s.health.Shutdown()
	}
	s.server.GracefulStop()
}

// StopWithTimeout stops gracefully, forcing a stop when ctx ends first
func (s *Server) StopWithTimeout(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
		return
	case <-ctx.Done():
		s.server.Stop()
	}
}

// Address returns the server address
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
