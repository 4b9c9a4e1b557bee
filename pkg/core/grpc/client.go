// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     grpc
// Description: gRPC client connection helpers
// Author:      msto63
// Created:     2026-09-16
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/msto63/ct4pwd/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
)

// ClientConfig holds gRPC client configuration
type ClientConfig struct {
	Target            string
	Timeout           time.Duration
	MaxRecvMsgSize    int
	MaxSendMsgSize    int
	KeepaliveInterval time.Duration
	KeepaliveTimeout  time.Duration
	Logger            *logging.Logger
}

// DefaultClientConfig returns a default client configuration
func DefaultClientConfig(target string) ClientConfig {
	return ClientConfig{
		Target:            target,
		Timeout:           30 * time.Second,
		MaxRecvMsgSize:    16 * 1024 * 1024, // 16MB
		MaxSendMsgSize:    16 * 1024 * 1024, // 16MB
		KeepaliveInterval: 30 * time.Second,
		KeepaliveTimeout:  10 * time.Second,
	}
}

// Dial creates a new gRPC client connection. The connection is lazy;
// use WaitHealthy to confirm the server is reachable.
func Dial(cfg ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.New("grpc-client")
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(cfg.MaxSendMsgSize),
		),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                cfg.KeepaliveInterval,
			Timeout:             cfg.KeepaliveTimeout,
			PermitWithoutStream: true,
		}),
	}
	dialOpts = append(dialOpts, clientInterceptors(logger, cfg.Timeout)...)
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(cfg.Target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", cfg.Target, err)
	}

	return conn, nil
}

// WaitHealthy queries the standard health service until it reports
// SERVING for service or ctx ends
func WaitHealthy(ctx context.Context, conn *grpc.ClientConn, service string) error {
	client := healthpb.NewHealthClient(conn)
	for {
		resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err == nil && resp.GetStatus() == healthpb.HealthCheckResponse_SERVING {
			return nil
		}

		select {
		case <-ctx.Done():
			if err != nil {
				return fmt.Errorf("health check %q: %w", service, err)
			}
			return fmt.Errorf("health check %q: status %s", service, resp.GetStatus())
		case <-time.After(100 * time.Millisecond):
		}
	}
}
