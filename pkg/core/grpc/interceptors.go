// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     grpc
// Description: Request ID, panic recovery and access logging for compile RPCs
// Author:      msto63
// Created:     2026-09-16
// License:     MIT
// ============================================================================

package grpc

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/msto63/ct4pwd/pkg/core/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader is the metadata key carrying the request ID. It matches
// the X-Request-ID header of the HTTP API so IDs survive both transports.
const RequestIDHeader = "x-request-id"

type requestIDKey struct{}

// WithRequestID stores a request ID in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// GetRequestID returns the request ID bound to ctx, falling back to the
// incoming metadata of a call that has not passed the server chain yet
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(RequestIDHeader); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// bindRequestID makes sure ctx carries a request ID, generating one when the
// caller sent none
func bindRequestID(ctx context.Context) (context.Context, string) {
	id := GetRequestID(ctx)
	if id == "" {
		id = uuid.New().String()
	}
	return WithRequestID(ctx, id), id
}

// callRecord is one finished RPC as it appears in the access log
type callRecord struct {
	side      string
	method    string
	requestID string
	stream    bool
	start     time.Time
	err       error
}

func (c callRecord) log(logger *logging.Logger) {
	code := status.Code(c.err)
	service, rpc := splitMethod(c.method)
	kv := []interface{}{
		"side", c.side,
		"service", service,
		"rpc", rpc,
		"stream", c.stream,
		"status", code.String(),
		"duration_ms", time.Since(c.start).Milliseconds(),
	}
	if c.requestID != "" {
		kv = append(kv, "request_id", c.requestID)
	}

	switch {
	case serverFault(code):
		logger.Error("rpc failed", append(kv, "error", c.err.Error())...)
	case c.side == "client":
		logger.Debug("rpc finished", kv...)
	default:
		logger.Info("rpc finished", kv...)
	}
}

// serverFault reports codes that point at the compile service itself rather
// than at the caller's input
func serverFault(code codes.Code) bool {
	switch code {
	case codes.Internal, codes.Unknown, codes.DataLoss, codes.Unimplemented:
		return true
	}
	return false
}

// splitMethod turns "/ct4pwd.v1.Compiler/Compile" into its service and RPC
// name
func splitMethod(fullMethod string) (string, string) {
	trimmed := strings.TrimPrefix(fullMethod, "/")
	if i := strings.LastIndex(trimmed, "/"); i > 0 {
		return trimmed[:i], trimmed[i+1:]
	}
	return "", trimmed
}

// recoverInto converts a handler panic into an Internal status on *err.
// It must be deferred directly.
func recoverInto(logger *logging.Logger, method string, err *error) {
	if r := recover(); r != nil {
		logger.Error("rpc handler panicked", "method", method, "panic", r, "stack", string(debug.Stack()))
		*err = status.Error(codes.Internal, "internal server error")
	}
}

// requestStream exposes the request-ID-bearing context to stream handlers
type requestStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *requestStream) Context() context.Context { return s.ctx }

func unaryServerInterceptor(logger *logging.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		call := callRecord{side: "server", method: info.FullMethod, start: time.Now()}
		ctx, call.requestID = bindRequestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, call.requestID))

		defer func() {
			call.err = err
			call.log(logger)
		}()
		defer recoverInto(logger, info.FullMethod, &err)

		return handler(ctx, req)
	}
}

func streamServerInterceptor(logger *logging.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) (err error) {
		call := callRecord{side: "server", method: info.FullMethod, stream: true, start: time.Now()}
		var ctx context.Context
		ctx, call.requestID = bindRequestID(ss.Context())
		_ = ss.SetHeader(metadata.Pairs(RequestIDHeader, call.requestID))

		defer func() {
			call.err = err
			call.log(logger)
		}()
		defer recoverInto(logger, info.FullMethod, &err)

		return handler(srv, &requestStream{ServerStream: ss, ctx: ctx})
	}
}

// outgoingRequestID forwards the request ID of ctx (or a fresh one) in the
// outgoing metadata
func outgoingRequestID(ctx context.Context) (context.Context, string) {
	id := GetRequestID(ctx)
	if id == "" {
		id = uuid.New().String()
	}
	return metadata.AppendToOutgoingContext(ctx, RequestIDHeader, id), id
}

// unaryClientInterceptor applies timeout to calls without a deadline,
// forwards the request ID and logs the call
func unaryClientInterceptor(logger *logging.Logger, timeout time.Duration) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if _, ok := ctx.Deadline(); !ok && timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		call := callRecord{side: "client", method: method, start: time.Now()}
		ctx, call.requestID = outgoingRequestID(ctx)
		call.err = invoker(ctx, method, req, reply, cc, opts...)
		call.log(logger)
		return call.err
	}
}

func streamClientInterceptor(logger *logging.Logger) grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		call := callRecord{side: "client", method: method, stream: true, start: time.Now()}
		ctx, call.requestID = outgoingRequestID(ctx)
		stream, err := streamer(ctx, desc, cc, method, opts...)
		call.err = err
		call.log(logger)
		return stream, err
	}
}

// serverInterceptors returns the interceptor chains installed by NewServer
func serverInterceptors(logger *logging.Logger) []grpc.ServerOption {
	return []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unaryServerInterceptor(logger)),
		grpc.ChainStreamInterceptor(streamServerInterceptor(logger)),
	}
}

// clientInterceptors returns the interceptor chains installed by Dial
func clientInterceptors(logger *logging.Logger, timeout time.Duration) []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithChainUnaryInterceptor(unaryClientInterceptor(logger, timeout)),
		grpc.WithChainStreamInterceptor(streamClientInterceptor(logger)),
	}
}
