package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/server/observability"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const requestIDKey = "x-request-id"

// requestID takes the caller's x-request-id or makes a new one.
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(requestIDKey); len(values) > 0 && values[0] != "" {
			return values[0]
		}
	}
	return uuid.NewString()
}

func (s *GRPCServer) unaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	rid := requestID(ctx)
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDKey, rid))

	resp, err := handler(ctx, req)

	code := status.Code(err)
	observability.RecordRPC(info.FullMethod, code.String(), time.Since(start))

	args := []any{"method", info.FullMethod, "request_id", rid, "code", code.String(), "duration", time.Since(start)}
	if err != nil {
		s.logger.Warn(ctx, "rpc failed", append(args, "error", err)...)
	} else {
		s.logger.Debug(ctx, "rpc", args...)
	}

	return resp, err
}

func (s *GRPCServer) streamInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	rid := requestID(ss.Context())
	_ = ss.SetHeader(metadata.Pairs(requestIDKey, rid))

	s.logger.Info(ss.Context(), "stream opened", "method", info.FullMethod, "request_id", rid)

	err := handler(srv, ss)

	code := status.Code(err)
	observability.RecordRPC(info.FullMethod, code.String(), -1)
	s.logger.Info(ss.Context(), "stream closed", "method", info.FullMethod, "request_id", rid, "code", code.String())

	return err
}
