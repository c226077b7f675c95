// Package grpc exposes the envelope service over the healthsync gRPC
// contract.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/healthsync/internal/logging"
	pb "github.com/dmitrijs2005/healthsync/internal/proto"
	"github.com/dmitrijs2005/healthsync/internal/server/envelopes"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	pb.UnimplementedSyncServiceServer
	address   string
	envelopes *envelopes.Service
	logger    logging.Logger

	// shutdown is closed when Serve's context ends; Watch streams return on
	// it so GracefulStop does not wait on them forever.
	shutdown <-chan struct{}
}

func NewGRPCServer(a string, l logging.Logger, es *envelopes.Service) (*GRPCServer, error) {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		envelopes: es,
	}, nil
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops
// gracefully. Open Watch streams end when their contexts are cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.unaryInterceptor),
		grpc.ChainStreamInterceptor(s.streamInterceptor),
	)

	s.shutdown = ctx.Done()
	pb.RegisterSyncServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
