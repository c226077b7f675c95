package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/healthsync/internal/common"
	pb "github.com/dmitrijs2005/healthsync/internal/proto"
	"github.com/dmitrijs2005/healthsync/internal/server/observability"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Put(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {

	syncID, err := pb.SyncIDOf(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	doc, err := pb.DocumentToJSON(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err := s.envelopes.Put(ctx, syncID, doc); err != nil {
		s.logger.Error(ctx, "put failed", "sync_id", syncID, "error", err)
		return nil, mapError(err)
	}

	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Get(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	doc, err := s.envelopes.Get(ctx, req.GetValue())
	if err != nil {
		return nil, mapError(err)
	}

	out, err := pb.DocumentFromJSON(doc)
	if err != nil {
		return nil, status.Error(codes.DataLoss, err.Error())
	}
	return out, nil
}

// Watch sends the stored document first, if any, then every later write
// until the client goes away.
func (s *GRPCServer) Watch(req *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	syncID := req.GetValue()

	current, updates, stop, err := s.envelopes.Watch(ctx, syncID)
	if err != nil {
		return mapError(err)
	}
	defer stop()

	observability.WatcherOpened()
	defer observability.WatcherClosed()

	s.logger.Debug(ctx, "watch opened", "sync_id", syncID)

	if current != nil {
		if err := s.send(stream, current); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug(ctx, "watch closed", "sync_id", syncID)
			return nil
		case <-s.shutdown:
			return status.Error(codes.Unavailable, "server shutting down")
		case doc := <-updates:
			if err := s.send(stream, doc); err != nil {
				return err
			}
		}
	}
}

func (s *GRPCServer) send(stream grpc.ServerStreamingServer[structpb.Struct], doc []byte) error {
	msg, err := pb.DocumentFromJSON(doc)
	if err != nil {
		s.logger.Warn(stream.Context(), "stored document is not a JSON object, skipped", "error", err)
		return nil
	}
	return stream.Send(msg)
}

func (s *GRPCServer) Ping(ctx context.Context, req *emptypb.Empty) (*wrapperspb.StringValue, error) {

	return wrapperspb.String("OK"), nil

}

func mapError(err error) error {
	switch {
	case errors.Is(err, common.ErrInvalidSyncID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
