package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/logging"
	pb "github.com/dmitrijs2005/healthsync/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const defaultRetryDelay = 2 * time.Second

// GRPCRemote is the streaming backend served by cmd/server.
type GRPCRemote struct {
	conn       *grpc.ClientConn
	client     pb.SyncServiceClient
	logger     logging.Logger
	retryDelay time.Duration
}

// NewGRPCRemote creates a lazy client connection to addr. Extra dial options
// are appended after the insecure transport credentials.
func NewGRPCRemote(addr string, logger logging.Logger, opts ...grpc.DialOption) (*GRPCRemote, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}

	return &GRPCRemote{
		conn:       conn,
		client:     pb.NewSyncServiceClient(conn),
		logger:     logger.With("module", "remote_grpc"),
		retryDelay: defaultRetryDelay,
	}, nil
}

func (r *GRPCRemote) Ping(ctx context.Context) error {
	resp, err := r.client.Ping(ctx, &emptypb.Empty{})
	if err != nil {
		return r.mapError(err)
	}
	if resp.GetValue() != "OK" {
		return common.ErrRemoteUnavailable
	}
	return nil
}

func (r *GRPCRemote) Push(ctx context.Context, env models.SyncEnvelope) error {
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	doc, err := pb.DocumentFromJSON(b)
	if err != nil {
		return err
	}

	if _, err := r.client.Put(ctx, doc); err != nil {
		return r.mapError(err)
	}
	return nil
}

// Subscribe opens a Watch stream for syncID. When the stream breaks the error
// is delivered and the stream is reopened after a delay, until Close.
func (r *GRPCRemote) Subscribe(ctx context.Context, syncID string, fn UpdateFunc) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := newSubscription(cancel)

	go func() {
		defer close(sub.done)
		for {
			err := r.watch(ctx, syncID, fn)
			if ctx.Err() != nil {
				return
			}
			r.logger.Warn(ctx, "watch stream interrupted", "sync_id", syncID, "error", err)
			fn(Update{SyncID: syncID, Err: err})
			if !sleepCtx(ctx, r.retryDelay) {
				return
			}
		}
	}()

	return sub, nil
}

func (r *GRPCRemote) watch(ctx context.Context, syncID string, fn UpdateFunc) error {
	stream, err := r.client.Watch(ctx, wrapperspb.String(syncID))
	if err != nil {
		return r.mapError(err)
	}

	for {
		doc, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: stream closed by server", common.ErrRemoteUnavailable)
		}
		if err != nil {
			return r.mapError(err)
		}

		payload, err := pb.DocumentToJSON(doc)
		if err != nil {
			fn(Update{SyncID: syncID, Err: fmt.Errorf("%w: %w", common.ErrSyncReadMalformed, err)})
			continue
		}
		fn(Update{SyncID: syncID, Payload: payload})
	}
}

func (r *GRPCRemote) Close() error {
	return r.conn.Close()
}

func (r *GRPCRemote) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrRemoteUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
