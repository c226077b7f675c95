// Package remote talks to the shared sync location. Every SyncId owns one
// document at healthData/<syncId>; a push overwrites it wholesale and a
// subscription reports each version it sees.
//
// Two backends exist: GRPCRemote keeps a server stream open and is told
// about writes as they happen, S3Remote polls an object bucket.
package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/healthsync/internal/client/config"
	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/logging"
)

// Update is one delivery from a subscription: either a raw envelope
// document or an error describing why none could be read.
type Update struct {
	SyncID  string
	Payload []byte
	Err     error
}

// UpdateFunc is called from the subscription goroutine.
type UpdateFunc func(Update)

// Subscription is a live listener. Close stops it and waits until no further
// UpdateFunc call can happen. Close is idempotent and must not be called from
// inside the UpdateFunc.
type Subscription interface {
	Close()
}

type Remote interface {
	Ping(ctx context.Context) error
	Push(ctx context.Context, env models.SyncEnvelope) error
	Subscribe(ctx context.Context, syncID string, fn UpdateFunc) (Subscription, error)
	Close() error
}

// New builds the backend selected by cfg.RemoteKind.
func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (Remote, error) {
	switch cfg.RemoteKind {
	case config.RemoteGRPC:
		return NewGRPCRemote(cfg.ServerEndpointAddr, logger)
	case config.RemoteS3:
		return NewS3Remote(ctx, S3Options{
			Endpoint:     cfg.S3Endpoint,
			Region:       cfg.S3Region,
			Bucket:       cfg.S3Bucket,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			PollInterval: cfg.PollInterval,
		}, logger)
	case config.RemoteNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown remote kind %q", cfg.RemoteKind)
	}
}
