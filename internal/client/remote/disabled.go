package remote

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/common"
)

// Disabled is the remote used when none is configured. Every call fails with
// common.ErrRemoteUnavailable, which puts the session in local-only mode.
type Disabled struct{}

func (Disabled) Ping(context.Context) error {
	return fmt.Errorf("%w: no remote configured", common.ErrRemoteUnavailable)
}

func (Disabled) Push(context.Context, models.SyncEnvelope) error {
	return fmt.Errorf("%w: no remote configured", common.ErrRemoteUnavailable)
}

func (Disabled) Subscribe(context.Context, string, UpdateFunc) (Subscription, error) {
	return nil, fmt.Errorf("%w: no remote configured", common.ErrRemoteUnavailable)
}

func (Disabled) Close() error { return nil }
