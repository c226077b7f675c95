// Package envelopes persists the latest sync document per SyncId.
package envelopes

import (
	"context"

	"github.com/dmitrijs2005/healthsync/internal/server/models"
)

// Repository stores one envelope per SyncId; Put overwrites whole documents.
// Get returns common.ErrorNotFound for an unknown SyncId.
type Repository interface {
	Put(ctx context.Context, env *models.Envelope) error
	Get(ctx context.Context, syncID string) (*models.Envelope, error)
}
