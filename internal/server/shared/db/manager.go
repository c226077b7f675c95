// Package db selects and owns the server's storage backend.
package db

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/healthsync/internal/server/config"
	"github.com/dmitrijs2005/healthsync/internal/server/repositories/envelopes"
)

type RepositoryManager interface {
	Envelopes() envelopes.Repository
	Close() error
}

// New builds the backend named by cfg.StorageKind.
func New(ctx context.Context, cfg *config.Config) (RepositoryManager, error) {
	switch cfg.StorageKind {
	case config.StoragePostgres:
		return NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	case config.StorageMemory:
		return NewInMemoryRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage kind %q", cfg.StorageKind)
	}
}
