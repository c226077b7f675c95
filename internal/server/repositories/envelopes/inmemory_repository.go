package envelopes

import (
	"bytes"
	"context"
	"sync"

	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/server/models"
)

// InMemoryRepository keeps envelopes in a map. Data is lost on restart.
type InMemoryRepository struct {
	mu   sync.RWMutex
	data map[string]models.Envelope
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{data: make(map[string]models.Envelope)}
}

func (r *InMemoryRepository) Put(_ context.Context, env *models.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *env
	cp.Document = bytes.Clone(env.Document)
	r.data[env.SyncID] = cp
	return nil
}

func (r *InMemoryRepository) Get(_ context.Context, syncID string) (*models.Envelope, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	env, ok := r.data[syncID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	env.Document = bytes.Clone(env.Document)
	return &env, nil
}
