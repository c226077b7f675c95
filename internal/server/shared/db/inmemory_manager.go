package db

import "github.com/dmitrijs2005/healthsync/internal/server/repositories/envelopes"

type InMemoryRepositoryManager struct {
	envelopes envelopes.Repository
}

func (m InMemoryRepositoryManager) Envelopes() envelopes.Repository {
	return m.envelopes
}

func (m InMemoryRepositoryManager) Close() error {
	return nil
}

func NewInMemoryRepositoryManager() RepositoryManager {
	return InMemoryRepositoryManager{envelopes: envelopes.NewInMemoryRepository()}
}
