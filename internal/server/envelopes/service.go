// Package envelopes is the server's sync document service: it stores the
// latest envelope per SyncId and pushes every write to that SyncId's
// watchers.
package envelopes

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/logging"
	"github.com/dmitrijs2005/healthsync/internal/server/models"
	"github.com/dmitrijs2005/healthsync/internal/server/observability"
	repo "github.com/dmitrijs2005/healthsync/internal/server/repositories/envelopes"
)

const writeStripes = 64

type Service struct {
	repo   repo.Repository
	hub    *hub
	logger logging.Logger
	now    func() time.Time

	// writeMu orders store and publish per SyncId, so watchers end on the
	// document the repository holds.
	writeMu [writeStripes]sync.Mutex
}

func NewService(r repo.Repository, logger logging.Logger) *Service {
	return &Service{
		repo:   r,
		hub:    newHub(),
		logger: logger.With("module", "envelopes"),
		now:    time.Now,
	}
}

// Put overwrites the document stored for syncID and notifies its watchers.
func (s *Service) Put(ctx context.Context, syncID string, doc []byte) error {
	if syncID == "" {
		return common.ErrInvalidSyncID
	}

	mu := s.writeLock(syncID)
	mu.Lock()
	defer mu.Unlock()

	env := &models.Envelope{SyncID: syncID, Document: doc, UpdatedAt: s.now().UTC()}
	if err := s.repo.Put(ctx, env); err != nil {
		return fmt.Errorf("error storing envelope: %w", err)
	}
	observability.RecordDocumentStored(env.UpdatedAt)

	s.hub.publish(syncID, doc)
	s.logger.Debug(ctx, "envelope stored", "sync_id", syncID, "bytes", len(doc))
	return nil
}

func (s *Service) writeLock(syncID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(syncID))
	return &s.writeMu[h.Sum32()%writeStripes]
}

// Get returns the stored document, or common.ErrorNotFound.
func (s *Service) Get(ctx context.Context, syncID string) ([]byte, error) {
	if syncID == "" {
		return nil, common.ErrInvalidSyncID
	}

	env, err := s.repo.Get(ctx, syncID)
	if err != nil {
		return nil, err
	}
	return env.Document, nil
}

// Watch registers a watcher for syncID and returns the document stored at
// that moment (nil if there is none) along with the channel of later
// writes. A write racing the registration may show up in both; consumers
// order documents by their own timestamps. stop must be called exactly once.
func (s *Service) Watch(ctx context.Context, syncID string) (current []byte, updates <-chan []byte, stop func(), err error) {
	if syncID == "" {
		return nil, nil, nil, common.ErrInvalidSyncID
	}

	w := s.hub.subscribe(syncID)
	stop = func() { s.hub.unsubscribe(syncID, w) }

	current, err = s.Get(ctx, syncID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		stop()
		return nil, nil, nil, err
	}

	return current, w.ch, stop, nil
}
