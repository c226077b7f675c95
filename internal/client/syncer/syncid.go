package syncer

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/client/remote"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/google/uuid"
)

const generatedIDLen = 8

// SetSyncID switches the session to id. The old subscription is closed and
// any push still pending for the old id is dropped before the new id is
// stored and subscribed.
func (s *Session) SetSyncID(ctx context.Context, id string) error {
	return s.setSyncID(ctx, id, "Sync ID set")
}

// GenerateSyncID picks a fresh random id, applies it and returns it.
func (s *Session) GenerateSyncID(ctx context.Context) (string, error) {
	id := NewSyncID()
	if err := s.setSyncID(ctx, id, "New ID created"); err != nil {
		return "", err
	}
	return id, nil
}

// NewSyncID returns 8 lowercase alphanumerics taken from a random UUID.
func NewSyncID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:generatedIDLen]
}

func (s *Session) setSyncID(ctx context.Context, id, notice string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return common.ErrInvalidSyncID
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	old := s.sub
	s.sub = nil
	s.subGen++
	s.cancelPendingLocked()
	prev := s.syncID
	s.syncID = id
	online := s.online
	s.mu.Unlock()

	if old != nil {
		old.Close()
		s.logger.Debug(ctx, "unsubscribed", "sync_id", prev)
	}

	storeErr := s.store.SetSyncID(ctx, id)
	if storeErr != nil {
		s.logger.Error(ctx, "sync id not persisted", "sync_id", id, "error", storeErr)
	}
	s.notifySync(ctx, notify.KindSuccess, notice)

	if online {
		if err := s.subscribe(ctx, id); err != nil {
			return err
		}
	}
	return storeErr
}

// subscribe is serialized by switchMu, except during Open.
func (s *Session) subscribe(ctx context.Context, id string) error {
	s.mu.Lock()
	gen := s.subGen
	s.mu.Unlock()

	sub, err := s.remote.Subscribe(s.ctx, id, func(u remote.Update) { s.handleUpdate(gen, u) })
	if err != nil {
		s.logger.Error(ctx, "subscribe failed", "sync_id", id, "error", err)
		s.notifySync(ctx, notify.KindError, "Error receiving data")
		return err
	}

	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	s.logger.Debug(ctx, "subscribed", "sync_id", id)
	return nil
}
