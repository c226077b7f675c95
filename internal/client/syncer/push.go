package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/client/keycodec"
	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/timex"
)

// schedulePushLocked puts m in the pending slot and restarts the timer.
// Stale timer callbacks are recognised by timerSeq and do nothing.
func (s *Session) schedulePushLocked(m models.RecordMapping) {
	s.pending = m.Clone()
	s.pendID = s.syncID
	s.push = PushPending

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timerSeq++
	seq := s.timerSeq
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(seq) })
}

// cancelPendingLocked drops the pending payload and its timer.
func (s *Session) cancelPendingLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++
	if s.pending != nil {
		s.pending = nil
		if s.push == PushPending {
			s.push = PushIdle
		}
	}
}

// takePendingLocked empties the pending slot and registers the push with the
// wait group. ok is false when there is nothing to push.
func (s *Session) takePendingLocked() (id string, m models.RecordMapping, ok bool) {
	if s.pending == nil || s.closed {
		return "", nil, false
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerSeq++

	id, m = s.pendID, s.pending
	s.pending, s.pendID = nil, ""
	s.wg.Add(1)
	return id, m, true
}

func (s *Session) fire(seq uint64) {
	s.mu.Lock()
	if seq != s.timerSeq {
		s.mu.Unlock()
		return
	}
	id, m, ok := s.takePendingLocked()
	s.mu.Unlock()
	if !ok {
		return
	}
	defer s.wg.Done()

	_ = s.pushNow(s.ctx, id, m)
}

// Flush writes the pending payload immediately instead of waiting for the
// timer. It is a no-op when nothing is pending.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	id, m, ok := s.takePendingLocked()
	s.mu.Unlock()
	if !ok {
		return nil
	}
	defer s.wg.Done()

	return s.pushNow(ctx, id, m)
}

// Sync pushes the current mapping right away, bypassing the quiescence
// window.
func (s *Session) Sync(ctx context.Context) error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrClosed
	case !s.online:
		s.mu.Unlock()
		return common.ErrRemoteUnavailable
	case s.syncID == "":
		s.mu.Unlock()
		return common.ErrInvalidSyncID
	}
	s.schedulePushLocked(s.store.Snapshot())
	s.mu.Unlock()

	return s.Flush(ctx)
}

// pushNow runs one remote write. The envelope timestamp is taken here, when
// the write actually starts, not when the edit happened.
func (s *Session) pushNow(ctx context.Context, id string, m models.RecordMapping) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	s.setPushState(PushInFlight)
	s.notifySync(ctx, notify.KindSyncing, "Syncing...")

	err := s.write(ctx, id, m)
	if err != nil {
		s.setPushState(PushFailed)
		s.logger.Error(ctx, "push failed", "sync_id", id, "error", err)
		s.notifySync(ctx, notify.KindError, "Sync error")
		return err
	}

	s.setPushState(PushIdle)
	s.logger.Debug(ctx, "pushed", "sync_id", id, "records", len(m))
	s.notifySync(ctx, notify.KindSuccess, "Data synced")
	return nil
}

func (s *Session) write(ctx context.Context, id string, m models.RecordMapping) error {
	data, err := keycodec.EncodeMapping(m)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrSyncWriteFailed, err)
	}

	env := models.SyncEnvelope{
		Data:      data,
		Timestamp: timex.FormatISO(s.now()),
		SyncID:    id,
	}

	ctx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	defer cancel()

	if err := s.remote.Push(ctx, env); err != nil {
		return fmt.Errorf("%w: %w", common.ErrSyncWriteFailed, err)
	}
	return nil
}

// setPushState records the outcome unless a newer edit is already waiting.
func (s *Session) setPushState(st PushState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		s.push = PushPending
		return
	}
	s.push = st
}
