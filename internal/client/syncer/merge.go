package syncer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/client/keycodec"
	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/client/remote"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/timex"
)

// decodeEnvelope validates a remote document. Documents without data or
// timestamp, or with a timestamp that does not parse, are rejected.
func decodeEnvelope(payload []byte) (models.RecordMapping, string, time.Time, error) {
	var raw models.RawEnvelope
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, "", time.Time{}, fmt.Errorf("%w: %w", common.ErrSyncReadMalformed, err)
	}
	if raw.Data == nil || *raw.Data == nil {
		return nil, "", time.Time{}, fmt.Errorf("%w: missing data", common.ErrSyncReadMalformed)
	}
	if raw.Timestamp == nil {
		return nil, "", time.Time{}, fmt.Errorf("%w: missing timestamp", common.ErrSyncReadMalformed)
	}
	ts, err := timex.ParseISO(*raw.Timestamp)
	if err != nil {
		return nil, "", time.Time{}, fmt.Errorf("%w: bad timestamp %q", common.ErrSyncReadMalformed, *raw.Timestamp)
	}
	return *raw.Data, *raw.Timestamp, ts, nil
}

// handleUpdate runs on the subscription goroutine. gen identifies the
// subscription that produced u; anything from an older one is dropped.
func (s *Session) handleUpdate(gen uint64, u remote.Update) {
	ctx := s.ctx

	if u.Err != nil {
		s.mu.Lock()
		stale := gen != s.subGen || s.closed
		s.mu.Unlock()
		if stale {
			return
		}
		s.logger.Warn(ctx, "remote read failed", "sync_id", u.SyncID, "error", u.Err)
		s.notifySync(ctx, notify.KindError, "Error receiving data")
		return
	}

	data, rawTS, ts, err := decodeEnvelope(u.Payload)
	if err != nil {
		s.logger.Warn(ctx, "ignoring remote document", "sync_id", u.SyncID, "error", err)
		return
	}

	s.mu.Lock()
	if gen != s.subGen || s.closed {
		s.mu.Unlock()
		s.logger.Debug(ctx, "dropping delivery from stale subscription", "sync_id", u.SyncID)
		return
	}
	id := s.syncID

	if !s.isNewer(id, ts) {
		s.mu.Unlock()
		s.logger.Debug(ctx, "remote document not newer than watermark", "sync_id", id, "timestamp", rawTS)
		return
	}

	next := keycodec.DecodeMapping(data)
	changed := !next.Equal(s.store.Snapshot())
	applyErr := s.store.ApplyRemote(ctx, next, id, rawTS)
	s.mu.Unlock()

	if applyErr != nil {
		s.logger.Error(ctx, "remote document applied in memory only", "sync_id", id, "error", applyErr)
	}
	s.logger.Info(ctx, "applied remote document", "sync_id", id, "timestamp", rawTS, "changed", changed)

	if changed {
		s.onApply(next.Clone())
		s.notifySync(ctx, notify.KindSuccess, "Data updated from cloud")
	}
}

// isNewer reports whether ts beats the stored watermark of id. A missing or
// unparseable watermark counts as none. Caller holds s.mu.
func (s *Session) isNewer(id string, ts time.Time) bool {
	wm, ok := s.store.Watermark(s.ctx, id)
	if !ok {
		return true
	}
	last, err := timex.ParseISO(wm)
	if err != nil {
		s.logger.Warn(s.ctx, "stored watermark unreadable, treating as absent", "sync_id", id, "watermark", wm)
		return true
	}
	return ts.After(last)
}
