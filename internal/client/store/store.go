// Package store is the client's Record Store: the in-memory record mapping
// mirrored to the durable metadata table, plus the persisted SyncId and the
// per-SyncId merge watermarks.
//
// Replace is the only way to change the mapping. Readers get deep copies, so
// they never observe a half-applied update.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/dbx"
	"github.com/dmitrijs2005/healthsync/internal/logging"
)

const (
	keyData            = "healthData"
	keySyncID          = "healthSyncId"
	keyWatermarkPrefix = "healthSyncTimestamp_"
)

func watermarkKey(syncID string) string {
	return keyWatermarkPrefix + syncID
}

type Store struct {
	db     *sql.DB
	repo   metadata.Repository
	logger logging.Logger

	mu      sync.RWMutex
	mapping models.RecordMapping
}

// Open binds a Store to db and loads the persisted mapping.
func Open(ctx context.Context, db *sql.DB, logger logging.Logger) *Store {
	s := &Store{
		db:      db,
		repo:    metadata.NewSQLiteRepository(db),
		logger:  logger.With("module", "store"),
		mapping: models.RecordMapping{},
	}
	s.Load(ctx)
	return s
}

// Load re-reads the durable mapping into memory and returns a copy of it.
// Missing or corrupt data yields an empty mapping; the problem is logged and
// never returned.
func (s *Store) Load(ctx context.Context) models.RecordMapping {
	m := s.readDurable(ctx)

	s.mu.Lock()
	s.mapping = m
	s.mu.Unlock()

	return m.Clone()
}

func (s *Store) readDurable(ctx context.Context) models.RecordMapping {
	raw, err := s.repo.Get(ctx, keyData)
	if err != nil {
		s.logger.Warn(ctx, "local data unreadable, starting empty", "error", fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err))
		return models.RecordMapping{}
	}
	if raw == nil {
		return models.RecordMapping{}
	}

	var m models.RecordMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		s.logger.Warn(ctx, "local data corrupt, starting empty", "error", err)
		return models.RecordMapping{}
	}
	if m == nil {
		m = models.RecordMapping{}
	}
	return m
}

// Snapshot returns a deep copy of the current mapping.
func (s *Store) Snapshot() models.RecordMapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mapping.Clone()
}

// Replace overwrites the whole mapping. The in-memory copy is swapped even if
// the durable write fails, so the session keeps working; the returned error
// then wraps common.ErrStorageUnavailable.
func (s *Store) Replace(ctx context.Context, m models.RecordMapping) error {
	next := m.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapping = next

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: encode mapping: %w", common.ErrStorageUnavailable, err)
	}
	if err := s.repo.Set(ctx, keyData, payload); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}

// ApplyRemote replaces the mapping and advances the watermark of syncID in
// one transaction, so a crash cannot leave data and watermark disagreeing.
func (s *Store) ApplyRemote(ctx context.Context, m models.RecordMapping, syncID, timestamp string) error {
	next := m.Clone()

	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: encode mapping: %w", common.ErrStorageUnavailable, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapping = next

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyData, payload); err != nil {
			return err
		}
		return repo.Set(ctx, watermarkKey(syncID), []byte(timestamp))
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}

// SyncID returns the persisted SyncId, or "" when none was set or storage
// cannot be read.
func (s *Store) SyncID(ctx context.Context) string {
	raw, err := s.repo.Get(ctx, keySyncID)
	if err != nil {
		s.logger.Warn(ctx, "sync id unreadable", "error", err)
		return ""
	}
	return string(raw)
}

func (s *Store) SetSyncID(ctx context.Context, id string) error {
	if err := s.repo.Set(ctx, keySyncID, []byte(id)); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	return nil
}

// Watermark returns the last applied remote timestamp for syncID.
func (s *Store) Watermark(ctx context.Context, syncID string) (string, bool) {
	raw, err := s.repo.Get(ctx, watermarkKey(syncID))
	if err != nil {
		s.logger.Warn(ctx, "watermark unreadable", "sync_id", syncID, "error", err)
		return "", false
	}
	if len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

