package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sample() models.RecordMapping {
	return models.RecordMapping{
		"04.10": {MorningTemp: "36.6", EveningTemp: "", Pain: false},
		"05.10": {MorningTemp: "37.4", EveningTemp: "38.1", Pain: true},
	}
}

func TestOpen_EmptyDatabase_YieldsEmptyMapping(t *testing.T) {
	s := Open(context.Background(), openTestDB(t), logging.Nop{})
	assert.Empty(t, s.Snapshot())
	assert.NotNil(t, s.Snapshot())
}

func TestReplace_ThenLoad_RoundTripsThroughDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "diary.db")

	db, err := OpenDatabase(ctx, path)
	require.NoError(t, err)
	s := Open(ctx, db, logging.Nop{})
	require.NoError(t, s.Replace(ctx, sample()))
	require.NoError(t, db.Close())

	db2, err := OpenDatabase(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db2.Close() })

	s2 := Open(ctx, db2, logging.Nop{})
	assert.Equal(t, sample(), s2.Snapshot())
	assert.Equal(t, sample(), s2.Load(ctx))
}

func TestLoad_CorruptData_FailsSoft(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, metadata.NewSQLiteRepository(db).Set(ctx, keyData, []byte("{not json")))

	s := Open(ctx, db, logging.Nop{})
	assert.Empty(t, s.Snapshot())
}

func TestLoad_NullData_FailsSoft(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	require.NoError(t, metadata.NewSQLiteRepository(db).Set(ctx, keyData, []byte("null")))

	s := Open(ctx, db, logging.Nop{})
	assert.NotNil(t, s.Snapshot())
	assert.Empty(t, s.Snapshot())
}

func TestSnapshot_IsACopy(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, openTestDB(t), logging.Nop{})
	require.NoError(t, s.Replace(ctx, sample()))

	snap := s.Snapshot()
	snap["04.10"] = models.Reading{MorningTemp: "40.0"}

	assert.Equal(t, "36.6", s.Snapshot()["04.10"].MorningTemp)
}

func TestReplace_StorageFailure_KeepsMemoryAndReports(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s := Open(ctx, db, logging.Nop{})
	require.NoError(t, db.Close())

	err := s.Replace(ctx, sample())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrStorageUnavailable))
	assert.Equal(t, sample(), s.Snapshot())
}

func TestSyncID_PersistsAndDefaultsEmpty(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, openTestDB(t), logging.Nop{})

	assert.Equal(t, "", s.SyncID(ctx))
	require.NoError(t, s.SetSyncID(ctx, "k3j9x0ab"))
	assert.Equal(t, "k3j9x0ab", s.SyncID(ctx))
}

func TestWatermark_PerSyncID(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, openTestDB(t), logging.Nop{})

	_, ok := s.Watermark(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, s.ApplyRemote(ctx, sample(), "a", "2025-10-04T10:00:00.000Z"))

	ts, ok := s.Watermark(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, "2025-10-04T10:00:00.000Z", ts)

	_, ok = s.Watermark(ctx, "b")
	assert.False(t, ok)
}

func TestApplyRemote_WritesDataAndWatermarkTogether(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	s := Open(ctx, db, logging.Nop{})

	require.NoError(t, s.ApplyRemote(ctx, sample(), "a", "2025-10-04T10:00:00.000Z"))

	assert.Equal(t, sample(), s.Snapshot())
	ts, ok := s.Watermark(ctx, "a")
	require.True(t, ok)
	assert.Equal(t, "2025-10-04T10:00:00.000Z", ts)

	fresh := Open(ctx, db, logging.Nop{})
	assert.Equal(t, sample(), fresh.Snapshot())
}
