package syncer

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/client/store"
	"github.com/dmitrijs2005/healthsync/internal/common"
	"github.com/dmitrijs2005/healthsync/internal/logging"
	"github.com/dmitrijs2005/healthsync/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2025, 10, 4, 8, 0, 0, 0, time.UTC)

type harness struct {
	s       *Session
	store   *fakeStore
	remote  *fakeRemote
	clock   *fakeClock
	notices *notices

	mu      sync.Mutex
	renders []models.RecordMapping
}

func (h *harness) renderCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.renders)
}

type harnessOpt func(*harness, *Options)

func withSyncID(id string) harnessOpt {
	return func(h *harness, _ *Options) { h.store.syncID = id }
}

func withPingErr(err error) harnessOpt {
	return func(h *harness, _ *Options) { h.remote.pingErr = err }
}

func withDebounce(d time.Duration) harnessOpt {
	return func(_ *harness, o *Options) { o.Debounce = d }
}

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()

	h := &harness{
		store:   newFakeStore(),
		remote:  &fakeRemote{},
		clock:   &fakeClock{t: t0},
		notices: &notices{},
	}
	o := Options{
		Logger:   logging.Nop{},
		Notifier: h.notices,
		Debounce: time.Hour,
		Now:      h.clock.now,
		OnRemoteApply: func(m models.RecordMapping) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.renders = append(h.renders, m)
		},
	}
	for _, opt := range opts {
		opt(h, &o)
	}
	o.Store = h.store
	o.Remote = h.remote

	s, err := Open(context.Background(), o)
	require.NoError(t, err)
	h.s = s
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return h
}

func day(m, e string, pain bool) models.Reading {
	return models.Reading{MorningTemp: m, EveningTemp: e, Pain: pain}
}

func TestOpen_RemoteUnavailable_RunsLocalOnlyWithOneNotice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"), withPingErr(errors.New("refused")))

	st := h.s.Status()
	assert.Equal(t, ModeLocalOnly, st.Mode)
	assert.False(t, st.Subscribed)
	assert.Equal(t, 1, h.notices.count(notify.ChannelSync, notify.KindError))

	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("36.6", "", false)}))
	require.NoError(t, h.s.Flush(ctx))

	assert.Equal(t, 0, h.remote.pushCount())
	assert.Equal(t, PushIdle, h.s.Status().Push)
	assert.Equal(t, models.RecordMapping{"04.10": day("36.6", "", false)}, h.s.Snapshot())
	assert.Equal(t, 1, h.notices.count(notify.ChannelSync, notify.KindError))
	assert.ErrorIs(t, h.s.Sync(ctx), common.ErrRemoteUnavailable)
}

func TestOpen_NilRemote_IsLocalOnly(t *testing.T) {
	s, err := Open(context.Background(), Options{Store: newFakeStore()})
	require.NoError(t, err)
	defer s.Close(context.Background())

	assert.Equal(t, ModeLocalOnly, s.Status().Mode)
}

func TestOpen_RequiresStore(t *testing.T) {
	_, err := Open(context.Background(), Options{})
	assert.Error(t, err)
}

func TestOpen_SubscribesPersistedSyncID(t *testing.T) {
	h := newHarness(t, withSyncID("ab12cd34"))

	st := h.s.Status()
	assert.Equal(t, ModeOnline, st.Mode)
	assert.True(t, st.Subscribed)
	assert.Equal(t, "ab12cd34", st.SyncID)
	h.remote.activeSub(t, "ab12cd34")
}

func TestOpen_WithoutSyncID_DoesNotSubscribe(t *testing.T) {
	h := newHarness(t)

	assert.False(t, h.s.Status().Subscribed)
	assert.Equal(t, 0, h.remote.liveCount())
	assert.ErrorIs(t, h.s.Sync(context.Background()), common.ErrInvalidSyncID)
}

func TestEdit_SavesLocallyAndNotifies(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	m := models.RecordMapping{"04.10": day("36.6", "", false)}
	require.NoError(t, h.s.Edit(ctx, m))

	assert.Equal(t, m, h.store.Snapshot())
	assert.Equal(t, []string{"Data saved"}, h.notices.messages(notify.ChannelSave))
	assert.Equal(t, PushIdle, h.s.Status().Push, "no SyncId, nothing to push")
}

func TestEdit_StorageFailureIsReportedButKept(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"))
	h.store.replaceErr = common.ErrStorageUnavailable

	m := models.RecordMapping{"04.10": day("36.6", "", false)}
	err := h.s.Edit(ctx, m)
	assert.ErrorIs(t, err, common.ErrStorageUnavailable)

	assert.Equal(t, m, h.s.Snapshot())
	assert.Equal(t, 1, h.notices.count(notify.ChannelSave, notify.KindError))
	assert.Equal(t, PushPending, h.s.Status().Push)
}

func TestPush_RapidEditsCoalesceIntoOneWrite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"), withDebounce(50*time.Millisecond))

	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("36", "", false)}))
	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("36.6", "", false)}))
	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("36.6", "37.1", true)}))

	require.Eventually(t, func() bool { return h.remote.pushCount() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, h.remote.pushCount())

	env := h.remote.lastPush()
	assert.Equal(t, models.RecordMapping{"04_10": day("36.6", "37.1", true)}, env.Data)
	assert.Equal(t, "ab12cd34", env.SyncID)
	assert.Equal(t, PushIdle, h.s.Status().Push)
	assert.Contains(t, h.notices.messages(notify.ChannelSync), "Data synced")
}

func TestPush_TimestampIsTakenWhenTheWriteFires(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"))

	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("36.6", "", false)}))
	assert.Equal(t, PushPending, h.s.Status().Push)

	fired := t0.Add(90 * time.Second)
	h.clock.set(fired)
	require.NoError(t, h.s.Flush(ctx))

	require.Equal(t, 1, h.remote.pushCount())
	env := h.remote.lastPush()
	assert.Equal(t, timex.FormatISO(fired), env.Timestamp)
	assert.Equal(t, models.RecordMapping{"04_10": day("36.6", "", false)}, env.Data)
}

func TestPush_FailureLeavesLocalStateAlone(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"))
	h.remote.pushErr = errors.New("network down")

	m := models.RecordMapping{"04.10": day("36.6", "", false)}
	require.NoError(t, h.s.Edit(ctx, m))

	err := h.s.Flush(ctx)
	assert.ErrorIs(t, err, common.ErrSyncWriteFailed)
	assert.Equal(t, PushFailed, h.s.Status().Push)
	assert.Equal(t, m, h.s.Snapshot())
	assert.Contains(t, h.notices.messages(notify.ChannelSync), "Sync error")

	// next edit tries again
	h.remote.mu.Lock()
	h.remote.pushErr = nil
	h.remote.mu.Unlock()
	require.NoError(t, h.s.Edit(ctx, m))
	require.NoError(t, h.s.Flush(ctx))
	assert.Equal(t, 1, h.remote.pushCount())
}

func TestPush_UnderscoreLabelFailsTheWrite(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"))

	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04_10": day("36.6", "", false)}))
	assert.ErrorIs(t, h.s.Flush(ctx), common.ErrSyncWriteFailed)
	assert.Equal(t, 0, h.remote.pushCount())
}

func TestSync_PushesCurrentMappingNow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"))
	h.store.m = models.RecordMapping{"05.10": day("", "37.0", false)}

	require.NoError(t, h.s.Sync(ctx))
	require.Equal(t, 1, h.remote.pushCount())
	assert.Equal(t, models.RecordMapping{"05_10": day("", "37.0", false)}, h.remote.lastPush().Data)
}

func TestFlush_NothingPending(t *testing.T) {
	h := newHarness(t, withSyncID("ab12cd34"))
	require.NoError(t, h.s.Flush(context.Background()))
	assert.Equal(t, 0, h.remote.pushCount())
}

func TestSetSyncID_RejectsBlank(t *testing.T) {
	h := newHarness(t)
	for _, id := range []string{"", "   ", "\t\n"} {
		assert.ErrorIs(t, h.s.SetSyncID(context.Background(), id), common.ErrInvalidSyncID)
	}
	assert.Empty(t, h.s.Status().SyncID)
}

func TestSetSyncID_TrimsPersistsAndSubscribes(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.s.SetSyncID(context.Background(), "  family01 "))

	assert.Equal(t, "family01", h.store.SyncID(context.Background()))
	assert.Equal(t, "family01", h.s.Status().SyncID)
	assert.True(t, h.s.Status().Subscribed)
	h.remote.activeSub(t, "family01")
	assert.Contains(t, h.notices.messages(notify.ChannelSync), "Sync ID set")
}

func TestSetSyncID_SwitchDropsDeliveriesForOldID(t *testing.T) {
	h := newHarness(t, withSyncID("aaaaaaaa"))
	oldSub := h.remote.activeSub(t, "aaaaaaaa")

	require.NoError(t, h.s.SetSyncID(context.Background(), "bbbbbbbb"))

	assert.True(t, oldSub.isClosed())
	assert.Equal(t, 1, h.remote.liveCount())
	newSub := h.remote.activeSub(t, "bbbbbbbb")

	oldSub.deliver(`{"data":{"04_10":{"morningTemp":"39.0","eveningTemp":"","pain":true}},"timestamp":"2025-10-05T00:00:00.000Z","syncId":"aaaaaaaa"}`)
	assert.Empty(t, h.s.Snapshot())
	assert.Equal(t, 0, h.renderCount())
	_, ok := h.store.Watermark(context.Background(), "aaaaaaaa")
	assert.False(t, ok)

	newSub.deliver(`{"data":{"06_10":{"morningTemp":"36.9","eveningTemp":"","pain":false}},"timestamp":"2025-10-05T00:00:00.000Z","syncId":"bbbbbbbb"}`)
	assert.Equal(t, models.RecordMapping{"06.10": day("36.9", "", false)}, h.s.Snapshot())
}

func TestSetSyncID_DropsPushPendingForOldID(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("aaaaaaaa"))

	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("36.6", "", false)}))
	require.NoError(t, h.s.SetSyncID(ctx, "bbbbbbbb"))

	assert.Equal(t, PushIdle, h.s.Status().Push)
	require.NoError(t, h.s.Flush(ctx))
	assert.Equal(t, 0, h.remote.pushCount())
}

func TestGenerateSyncID(t *testing.T) {
	h := newHarness(t)

	id, err := h.s.GenerateSyncID(context.Background())
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[a-z0-9]{8}$`), id)
	assert.Equal(t, id, h.store.SyncID(context.Background()))
	h.remote.activeSub(t, id)
	assert.Contains(t, h.notices.messages(notify.ChannelSync), "New ID created")

	assert.NotEqual(t, NewSyncID(), NewSyncID())
}

func TestClose_FlushesAndUnsubscribes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"))
	sub := h.remote.activeSub(t, "ab12cd34")

	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("36.6", "", false)}))
	require.NoError(t, h.s.Close(ctx))

	assert.Equal(t, 1, h.remote.pushCount())
	assert.True(t, sub.isClosed())
	assert.False(t, h.s.Status().Subscribed)

	require.NoError(t, h.s.Close(ctx))
	assert.ErrorIs(t, h.s.SetSyncID(ctx, "x"), ErrClosed)
	assert.ErrorIs(t, h.s.Sync(ctx), ErrClosed)

	sub.deliver(`{"data":{},"timestamp":"2030-01-01T00:00:00Z","syncId":"ab12cd34"}`)
	assert.Equal(t, models.RecordMapping{"04.10": day("36.6", "", false)}, h.s.Snapshot())
}

func TestClose_WaitsForPushAlreadyInFlight(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, withSyncID("ab12cd34"), withDebounce(10*time.Millisecond))
	h.remote.mu.Lock()
	h.remote.pushDelay = 100 * time.Millisecond
	h.remote.mu.Unlock()

	require.NoError(t, h.s.Edit(ctx, models.RecordMapping{"04.10": day("37.1", "", true)}))
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, PushInFlight, h.s.Status().Push)

	require.NoError(t, h.s.Close(ctx))
	require.Equal(t, 1, h.remote.pushCount())
	assert.Equal(t, models.RecordMapping{"04_10": day("37.1", "", true)}, h.remote.lastPush().Data)
}

func TestPushState_String(t *testing.T) {
	assert.Equal(t, "idle", PushIdle.String())
	assert.Equal(t, "pending", PushPending.String())
	assert.Equal(t, "pushing", PushInFlight.String())
	assert.Equal(t, "failed", PushFailed.String())
	assert.Equal(t, "PushState(9)", PushState(9).String())
}

// Edit 04.10 with the real SQLite-backed store and check what reaches the
// remote and what survives a stale delivery.
func TestScenario_RealStore(t *testing.T) {
	ctx := context.Background()

	db, err := store.OpenDatabase(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	st := store.Open(ctx, db, logging.Nop{})
	require.NoError(t, st.SetSyncID(ctx, "ab12cd34"))

	rem := &fakeRemote{}
	clock := &fakeClock{t: t0}
	s, err := Open(ctx, Options{Store: st, Remote: rem, Debounce: time.Hour, Now: clock.now})
	require.NoError(t, err)
	defer s.Close(ctx)

	m := models.RecordMapping{"04.10": day("36.6", "", false)}
	require.NoError(t, s.Edit(ctx, m))
	require.NoError(t, s.Flush(ctx))

	env := rem.lastPush()
	assert.Equal(t, models.RecordMapping{"04_10": day("36.6", "", false)}, env.Data)

	sub := rem.activeSub(t, "ab12cd34")
	sub.deliver(`{"data":{"04_10":{"morningTemp":"37.0","eveningTemp":"","pain":false}},"timestamp":"2025-10-04T10:00:00.000Z","syncId":"ab12cd34"}`)
	assert.Equal(t, models.RecordMapping{"04.10": day("37.0", "", false)}, st.Snapshot())

	sub.deliver(`{"data":{"04_10":{"morningTemp":"35.5","eveningTemp":"","pain":false}},"timestamp":"2025-10-04T09:00:00.000Z","syncId":"ab12cd34"}`)
	assert.Equal(t, models.RecordMapping{"04.10": day("37.0", "", false)}, st.Snapshot())

	wm, ok := st.Watermark(ctx, "ab12cd34")
	require.True(t, ok)
	assert.Equal(t, "2025-10-04T10:00:00.000Z", wm)
	assert.Equal(t, models.RecordMapping{"04.10": day("37.0", "", false)}, st.Load(ctx))
}
