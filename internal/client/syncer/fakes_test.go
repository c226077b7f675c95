package syncer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/client/remote"
	"github.com/stretchr/testify/require"
)

/*************
 * Fake store
 *************/

type fakeStore struct {
	mu         sync.Mutex
	m          models.RecordMapping
	syncID     string
	watermarks map[string]string
	replaceErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{m: models.RecordMapping{}, watermarks: map[string]string{}}
}

func (f *fakeStore) Snapshot() models.RecordMapping {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m.Clone()
}

func (f *fakeStore) Replace(_ context.Context, m models.RecordMapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m = m.Clone()
	return f.replaceErr
}

func (f *fakeStore) ApplyRemote(_ context.Context, m models.RecordMapping, syncID, ts string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m = m.Clone()
	f.watermarks[syncID] = ts
	return nil
}

func (f *fakeStore) SyncID(context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.syncID
}

func (f *fakeStore) SetSyncID(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncID = id
	return nil
}

func (f *fakeStore) Watermark(_ context.Context, syncID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, ok := f.watermarks[syncID]
	return ts, ok
}

/*************
 * Fake remote
 *************/

type fakeSub struct {
	id     string
	fn     remote.UpdateFunc
	closed bool
	r      *fakeRemote
}

func (s *fakeSub) Close() {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	s.closed = true
}

func (s *fakeSub) isClosed() bool {
	s.r.mu.Lock()
	defer s.r.mu.Unlock()
	return s.closed
}

// deliver hands payload to the session synchronously, the way a
// subscription goroutine would.
func (s *fakeSub) deliver(payload string) {
	s.fn(remote.Update{SyncID: s.id, Payload: []byte(payload)})
}

type fakeRemote struct {
	mu      sync.Mutex
	pingErr error
	pushErr error
	// pushDelay makes Push take that long before it records the envelope.
	pushDelay time.Duration
	pushes    []models.SyncEnvelope
	subs      []*fakeSub
}

func (f *fakeRemote) Ping(context.Context) error { return f.pingErr }

func (f *fakeRemote) Push(ctx context.Context, env models.SyncEnvelope) error {
	f.mu.Lock()
	delay := f.pushDelay
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes = append(f.pushes, env)
	return nil
}

func (f *fakeRemote) Subscribe(_ context.Context, id string, fn remote.UpdateFunc) (remote.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := &fakeSub{id: id, fn: fn, r: f}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeRemote) Close() error { return nil }

func (f *fakeRemote) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushes)
}

func (f *fakeRemote) lastPush() models.SyncEnvelope {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pushes[len(f.pushes)-1]
}

func (f *fakeRemote) activeSub(t *testing.T, id string) *fakeSub {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var found *fakeSub
	for _, s := range f.subs {
		if s.id == id && !s.closed {
			require.Nil(t, found, "two live subscriptions for %s", id)
			found = s
		}
	}
	require.NotNil(t, found, "no live subscription for %s", id)
	return found
}

func (f *fakeRemote) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, s := range f.subs {
		if !s.closed {
			n++
		}
	}
	return n
}

/*************
 * Clock and notices
 *************/

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type notices struct {
	mu  sync.Mutex
	all []notify.Status
}

func (n *notices) Notify(_ context.Context, st notify.Status) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.all = append(n.all, st)
}

func (n *notices) messages(ch notify.Channel) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, st := range n.all {
		if st.Channel == ch {
			out = append(out, st.Message)
		}
	}
	return out
}

func (n *notices) count(ch notify.Channel, kind notify.Kind) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, st := range n.all {
		if st.Channel == ch && st.Kind == kind {
			c++
		}
	}
	return c
}
