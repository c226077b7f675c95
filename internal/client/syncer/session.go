package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/client/remote"
	"github.com/dmitrijs2005/healthsync/internal/logging"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultDebounce    = 1000 * time.Millisecond
	DefaultPushTimeout = 10 * time.Second
	DefaultPingTimeout = 3 * time.Second
)

var ErrClosed = errors.New("session closed")

// RecordStore is the part of store.Store the engine drives.
type RecordStore interface {
	Snapshot() models.RecordMapping
	Replace(ctx context.Context, m models.RecordMapping) error
	ApplyRemote(ctx context.Context, m models.RecordMapping, syncID, timestamp string) error
	SyncID(ctx context.Context) string
	SetSyncID(ctx context.Context, id string) error
	Watermark(ctx context.Context, syncID string) (string, bool)
}

type Options struct {
	Store    RecordStore
	Remote   remote.Remote
	Notifier notify.Notifier
	Logger   logging.Logger

	// OnRemoteApply is called with the new mapping after a remote document
	// changed local data.
	OnRemoteApply func(models.RecordMapping)

	Debounce    time.Duration
	PushTimeout time.Duration
	PingTimeout time.Duration

	Now func() time.Time
}

type Mode string

const (
	ModeOnline    Mode = "online"
	ModeLocalOnly Mode = "local-only"
)

type PushState int

const (
	PushIdle PushState = iota
	PushPending
	PushInFlight
	PushFailed
)

func (p PushState) String() string {
	switch p {
	case PushIdle:
		return "idle"
	case PushPending:
		return "pending"
	case PushInFlight:
		return "pushing"
	case PushFailed:
		return "failed"
	default:
		return fmt.Sprintf("PushState(%d)", int(p))
	}
}

// Status is a point-in-time view of the session.
type Status struct {
	SyncID     string
	Mode       Mode
	Push       PushState
	Subscribed bool
}

type Session struct {
	store    RecordStore
	remote   remote.Remote
	notifier notify.Notifier
	logger   logging.Logger
	onApply  func(models.RecordMapping)

	debounce    time.Duration
	pushTimeout time.Duration
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	sem    *semaphore.Weighted

	// switchMu serializes SyncId changes and Close. It is never taken by
	// subscription callbacks, so closing a handle while holding it is safe.
	switchMu sync.Mutex

	mu       sync.Mutex
	online   bool
	closed   bool
	syncID   string
	sub      remote.Subscription
	subGen   uint64
	timer    *time.Timer
	timerSeq uint64
	pending  models.RecordMapping
	pendID   string
	push     PushState
}

// Open starts a session over an already loaded store. An unreachable or
// missing remote is not an error: the session runs local-only and says so
// once through the notifier.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("syncer: store is required")
	}

	s := &Session{
		store:       opts.Store,
		remote:      opts.Remote,
		notifier:    opts.Notifier,
		logger:      opts.Logger,
		onApply:     opts.OnRemoteApply,
		debounce:    opts.Debounce,
		pushTimeout: opts.PushTimeout,
		now:         opts.Now,
		sem:         semaphore.NewWeighted(1),
	}
	if s.logger == nil {
		s.logger = logging.Nop{}
	}
	s.logger = s.logger.With("module", "syncer")
	if s.notifier == nil {
		s.notifier = notify.NotifierFunc(func(context.Context, notify.Status) {})
	}
	if s.onApply == nil {
		s.onApply = func(models.RecordMapping) {}
	}
	if s.debounce <= 0 {
		s.debounce = DefaultDebounce
	}
	if s.pushTimeout <= 0 {
		s.pushTimeout = DefaultPushTimeout
	}
	if s.now == nil {
		s.now = time.Now
	}
	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = DefaultPingTimeout
	}

	s.ctx, s.cancel = context.WithCancel(context.WithoutCancel(ctx))
	s.syncID = s.store.SyncID(ctx)
	s.online = s.probe(ctx, pingTimeout)

	s.logger.Info(ctx, "session opened", "sync_id", s.syncID, "mode", s.mode())

	if s.online && s.syncID != "" {
		if err := s.subscribe(ctx, s.syncID); err != nil {
			s.logger.Warn(ctx, "initial subscribe failed", "sync_id", s.syncID, "error", err)
		}
	}

	return s, nil
}

func (s *Session) probe(ctx context.Context, timeout time.Duration) bool {
	if s.remote == nil {
		s.notifySync(ctx, notify.KindError, "Cloud sync unavailable, working offline")
		return false
	}

	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.remote.Ping(pctx); err != nil {
		s.logger.Warn(ctx, "remote unavailable, local-only mode", "error", err)
		s.notifySync(ctx, notify.KindError, "Cloud sync unavailable, working offline")
		return false
	}
	return true
}

// Snapshot returns the current mapping.
func (s *Session) Snapshot() models.RecordMapping {
	return s.store.Snapshot()
}

// Edit stores m as the whole mapping and schedules a push of it.
func (s *Session) Edit(ctx context.Context, m models.RecordMapping) error {
	return s.replace(ctx, m, "Data saved")
}

// Import behaves like Edit; only the notice differs.
func (s *Session) Import(ctx context.Context, m models.RecordMapping) error {
	return s.replace(ctx, m, "Data imported")
}

func (s *Session) replace(ctx context.Context, m models.RecordMapping, notice string) error {
	s.mu.Lock()
	err := s.store.Replace(ctx, m)
	if s.online && s.syncID != "" && !s.closed {
		s.schedulePushLocked(m)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error(ctx, "local save failed", "error", err)
		s.notifySave(ctx, notify.KindError, "Storage unavailable, changes kept in memory")
		return err
	}
	s.notifySave(ctx, notify.KindSuccess, notice)
	return nil
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		SyncID:     s.syncID,
		Mode:       s.mode(),
		Push:       s.push,
		Subscribed: s.sub != nil,
	}
}

func (s *Session) mode() Mode {
	if s.online {
		return ModeOnline
	}
	return ModeLocalOnly
}

// Close flushes a pending push, ends the subscription and waits for pushes
// already in flight. The store and remote stay open; they
// belong to the caller.
func (s *Session) Close(ctx context.Context) error {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	flushErr := s.Flush(ctx)

	s.mu.Lock()
	s.closed = true
	s.cancelPendingLocked()
	sub := s.sub
	s.sub = nil
	s.subGen++
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}

	// A push the timer already started runs to completion unless ctx ends
	// first; each remote write is bounded by pushTimeout.
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.cancel()
		<-done
	}
	s.cancel()

	s.logger.Info(ctx, "session closed")
	return flushErr
}

func (s *Session) notifySave(ctx context.Context, kind notify.Kind, msg string) {
	s.notifier.Notify(ctx, notify.Status{Channel: notify.ChannelSave, Kind: kind, Message: msg, At: s.now()})
}

func (s *Session) notifySync(ctx context.Context, kind notify.Kind, msg string) {
	s.notifier.Notify(ctx, notify.Status{Channel: notify.ChannelSync, Kind: kind, Message: msg, At: s.now()})
}
