// Package notify is the client's notification surface: short-lived status
// lines for save and sync outcomes.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/logging"
)

// Channel separates the save notice from the sync status line.
type Channel string

const (
	ChannelSave Channel = "save"
	ChannelSync Channel = "sync"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSyncing Kind = "syncing"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

type Status struct {
	Channel Channel
	Kind    Kind
	Message string
	At      time.Time
}

// Notifier receives status updates. Implementations must be safe for
// concurrent use; the sync engine reports from timer and stream goroutines.
type Notifier interface {
	Notify(ctx context.Context, st Status)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, st Status)

func (f NotifierFunc) Notify(ctx context.Context, st Status) { f(ctx, st) }

// Board keeps the latest status per channel and lets it fade:
// save notices always expire after ttl, sync notices only when successful.
// Errors and in-progress sync states stay until replaced.
type Board struct {
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger

	mu     sync.Mutex
	latest map[Channel]Status
}

func NewBoard(ttl time.Duration, logger logging.Logger) *Board {
	return &Board{
		ttl:    ttl,
		now:    time.Now,
		logger: logger.With("module", "notify"),
		latest: make(map[Channel]Status),
	}
}

func (b *Board) Notify(ctx context.Context, st Status) {
	if st.At.IsZero() {
		st.At = b.now()
	}

	b.mu.Lock()
	b.latest[st.Channel] = st
	b.mu.Unlock()

	if st.Kind == KindError {
		b.logger.Warn(ctx, st.Message, "channel", st.Channel)
		return
	}
	b.logger.Info(ctx, st.Message, "channel", st.Channel, "kind", st.Kind)
}

// Current returns the visible status of ch, if any.
func (b *Board) Current(ch Channel) (Status, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.latest[ch]
	if !ok {
		return Status{}, false
	}
	if b.expires(st) && b.now().Sub(st.At) >= b.ttl {
		delete(b.latest, ch)
		return Status{}, false
	}
	return st, true
}

func (b *Board) expires(st Status) bool {
	if st.Channel == ChannelSave {
		return true
	}
	return st.Kind == KindSuccess || st.Kind == KindInfo
}

// Line joins the visible statuses into a single prompt-friendly string.
func (b *Board) Line() string {
	var out string
	for _, ch := range []Channel{ChannelSave, ChannelSync} {
		st, ok := b.Current(ch)
		if !ok {
			continue
		}
		if out != "" {
			out += " | "
		}
		out += st.Message
	}
	return out
}
