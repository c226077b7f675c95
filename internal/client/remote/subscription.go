package remote

import (
	"context"
	"sync"
	"time"
)

type subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func newSubscription(cancel context.CancelFunc) *subscription {
	return &subscription{cancel: cancel, done: make(chan struct{})}
}

func (s *subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
