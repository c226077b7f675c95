package envelopes

import (
	"bytes"
	"sync"
)

// hub fans out stored documents to the watchers of a SyncId. Each watcher
// holds at most one undelivered document; a newer one replaces it, so a
// slow stream never blocks Put. Service.Put publishes in store order, so the
// last document a watcher sees is the stored one.
type hub struct {
	mu       sync.Mutex
	watchers map[string]map[*watcher]struct{}
}

type watcher struct {
	ch chan []byte
}

func newHub() *hub {
	return &hub{watchers: make(map[string]map[*watcher]struct{})}
}

func (h *hub) subscribe(syncID string) *watcher {
	w := &watcher{ch: make(chan []byte, 1)}

	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.watchers[syncID]
	if !ok {
		set = make(map[*watcher]struct{})
		h.watchers[syncID] = set
	}
	set[w] = struct{}{}
	return w
}

func (h *hub) unsubscribe(syncID string, w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.watchers[syncID]
	delete(set, w)
	if len(set) == 0 {
		delete(h.watchers, syncID)
	}
}

func (h *hub) publish(syncID string, doc []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for w := range h.watchers[syncID] {
		w.offer(bytes.Clone(doc))
	}
}

func (h *hub) count(syncID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[syncID])
}

// offer is only called under hub.mu, so the drain-then-send cannot race
// another publisher.
func (w *watcher) offer(doc []byte) {
	select {
	case w.ch <- doc:
		return
	default:
	}
	select {
	case <-w.ch:
	default:
	}
	w.ch <- doc
}
