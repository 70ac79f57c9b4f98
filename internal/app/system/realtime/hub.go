// Package realtime fans out document store change notifications to
// subscribers, in process and across instances through Redis.
package realtime

import (
	"sync"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
)

// Hub is an in-process pub/sub keyed by collection path. It implements both
// docstore.Notifier and docstore.Listener.
//
// Each listener channel has capacity one and sends never block, so a burst of
// writes collapses into a single pending notification.
type Hub struct {
	mu        sync.Mutex
	next      int
	listeners map[docstore.Collection]map[int]chan struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[docstore.Collection]map[int]chan struct{})}
}

// Publish notifies every listener of c.
func (h *Hub) Publish(c docstore.Collection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.listeners[c] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Listen registers a listener for c. The returned func unregisters it.
func (h *Hub) Listen(c docstore.Collection) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.listeners[c] == nil {
		h.listeners[c] = make(map[int]chan struct{})
	}
	h.listeners[c][id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.listeners[c], id)
			if len(h.listeners[c]) == 0 {
				delete(h.listeners, c)
			}
		})
	}
}

// Listeners returns how many listeners are registered for c.
func (h *Hub) Listeners(c docstore.Collection) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[c])
}
