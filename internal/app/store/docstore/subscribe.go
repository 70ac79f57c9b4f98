package docstore

import (
	"context"
	"sync"
)

// Snapshot is the full content of a collection at one point in time.
// Err is set when the listing failed; Docs is then nil.
type Snapshot struct {
	Collection Collection
	Docs       []Document
	Err        error
}

// Subscription delivers snapshots of one collection until canceled.
type Subscription struct {
	C <-chan Snapshot

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Cancel stops delivery and waits for the subscription goroutine to exit.
// Safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(s.cancel)
	<-s.done
}

// Subscribe starts watching c. An initial snapshot is delivered right away,
// then a fresh one after each change notification. Notifications that arrive
// while a snapshot is pending are coalesced, so a slow reader sees the latest
// state rather than every intermediate one.
//
// C is closed when ctx ends or Cancel is called.
func Subscribe(ctx context.Context, r Reader, l Listener, c Collection, opts ListOptions) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	out := make(chan Snapshot, 1)
	s := &Subscription{C: out, cancel: cancel, done: make(chan struct{})}

	// Listen before the first read so no write between the two is missed.
	changes, stop := l.Listen(c)

	go func() {
		defer close(s.done)
		defer close(out)
		defer stop()

		for {
			docs, err := r.List(ctx, c, opts)
			if ctx.Err() != nil {
				return
			}
			snap := Snapshot{Collection: c, Docs: docs, Err: err}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
			select {
			case <-changes:
			case <-ctx.Done():
				return
			}
		}
	}()
	return s
}
