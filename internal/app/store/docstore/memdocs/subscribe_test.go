package memdocs

import (
	"context"
	"testing"
	"time"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/realtime"
)

func next(t *testing.T, sub *docstore.Subscription) docstore.Snapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		if !ok {
			t.Fatal("subscription closed")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return docstore.Snapshot{}
}

func TestSubscribeDeliversInitialAndUpdates(t *testing.T) {
	ctx := context.Background()
	hub := realtime.NewHub()
	s := New(hub)
	_ = s.Upsert(ctx, tasks.Doc("t1"), docstore.Fields{"title": "a"})

	sub := docstore.Subscribe(ctx, s, hub, tasks, docstore.ListOptions{})
	defer sub.Cancel()

	if snap := next(t, sub); len(snap.Docs) != 1 {
		t.Fatalf("initial snapshot = %d docs, want 1", len(snap.Docs))
	}

	_ = s.Upsert(ctx, tasks.Doc("t2"), docstore.Fields{"title": "b"})
	if snap := next(t, sub); len(snap.Docs) != 2 {
		t.Fatalf("updated snapshot = %d docs, want 2", len(snap.Docs))
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	ctx := context.Background()
	hub := realtime.NewHub()
	s := New(hub)

	sub := docstore.Subscribe(ctx, s, hub, tasks, docstore.ListOptions{})
	next(t, sub)
	sub.Cancel()
	sub.Cancel()

	for range sub.C {
	}
	if hub.Listeners(tasks) != 0 {
		t.Errorf("listener leaked after Cancel")
	}

	// Writes after cancel must not block or panic.
	_ = s.Upsert(ctx, tasks.Doc("t3"), docstore.Fields{"title": "c"})
}

func TestSubscribeContextEnd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := realtime.NewHub()
	s := New(hub)

	sub := docstore.Subscribe(ctx, s, hub, tasks, docstore.ListOptions{})
	next(t, sub)
	cancel()

	select {
	case _, ok := <-sub.C:
		if ok {
			// A snapshot may race the cancel; the channel must still close.
			for range sub.C {
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not stop after context end")
	}
}
