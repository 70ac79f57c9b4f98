package memdocs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
)

type recorder struct{ got []docstore.Collection }

func (r *recorder) Publish(c docstore.Collection) { r.got = append(r.got, c) }

const tasks = docstore.Collection("artifacts/app/users/u1/tasks")

func TestUpsertMergesAndGet(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	d := tasks.Doc("t1")

	if err := s.Upsert(ctx, d, docstore.Fields{"title": "a", "status": "To Do"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, d, docstore.Fields{"status": "Done"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	doc, err := s.Get(ctx, d)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.String("title") != "a" || doc.String("status") != "Done" {
		t.Errorf("merged doc = %v", doc.Data)
	}
}

func TestGetMissing(t *testing.T) {
	s := New(nil)
	if _, err := s.Get(context.Background(), tasks.Doc("nope")); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get missing = %v, want ErrNotFound", err)
	}
}

func TestUpdateRequiresExisting(t *testing.T) {
	s := New(nil)
	err := s.Update(context.Background(), tasks.Doc("t1"), docstore.Fields{"status": "Done"})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Update missing = %v, want ErrNotFound", err)
	}
}

func TestCreateRejectsExisting(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	d := docstore.Doc("accounts/a@example.com")
	if err := s.Create(ctx, d, docstore.Fields{"uid": "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, d, docstore.Fields{"uid": "2"}); !errors.Is(err, docstore.ErrExists) {
		t.Errorf("second Create = %v, want ErrExists", err)
	}
	doc, _ := s.Get(ctx, d)
	if doc.String("uid") != "1" {
		t.Errorf("uid = %q, want 1", doc.String("uid"))
	}
}

func TestServerTimestamp(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	s := New(nil)
	s.SetClock(func() time.Time { return now })

	d, err := s.Append(ctx, tasks, docstore.Fields{"created_at": docstore.ServerTimestamp})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if d.Parent() != tasks || d.ID() == "" {
		t.Errorf("Append returned %q", d)
	}
	doc, _ := s.Get(ctx, d)
	if !doc.Time("created_at").Equal(now) {
		t.Errorf("created_at = %v, want %v", doc.Data["created_at"], now)
	}
}

func TestListDirectChildrenOnly(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	_ = s.Upsert(ctx, tasks.Doc("t1"), docstore.Fields{"title": "a"})
	_ = s.Upsert(ctx, tasks.Doc("t1").Collection("comments").Doc("c1"), docstore.Fields{"text": "hi"})
	_ = s.Upsert(ctx, "artifacts/app/users/u2/tasks/t9", docstore.Fields{"title": "other"})

	docs, err := s.List(ctx, tasks, docstore.ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != "t1" {
		t.Errorf("List = %v, want only t1", docs)
	}
}

func TestCommitAtomicAndNotifies(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := New(rec)

	b := docstore.NewBatch().
		Upsert("users/u1/groups/g1", docstore.Fields{"role": "member"}).
		Upsert("groups/g1/members/u1", docstore.Fields{"role": "member"})
	if err := s.Commit(ctx, b); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if s.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", s.Writes())
	}
	if len(rec.got) != 2 {
		t.Errorf("notifications = %v, want 2", rec.got)
	}
	for _, d := range []docstore.Doc{"users/u1/groups/g1", "groups/g1/members/u1"} {
		if _, err := s.Get(ctx, d); err != nil {
			t.Errorf("Get(%s): %v", d, err)
		}
	}
}

func TestFailWrites(t *testing.T) {
	ctx := context.Background()
	rec := &recorder{}
	s := New(rec)
	boom := errors.New("unavailable")
	s.FailWrites(boom)

	b := docstore.NewBatch().
		Upsert("users/u1/groups/g1", docstore.Fields{"role": "member"}).
		Upsert("groups/g1/members/u1", docstore.Fields{"role": "member"})
	if err := s.Commit(ctx, b); !errors.Is(err, boom) {
		t.Fatalf("Commit = %v, want %v", err, boom)
	}
	if err := s.Upsert(ctx, tasks.Doc("t1"), nil); !errors.Is(err, boom) {
		t.Fatalf("Upsert = %v, want %v", err, boom)
	}
	if s.Writes() != 0 || len(rec.got) != 0 {
		t.Errorf("failed writes must not apply or notify: writes=%d notes=%v", s.Writes(), rec.got)
	}
	if _, err := s.Get(ctx, "users/u1/groups/g1"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("half of failed batch visible: %v", err)
	}

	s.FailWrites(nil)
	if err := s.Commit(ctx, b); err != nil {
		t.Errorf("Commit after heal: %v", err)
	}
}

func TestBadPaths(t *testing.T) {
	ctx := context.Background()
	s := New(nil)
	if err := s.Upsert(ctx, "tasks", nil); !errors.Is(err, docstore.ErrBadPath) {
		t.Errorf("Upsert(collection path) = %v", err)
	}
	if _, err := s.List(ctx, "tasks/t1", docstore.ListOptions{}); !errors.Is(err, docstore.ErrBadPath) {
		t.Errorf("List(doc path) = %v", err)
	}
}
