package mongodocs_test

import (
	"errors"
	"testing"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/store/docstore/mongodocs"
	"github.com/pragatiboard/pragati/internal/app/system/txn"
	"github.com/pragatiboard/pragati/internal/testutil"
	"go.uber.org/zap"
)

const tasks = docstore.Collection("artifacts/app/users/u1/tasks")

func TestUpsertGetList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := mongodocs.New(db, nil, zap.NewNop())

	if err := s.Upsert(ctx, tasks.Doc("t1"), docstore.Fields{
		"title":      "write report",
		"created_at": docstore.ServerTimestamp,
	}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Upsert(ctx, tasks.Doc("t1"), docstore.Fields{"status": "Done"}); err != nil {
		t.Fatalf("Upsert merge: %v", err)
	}
	// Same leaf collection, different owner: must not show up in the listing.
	if err := s.Upsert(ctx, "artifacts/app/users/u2/tasks/t2", docstore.Fields{"title": "other"}); err != nil {
		t.Fatalf("Upsert other: %v", err)
	}

	doc, err := s.Get(ctx, tasks.Doc("t1"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if doc.String("title") != "write report" || doc.String("status") != "Done" {
		t.Errorf("doc = %v", doc.Data)
	}
	if doc.Time("created_at").IsZero() {
		t.Error("created_at should be a server timestamp")
	}

	docs, err := s.List(ctx, tasks, docstore.ListOptions{OrderBy: "created_at", Desc: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 1 || docs[0].ID() != "t1" {
		t.Errorf("List = %v, want only t1", docs)
	}
}

func TestGetMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := mongodocs.New(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if _, err := s.Get(ctx, tasks.Doc("missing")); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestCreateDuplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := mongodocs.New(db, nil, zap.NewNop())

	d := docstore.Doc("accounts/a@example.com")
	if err := s.Create(ctx, d, docstore.Fields{"uid": "1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Create(ctx, d, docstore.Fields{"uid": "2"}); !errors.Is(err, docstore.ErrExists) {
		t.Errorf("second Create = %v, want ErrExists", err)
	}
}

func TestUpdateMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	s := mongodocs.New(db, nil, zap.NewNop())
	ctx, cancel := testutil.TestContext()
	defer cancel()
	err := s.Update(ctx, tasks.Doc("missing"), docstore.Fields{"status": "Done"})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Update = %v, want ErrNotFound", err)
	}
}

func TestCommitIsAllOrNothing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	s := mongodocs.New(db, nil, zap.NewNop())

	b := docstore.NewBatch().
		Upsert("users/u1/groups/g1", docstore.Fields{"id": "g1", "role": "member"}).
		Upsert("artifacts/app/public/data/groups/g1/members/u1", docstore.Fields{"email": "a@example.com", "role": "member"})

	err := s.Commit(ctx, b)
	if errors.Is(err, txn.ErrNotSupported) {
		// Standalone server: the batch must have written nothing.
		for _, d := range []docstore.Doc{"users/u1/groups/g1", "artifacts/app/public/data/groups/g1/members/u1"} {
			if _, gerr := s.Get(ctx, d); !errors.Is(gerr, docstore.ErrNotFound) {
				t.Errorf("%s written despite failed commit", d)
			}
		}
		t.Skip("test server does not support transactions")
	}
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	for _, d := range []docstore.Doc{"users/u1/groups/g1", "artifacts/app/public/data/groups/g1/members/u1"} {
		if _, err := s.Get(ctx, d); err != nil {
			t.Errorf("Get(%s): %v", d, err)
		}
	}
}
