package indexes_test

import (
	"testing"

	"github.com/pragatiboard/pragati/internal/app/system/indexes"
	"github.com/pragatiboard/pragati/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func indexNames(t *testing.T, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = idx
		}
	}
	return names
}

func TestSetsAreNamed(t *testing.T) {
	seen := map[string]bool{}
	for _, set := range indexes.Sets() {
		for _, m := range set.Models {
			if m.Options == nil || m.Options.Name == nil || *m.Options.Name == "" {
				t.Errorf("%s: index without a name", set.Collection)
				continue
			}
			if seen[*m.Options.Name] {
				t.Errorf("duplicate index name %q", *m.Options.Name)
			}
			seen[*m.Options.Name] = true
		}
	}
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	for _, set := range indexes.Sets() {
		names := indexNames(t, db, set.Collection)
		for _, m := range set.Models {
			if _, ok := names[*m.Options.Name]; !ok {
				t.Errorf("%s: missing index %s", set.Collection, *m.Options.Name)
			}
		}
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db, nil); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_RenamesMisnamedIndex(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("members").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "_parent", Value: 1}},
		Options: options.Index().SetName("legacy_parent"),
	})
	if err != nil {
		t.Fatalf("seed index: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "members")
	if _, ok := names["legacy_parent"]; ok {
		t.Error("legacy index should have been replaced")
	}
	if _, ok := names["idx_members_parent"]; !ok {
		t.Error("idx_members_parent missing")
	}
}

func TestEnsureAll_UniqueAccountUIDRejectsDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	accounts := db.Collection("accounts")
	for _, id := range []string{"accounts/a@example.com", "accounts/b@example.com"} {
		if _, err := accounts.InsertOne(ctx, bson.M{"_id": id, "_parent": "accounts", "uid": "same"}); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	if err := indexes.EnsureAll(ctx, db, zap.NewNop()); err == nil {
		t.Fatal("EnsureAll should report duplicate uids")
	}
}
