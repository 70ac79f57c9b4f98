// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Every logical collection is stored in a Mongo
collection named after its leaf segment, and every listing filters on _parent,
so each set starts with _parent. Problems are aggregated so startup can fail
fast with the full picture.
*/
func EnsureAll(ctx context.Context, db *mongo.Database, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	var problems []string
	for _, set := range Sets() {
		if err := ensureIndexSet(ctx, db.Collection(set.Collection), set.Models, log); err != nil {
			problems = append(problems, set.Collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Set is the desired index list for one Mongo collection.
type Set struct {
	Collection string
	Models     []mongo.IndexModel
}

// Sets returns the desired index sets in the order they are ensured.
func Sets() []Set {
	return []Set{
		{Collection: "tasks", Models: []mongo.IndexModel{{
			// board listing: newest first, ties by id
			Keys:    bson.D{{Key: "_parent", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_tasks_parent_created"),
		}}},
		{Collection: "comments", Models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "_parent", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}},
			Options: options.Index().SetName("idx_comments_parent_created"),
		}}},
		{Collection: "groups", Models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "_parent", Value: 1}, {Key: "joined_at", Value: 1}},
			Options: options.Index().SetName("idx_groups_parent_joined"),
		}}},
		{Collection: "members", Models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "_parent", Value: 1}},
			Options: options.Index().SetName("idx_members_parent"),
		}}},
		{Collection: "accounts", Models: []mongo.IndexModel{{
			Keys:    bson.D{{Key: "uid", Value: 1}},
			Options: options.Index().SetName("uniq_accounts_uid").SetUnique(true),
		}}},
	}
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate detector (works across vendors).
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

func listExisting(ctx context.Context, coll *mongo.Collection, log *zap.Logger) map[string]existingIndex {
	existing := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// Collection not created yet; nothing to reconcile.
		return existing
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			log.Warn("failed to decode existing index",
				zap.String("collection", coll.Name()), zap.Error(err))
			continue
		}
		existing[keySig(idx.Key)] = idx
	}
	return existing
}

// ensureIndexSet reconciles the desired indexes against what the collection
// already has. An index with the same key pattern is reused when its
// uniqueness and name agree, and dropped and recreated otherwise.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel, log *zap.Logger) error {
	var errs []string
	existing := listExisting(ctx, coll, log)

	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		desiredSig := keySig(m.Keys.(bson.D))
		unique := desiredUnique != nil && *desiredUnique
		start := time.Now()

		if ex, ok := existing[desiredSig]; ok {
			if sameBoolPtr(desiredUnique, ex.Unique) && (desiredName == "" || ex.Name == desiredName) {
				log.Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", desiredSig))
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				log.Warn("drop existing index failed",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.Error(err))
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && unique {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), desiredName))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			}
			log.Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", desiredName),
				zap.String("keys", desiredSig),
				zap.Bool("unique", unique),
				zap.Error(err))
			continue
		}
		log.Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", desiredSig),
			zap.Bool("unique", unique),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
