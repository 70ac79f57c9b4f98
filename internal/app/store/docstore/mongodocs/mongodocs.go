// Package mongodocs stores docstore documents in MongoDB.
//
// Every leaf collection name maps to one Mongo collection ("tasks",
// "members", "groups", "comments", "accounts"). A document is stored with
// its full path as _id and its collection path as _parent, so one Mongo
// collection holds every user's and every group's tasks and listing a
// logical collection is a single indexed query on _parent.
package mongodocs

import (
	"context"
	"errors"
	"fmt"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/google/uuid"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/txn"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const (
	fieldID     = "_id"
	fieldParent = "_parent"
)

// Store implements docstore.Store on a Mongo database.
type Store struct {
	db       *mongo.Database
	notifier docstore.Notifier
	log      *zap.Logger
	now      func() time.Time
}

// New returns a store on db that reports writes to n (nil drops them).
func New(db *mongo.Database, n docstore.Notifier, log *zap.Logger) *Store {
	if n == nil {
		n = docstore.NopNotifier{}
	}
	return &Store{
		db:       db,
		notifier: n,
		log:      log,
		// Mongo keeps millisecond precision.
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

func (s *Store) coll(c docstore.Collection) *mongo.Collection {
	return s.db.Collection(c.Name())
}

// Get implements docstore.Reader.
func (s *Store) Get(ctx context.Context, d docstore.Doc) (docstore.Document, error) {
	if !d.Valid() {
		return docstore.Document{}, docstore.ErrBadPath
	}
	var raw bson.M
	err := s.coll(d.Parent()).FindOne(ctx, bson.M{fieldID: string(d)}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return docstore.Document{}, docstore.ErrNotFound
	}
	if err != nil {
		return docstore.Document{}, err
	}
	return toDocument(raw), nil
}

// List implements docstore.Reader.
func (s *Store) List(ctx context.Context, c docstore.Collection, opts docstore.ListOptions) ([]docstore.Document, error) {
	if !c.Valid() {
		return nil, docstore.ErrBadPath
	}
	sort := bson.D{}
	if opts.OrderBy != "" {
		dir := 1
		if opts.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: opts.OrderBy, Value: dir})
	}
	sort = append(sort, bson.E{Key: fieldID, Value: 1})

	cur, err := s.coll(c).Find(ctx, bson.M{fieldParent: string(c)}, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []docstore.Document
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, toDocument(raw))
	}
	return out, cur.Err()
}

// Upsert implements docstore.Writer.
func (s *Store) Upsert(ctx context.Context, d docstore.Doc, f docstore.Fields) error {
	if !d.Valid() {
		return docstore.ErrBadPath
	}
	if err := s.upsert(ctx, d, f); err != nil {
		return err
	}
	s.notifier.Publish(d.Parent())
	return nil
}

func (s *Store) upsert(ctx context.Context, d docstore.Doc, f docstore.Fields) error {
	_, err := s.coll(d.Parent()).UpdateOne(ctx,
		bson.M{fieldID: string(d)},
		bson.M{"$set": s.setDoc(d, f)},
		options.Update().SetUpsert(true),
	)
	return err
}

// Update implements docstore.Writer.
func (s *Store) Update(ctx context.Context, d docstore.Doc, f docstore.Fields) error {
	if !d.Valid() {
		return docstore.ErrBadPath
	}
	res, err := s.coll(d.Parent()).UpdateOne(ctx,
		bson.M{fieldID: string(d)},
		bson.M{"$set": s.setDoc(d, f)},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return docstore.ErrNotFound
	}
	s.notifier.Publish(d.Parent())
	return nil
}

// Create implements docstore.Writer.
func (s *Store) Create(ctx context.Context, d docstore.Doc, f docstore.Fields) error {
	if !d.Valid() {
		return docstore.ErrBadPath
	}
	doc := s.setDoc(d, f)
	doc[fieldID] = string(d)
	if _, err := s.coll(d.Parent()).InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return docstore.ErrExists
		}
		return err
	}
	s.notifier.Publish(d.Parent())
	return nil
}

// Delete implements docstore.Writer.
func (s *Store) Delete(ctx context.Context, d docstore.Doc) error {
	if !d.Valid() {
		return docstore.ErrBadPath
	}
	if _, err := s.coll(d.Parent()).DeleteOne(ctx, bson.M{fieldID: string(d)}); err != nil {
		return err
	}
	s.notifier.Publish(d.Parent())
	return nil
}

// Append implements docstore.Writer.
func (s *Store) Append(ctx context.Context, c docstore.Collection, f docstore.Fields) (docstore.Doc, error) {
	if !c.Valid() {
		return "", docstore.ErrBadPath
	}
	d := c.Doc(uuid.NewString())
	if err := s.Create(ctx, d, f); err != nil {
		return "", err
	}
	return d, nil
}

// Commit implements docstore.Writer. The batch runs in one transaction; on a
// deployment without transactions it fails with txn.ErrNotSupported and
// nothing is written.
func (s *Store) Commit(ctx context.Context, b *docstore.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	err := txn.Run(ctx, s.db, s.log, func(ctx context.Context) error {
		for _, op := range b.Ops() {
			switch op.Kind {
			case docstore.OpUpsert:
				if err := s.upsert(ctx, op.Doc, op.Fields); err != nil {
					return fmt.Errorf("upsert %s: %w", op.Doc, err)
				}
			case docstore.OpDelete:
				if _, err := s.coll(op.Doc.Parent()).DeleteOne(ctx, bson.M{fieldID: string(op.Doc)}); err != nil {
					return fmt.Errorf("delete %s: %w", op.Doc, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, c := range b.Collections() {
		s.notifier.Publish(c)
	}
	return nil
}

func (s *Store) setDoc(d docstore.Doc, f docstore.Fields) bson.M {
	out := bson.M{fieldParent: string(d.Parent())}
	for k, v := range docstore.ResolveFields(f, s.now()) {
		if k == fieldID || k == fieldParent {
			continue
		}
		out[k] = v
	}
	return out
}

func toDocument(raw bson.M) docstore.Document {
	id, _ := raw[fieldID].(string)
	data := make(docstore.Fields, len(raw))
	for k, v := range raw {
		if k == fieldID || k == fieldParent {
			continue
		}
		if dt, ok := v.(primitive.DateTime); ok {
			data[k] = dt.Time().UTC()
			continue
		}
		data[k] = v
	}
	return docstore.Document{Path: docstore.Doc(id), Data: data}
}
