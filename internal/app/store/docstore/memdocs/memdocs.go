// Package memdocs is an in-memory docstore.Store. It backs the core tests
// and can run the app without a database.
package memdocs

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
)

// Store keeps every document in a map guarded by one mutex, so a batch is
// trivially atomic.
type Store struct {
	mu       sync.RWMutex
	docs     map[docstore.Doc]docstore.Fields
	notifier docstore.Notifier
	now      func() time.Time

	failWrites error
	writes     int
}

// New returns an empty store that reports writes to n (nil drops them).
func New(n docstore.Notifier) *Store {
	if n == nil {
		n = docstore.NopNotifier{}
	}
	return &Store{
		docs:     make(map[docstore.Doc]docstore.Fields),
		notifier: n,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for server timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// FailWrites makes every later write return err without touching any data.
// Pass nil to heal the store.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWrites = err
}

// Writes returns how many write calls have been applied.
func (s *Store) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Get implements docstore.Reader.
func (s *Store) Get(_ context.Context, d docstore.Doc) (docstore.Document, error) {
	if !d.Valid() {
		return docstore.Document{}, docstore.ErrBadPath
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.docs[d]
	if !ok {
		return docstore.Document{}, docstore.ErrNotFound
	}
	return docstore.Document{Path: d, Data: clone(f)}, nil
}

// List implements docstore.Reader.
func (s *Store) List(ctx context.Context, c docstore.Collection, opts docstore.ListOptions) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, docstore.ErrBadPath
	}
	prefix := string(c) + "/"

	s.mu.RLock()
	var out []docstore.Document
	for d, f := range s.docs {
		rest, ok := strings.CutPrefix(string(d), prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, docstore.Document{Path: d, Data: clone(f)})
	}
	s.mu.RUnlock()

	docstore.SortDocuments(out, opts)
	return out, nil
}

// Upsert implements docstore.Writer.
func (s *Store) Upsert(_ context.Context, d docstore.Doc, f docstore.Fields) error {
	return s.write(d, func() error {
		s.merge(d, f)
		return nil
	})
}

// Update implements docstore.Writer.
func (s *Store) Update(_ context.Context, d docstore.Doc, f docstore.Fields) error {
	return s.write(d, func() error {
		if _, ok := s.docs[d]; !ok {
			return docstore.ErrNotFound
		}
		s.merge(d, f)
		return nil
	})
}

// Create implements docstore.Writer.
func (s *Store) Create(_ context.Context, d docstore.Doc, f docstore.Fields) error {
	return s.write(d, func() error {
		if _, ok := s.docs[d]; ok {
			return docstore.ErrExists
		}
		s.merge(d, f)
		return nil
	})
}

// Delete implements docstore.Writer. Deleting a missing document is not an
// error.
func (s *Store) Delete(_ context.Context, d docstore.Doc) error {
	return s.write(d, func() error {
		delete(s.docs, d)
		return nil
	})
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

// Commit implements docstore.Writer.
func (s *Store) Commit(_ context.Context, b *docstore.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.failWrites != nil {
		err := s.failWrites
		s.mu.Unlock()
		return err
	}
	for _, op := range b.Ops() {
		switch op.Kind {
		case docstore.OpUpsert:
			s.merge(op.Doc, op.Fields)
		case docstore.OpDelete:
			delete(s.docs, op.Doc)
		}
	}
	s.writes++
	s.mu.Unlock()

	for _, c := range b.Collections() {
		s.notifier.Publish(c)
	}
	return nil
}

func (s *Store) write(d docstore.Doc, apply func() error) error {
	if !d.Valid() {
		return docstore.ErrBadPath
	}
	s.mu.Lock()
	if s.failWrites != nil {
		err := s.failWrites
		s.mu.Unlock()
		return err
	}
	if err := apply(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.writes++
	s.mu.Unlock()

	s.notifier.Publish(d.Parent())
	return nil
}

// merge must be called with mu held.
func (s *Store) merge(d docstore.Doc, f docstore.Fields) {
	cur, ok := s.docs[d]
	if !ok {
		cur = make(docstore.Fields, len(f))
		s.docs[d] = cur
	}
	for k, v := range docstore.ResolveFields(f, s.now()) {
		cur[k] = v
	}
}

func clone(f docstore.Fields) docstore.Fields {
	out := make(docstore.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
