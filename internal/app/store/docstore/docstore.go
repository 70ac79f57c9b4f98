// Package docstore defines the hierarchical document store the board is
// built on.
//
// Addresses are slash-separated paths that alternate collection and
// document segments: "artifacts/app/users/u1/tasks" is a collection and
// "artifacts/app/users/u1/tasks/t1" is a document in it. Collections are
// implicit; they exist as soon as one document is written under them.
package docstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("docstore: document not found")
	// ErrExists is returned by Create when the document already exists.
	ErrExists = errors.New("docstore: document already exists")
	// ErrBadPath is returned for malformed addresses.
	ErrBadPath = errors.New("docstore: malformed path")
)

// Collection is the path of a collection (odd number of segments).
type Collection string

// Doc is the path of a document (even number of segments).
type Doc string

func segments(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func validSegments(segs []string) bool {
	for _, s := range segs {
		if s == "" {
			return false
		}
	}
	return len(segs) > 0
}

// Valid reports whether c is a well-formed collection path.
func (c Collection) Valid() bool {
	segs := segments(string(c))
	return validSegments(segs) && len(segs)%2 == 1
}

// Doc addresses a document inside c.
func (c Collection) Doc(id string) Doc {
	return Doc(string(c) + "/" + id)
}

// Name returns the leaf segment of the collection path ("tasks", "members").
func (c Collection) Name() string {
	s := string(c)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Valid reports whether d is a well-formed document path.
func (d Doc) Valid() bool {
	segs := segments(string(d))
	return validSegments(segs) && len(segs)%2 == 0
}

// ID returns the document's own id (the last segment).
func (d Doc) ID() string {
	s := string(d)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Parent returns the collection that holds d.
func (d Doc) Parent() Collection {
	s := string(d)
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return Collection(s[:i])
	}
	return ""
}

// Collection addresses a sub-collection of d.
func (d Doc) Collection(name string) Collection {
	return Collection(string(d) + "/" + name)
}

// Fields is the body of a document.
type Fields map[string]any

type serverTimestamp struct{}

// ServerTimestamp is a field value the store replaces with its own clock at
// write time.
var ServerTimestamp any = serverTimestamp{}

// ResolveFields returns a copy of f with every ServerTimestamp replaced by now.
func ResolveFields(f Fields, now time.Time) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if _, ok := v.(serverTimestamp); ok {
			out[k] = now
			continue
		}
		out[k] = v
	}
	return out
}

// Document is a stored document and its fields.
type Document struct {
	Path Doc
	Data Fields
}

// ID returns the document id.
func (d Document) ID() string { return d.Path.ID() }

// String returns a string field or "".
func (d Document) String(key string) string {
	s, _ := d.Data[key].(string)
	return s
}

// Time returns a time field or the zero time.
func (d Document) Time(key string) time.Time {
	t, _ := d.Data[key].(time.Time)
	return t
}

// ListOptions orders a collection listing. An empty OrderBy orders by id.
type ListOptions struct {
	OrderBy string
	Desc    bool
}

// Reader reads documents.
type Reader interface {
	Get(ctx context.Context, d Doc) (Document, error)
	List(ctx context.Context, c Collection, opts ListOptions) ([]Document, error)
}

// Writer writes documents. Every successful write notifies listeners of the
// affected collections.
type Writer interface {
	// Upsert merges f into d, creating d when missing.
	Upsert(ctx context.Context, d Doc, f Fields) error
	// Update merges f into an existing d; ErrNotFound otherwise.
	Update(ctx context.Context, d Doc, f Fields) error
	// Create writes d only when it does not exist yet; ErrExists otherwise.
	Create(ctx context.Context, d Doc, f Fields) error
	Delete(ctx context.Context, d Doc) error
	// Append creates a document with a fresh random id in c.
	Append(ctx context.Context, c Collection, f Fields) (Doc, error)
	// Commit applies every operation of b atomically: all or none.
	Commit(ctx context.Context, b *Batch) error
}

// Store is a full document store.
type Store interface {
	Reader
	Writer
}

// Notifier receives the collection path of every committed write.
type Notifier interface {
	Publish(c Collection)
}

// Listener hands out change notifications for one collection. The returned
// channel receives a value (coalesced) after each write; cancel releases it.
type Listener interface {
	Listen(c Collection) (<-chan struct{}, func())
}

// NopNotifier drops every notification.
type NopNotifier struct{}

// Publish implements Notifier.
func (NopNotifier) Publish(Collection) {}
