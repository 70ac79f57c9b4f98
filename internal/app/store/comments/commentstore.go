// internal/app/store/comments/commentstore.go
package comments

import (
	"context"
	"errors"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/htmlsanitize"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

// ErrTextRequired is returned for an empty comment.
var ErrTextRequired = errors.New("comment text is required")

// ListOrder is oldest first.
var ListOrder = docstore.ListOptions{OrderBy: "created_at"}

// Store reads and writes the comment thread of a task.
type Store struct {
	docs docstore.Store
}

// New returns a comment store on docs.
func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// Add appends a comment written by author.
func (s *Store) Add(ctx context.Context, c docstore.Collection, text string, author models.User) (models.Comment, error) {
	text = htmlsanitize.PlainText(text)
	if text == "" {
		return models.Comment{}, ErrTextRequired
	}
	d, err := s.docs.Append(ctx, c, docstore.Fields{
		"text":       text,
		"created_by": author.DisplayName(),
		"created_at": docstore.ServerTimestamp,
	})
	if err != nil {
		return models.Comment{}, err
	}
	doc, err := s.docs.Get(ctx, d)
	if err != nil {
		return models.Comment{}, err
	}
	return FromDocument(doc), nil
}

// List returns the thread in ListOrder.
func (s *Store) List(ctx context.Context, c docstore.Collection) ([]models.Comment, error) {
	docs, err := s.docs.List(ctx, c, ListOrder)
	if err != nil {
		return nil, err
	}
	return FromDocuments(docs), nil
}

// FromDocuments converts a listing or snapshot.
func FromDocuments(docs []docstore.Document) []models.Comment {
	out := make([]models.Comment, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDocument(d))
	}
	return out
}

// FromDocument converts one stored comment.
func FromDocument(doc docstore.Document) models.Comment {
	return models.Comment{
		ID:        doc.ID(),
		Text:      doc.String("text"),
		CreatedBy: doc.String("created_by"),
		CreatedAt: doc.Time("created_at"),
	}
}
