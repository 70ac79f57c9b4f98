// internal/app/store/tasks/taskstore.go
package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/htmlsanitize"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

var (
	ErrTitleRequired = errors.New("task title is required")
	ErrBadStatus     = errors.New("unknown task status")
	ErrBadPriority   = errors.New("unknown task priority")
	ErrNotFound      = errors.New("task not found")
)

// ListOrder is the board order: newest first, ties by id.
var ListOrder = docstore.ListOptions{OrderBy: "created_at", Desc: true}

// Store reads and writes tasks in whichever collection the caller resolved.
type Store struct {
	docs docstore.Store
}

// New returns a task store on docs.
func New(docs docstore.Store) *Store {
	return &Store{docs: docs}
}

// NewTask is the input for Create.
type NewTask struct {
	Title       string
	Description string
	Priority    models.Priority
	Assignee    string
}

// Create appends a task in the first column. The id and creation time are
// assigned by the store.
func (s *Store) Create(ctx context.Context, c docstore.Collection, in NewTask, createdBy string) (models.Task, error) {
	title := htmlsanitize.PlainText(in.Title)
	if title == "" {
		return models.Task{}, ErrTitleRequired
	}
	prio := in.Priority
	if prio == "" {
		prio = models.PriorityMedium
	}
	if !prio.Valid() {
		return models.Task{}, ErrBadPriority
	}

	t := models.Task{
		Title:       title,
		Description: htmlsanitize.Sanitize(strings.TrimSpace(in.Description)),
		Status:      models.Statuses[0],
		Priority:    prio,
		Assignee:    htmlsanitize.PlainText(in.Assignee),
		CreatedBy:   createdBy,
	}
	d, err := s.docs.Append(ctx, c, docstore.Fields{
		"title":       t.Title,
		"description": t.Description,
		"status":      string(t.Status),
		"priority":    string(t.Priority),
		"assignee":    t.Assignee,
		"created_by":  t.CreatedBy,
		"created_at":  docstore.ServerTimestamp,
	})
	if err != nil {
		return models.Task{}, err
	}
	return s.Get(ctx, d)
}

// Patch holds the fields an edit changes; nil leaves a field as is.
type Patch struct {
	Title       *string
	Description *string
	Status      *models.Status
	Priority    *models.Priority
	Assignee    *string
}

// Update applies p to an existing task.
func (s *Store) Update(ctx context.Context, d docstore.Doc, p Patch) error {
	f := docstore.Fields{}
	if p.Title != nil {
		title := htmlsanitize.PlainText(*p.Title)
		if title == "" {
			return ErrTitleRequired
		}
		f["title"] = title
	}
	if p.Description != nil {
		f["description"] = htmlsanitize.Sanitize(strings.TrimSpace(*p.Description))
	}
	if p.Status != nil {
		if !p.Status.Valid() {
			return ErrBadStatus
		}
		f["status"] = string(*p.Status)
	}
	if p.Priority != nil {
		if !p.Priority.Valid() {
			return ErrBadPriority
		}
		f["priority"] = string(*p.Priority)
	}
	if p.Assignee != nil {
		f["assignee"] = htmlsanitize.PlainText(*p.Assignee)
	}
	if len(f) == 0 {
		return nil
	}
	return notFound(s.docs.Update(ctx, d, f))
}

// SetStatus moves a task to any column. Every status is reachable from
// every other; the target only has to be known.
func (s *Store) SetStatus(ctx context.Context, d docstore.Doc, st models.Status) error {
	if !st.Valid() {
		return ErrBadStatus
	}
	return notFound(s.docs.Update(ctx, d, docstore.Fields{"status": string(st)}))
}

// Delete removes a task. Its comments are not touched.
func (s *Store) Delete(ctx context.Context, d docstore.Doc) error {
	return s.docs.Delete(ctx, d)
}

// Get loads one task.
func (s *Store) Get(ctx context.Context, d docstore.Doc) (models.Task, error) {
	doc, err := s.docs.Get(ctx, d)
	if err != nil {
		return models.Task{}, notFound(err)
	}
	return FromDocument(doc), nil
}

// List returns every task of c in ListOrder.
func (s *Store) List(ctx context.Context, c docstore.Collection) ([]models.Task, error) {
	docs, err := s.docs.List(ctx, c, ListOrder)
	if err != nil {
		return nil, err
	}
	return FromDocuments(docs), nil
}

// FromDocuments converts a listing or snapshot.
func FromDocuments(docs []docstore.Document) []models.Task {
	out := make([]models.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, FromDocument(d))
	}
	return out
}

// FromDocument converts one stored task and renders its description.
func FromDocument(doc docstore.Document) models.Task {
	desc := doc.String("description")
	return models.Task{
		ID:              doc.ID(),
		Title:           doc.String("title"),
		Description:     desc,
		DescriptionHTML: htmlsanitize.PrepareForDisplay(desc),
		Status:          models.Status(doc.String("status")),
		Priority:        models.Priority(doc.String("priority")),
		Assignee:        doc.String("assignee"),
		CreatedBy:       doc.String("created_by"),
		CreatedAt:       doc.Time("created_at"),
	}
}

func notFound(err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
