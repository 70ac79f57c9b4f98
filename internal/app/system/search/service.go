// Package search resolves board text search through Meilisearch when it is
// configured and healthy, and falls back to in-memory title matching
// otherwise.
package search

import (
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	"github.com/pragatiboard/pragati/internal/app/system/board"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// MaxHits caps how many ids one search asks the engine for.
const MaxHits = 1000

// TaskRecord is the indexed form of a task.
type TaskRecord struct {
	ID          string `json:"id"`
	Collection  string `json:"collection"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
}

// RecordFor builds the index record of a task in collection c.
func RecordFor(c docstore.Collection, t models.Task) TaskRecord {
	return TaskRecord{
		ID:          t.ID,
		Collection:  string(c),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Assignee:    t.Assignee,
	}
}

// Engine is a full-text index of tasks.
type Engine interface {
	Healthy() bool
	SearchTasks(collection, q string, limit int) ([]string, error)
	IndexTask(rec TaskRecord) error
	DeleteTask(id string) error
}

// Service is nil-safe: a nil *Service, or one without an engine, always
// falls back to title matching and drops index updates.
type Service struct {
	engine Engine
	log    *zap.Logger
}

// NewService returns a service on engine (which may be nil).
func NewService(engine Engine, log *zap.Logger) *Service {
	return &Service{engine: engine, log: log}
}

func (s *Service) usable() bool {
	return s != nil && s.engine != nil && s.engine.Healthy()
}

// Matcher returns the search matcher for q in collection c, or nil when the
// default title match should be used. Engine hits widen the title match and
// never replace it: tasks the index has not seen yet still match by title.
func (s *Service) Matcher(c docstore.Collection, q string) board.Matcher {
	if q == "" || !s.usable() {
		return nil
	}
	ids, err := s.engine.SearchTasks(string(c), q, MaxHits)
	if err != nil {
		s.log.Warn("search engine error, falling back to title match", zap.Error(err))
		return nil
	}
	return board.AnyOf(board.TitleMatcher(q), board.IDMatcher(ids))
}

// IndexTask indexes t in the background.
func (s *Service) IndexTask(c docstore.Collection, t models.Task) {
	if !s.usable() {
		return
	}
	rec := RecordFor(c, t)
	go func() {
		if err := s.engine.IndexTask(rec); err != nil {
			s.log.Warn("index task failed", zap.String("task_id", rec.ID), zap.Error(err))
		}
	}()
}

// DeleteTask removes a task from the index in the background.
func (s *Service) DeleteTask(id string) {
	if !s.usable() {
		return
	}
	go func() {
		if err := s.engine.DeleteTask(id); err != nil {
			s.log.Warn("unindex task failed", zap.String("task_id", id), zap.Error(err))
		}
	}()
}
