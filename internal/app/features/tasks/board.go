// internal/app/features/tasks/board.go
package tasks

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/pantry/query"
	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	taskstore "github.com/pragatiboard/pragati/internal/app/store/tasks"
	"github.com/pragatiboard/pragati/internal/app/system/board"
	"github.com/pragatiboard/pragati/internal/app/system/sse"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"github.com/pragatiboard/pragati/internal/domain/models"
)

type boardData struct {
	View       models.View       `json:"view"`
	Role       models.Role       `json:"role,omitempty"`
	Filter     board.Filter      `json:"filter"`
	Statuses   []models.Status   `json:"statuses"`
	Priorities []models.Priority `json:"priorities"`
	Columns    []board.Column    `json:"columns"`
	Assignees  []string          `json:"assignees"`
	Total      int               `json:"total"`
	Shown      int               `json:"shown"`
}

func filterFrom(r *http.Request) board.Filter {
	f := board.Filter{
		Search:   query.Get(r, "q"),
		Priority: query.Get(r, "priority"),
		Assignee: query.Get(r, "assignee"),
	}
	if f.Priority == "" {
		f.Priority = board.All
	}
	if f.Assignee == "" {
		f.Assignee = board.All
	}
	return f
}

func (h *Handler) build(ws *workspace.Info, list []models.Task, f board.Filter) boardData {
	bv := board.Build(list, f, h.Search.Matcher(ws.Tasks, f.Search))
	return boardData{
		View:       ws.View,
		Role:       ws.Role,
		Filter:     f,
		Statuses:   models.Statuses,
		Priorities: models.Priorities,
		Columns:    bv.Columns,
		Assignees:  bv.Assignees,
		Total:      bv.Total,
		Shown:      bv.Shown,
	}
}

// ServeBoard handles GET /board. Query parameters q, priority and assignee
// narrow the visible tasks.
func (h *Handler) ServeBoard(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	list, err := h.Tasks.List(ctx, ws.Tasks)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "board: list tasks", err, "Unable to load your board.", "/board")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, h.build(ws, list, filterFrom(r)))
}

// ServeStream handles GET /tasks/stream: the board, rebuilt and re-sent on
// every change to the active task collection.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	f := filterFrom(r)
	sub := docstore.Subscribe(r.Context(), h.Docs, h.Listener, ws.Tasks, taskstore.ListOrder)
	sse.Stream(w, r, sub, func(s docstore.Snapshot) any {
		return h.build(ws, taskstore.FromDocuments(s.Docs), f)
	}, h.Log)
}
