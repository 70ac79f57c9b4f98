// internal/app/features/comments/handler.go
package comments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	commentstore "github.com/pragatiboard/pragati/internal/app/store/comments"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	taskstore "github.com/pragatiboard/pragati/internal/app/store/tasks"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/sse"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the comment thread of a task on the active board.
type Handler struct {
	Comments *commentstore.Store
	Tasks    *taskstore.Store
	Docs     docstore.Reader
	Listener docstore.Listener
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(comments *commentstore.Store, tasks *taskstore.Store, docs docstore.Reader, l docstore.Listener, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Comments: comments, Tasks: tasks, Docs: docs, Listener: l, ErrLog: errLog, Log: logger}
}

type thread struct {
	TaskID   string           `json:"task_id"`
	Comments []models.Comment `json:"comments"`
}

// target resolves the task in the URL and its comment collection.
func (h *Handler) target(w http.ResponseWriter, r *http.Request) (string, docstore.Doc, docstore.Collection, bool) {
	ws := workspace.FromRequest(r)
	if ws == nil {
		h.ErrLog.LogServerError(w, r, "comments: no workspace in context", nil, "Unable to load comments.", "/board")
		return "", "", "", false
	}
	taskID := chi.URLParam(r, "taskID")
	d, ok := ws.Task(taskID)
	c, ok2 := ws.Comments(taskID)
	if !ok || !ok2 {
		h.ErrLog.LogNotFound(w, r, "comments: bad task id", nil, "Task not found.", "/board")
		return "", "", "", false
	}
	return taskID, d, c, true
}

// ServeList handles GET /tasks/{taskID}/comments, oldest first.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	taskID, _, c, ok := h.target(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	list, err := h.Comments.List(ctx, c)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list comments", err, "Unable to load comments.", "/board")
		return
	}
	uierrors.WriteJSON(w, http.StatusOK, thread{TaskID: taskID, Comments: list})
}

type commentInput struct {
	Text string `json:"text"`
}

// HandleAdd handles POST /tasks/{taskID}/comments.
func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	_, d, c, ok := h.target(w, r)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r)

	var in commentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.ErrLog.LogBadRequest(w, r, "add comment: unreadable body", err, "Invalid request.", "/board")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Tasks.Get(ctx, d); err != nil {
		if errors.Is(err, taskstore.ErrNotFound) {
			h.ErrLog.LogNotFound(w, r, "add comment: no such task", err, "Task not found.", "/board")
			return
		}
		h.ErrLog.LogServerError(w, r, "add comment: load task", err, "Unable to add the comment.", "/board")
		return
	}

	cm, err := h.Comments.Add(ctx, c, in.Text, *user)
	if errors.Is(err, commentstore.ErrTextRequired) {
		h.ErrLog.LogBadRequest(w, r, "add comment: empty", err, "Comment text is required.", "/board")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "add comment", err, "Unable to add the comment.", "/board")
		return
	}
	uierrors.WriteJSON(w, http.StatusCreated, cm)
}

// ServeStream handles GET /tasks/{taskID}/comments/stream.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	taskID, _, c, ok := h.target(w, r)
	if !ok {
		return
	}
	sub := docstore.Subscribe(r.Context(), h.Docs, h.Listener, c, commentstore.ListOrder)
	sse.Stream(w, r, sub, func(s docstore.Snapshot) any {
		return thread{TaskID: taskID, Comments: commentstore.FromDocuments(s.Docs)}
	}, h.Log)
}
