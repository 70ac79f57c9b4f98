// internal/app/features/tasks/handler.go
package tasks

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	"github.com/pragatiboard/pragati/internal/app/store/docstore"
	taskstore "github.com/pragatiboard/pragati/internal/app/store/tasks"
	"github.com/pragatiboard/pragati/internal/app/system/search"
	"github.com/pragatiboard/pragati/internal/app/system/workspace"
	"go.uber.org/zap"
)

// Handler serves the board and task mutations of the active workspace.
type Handler struct {
	Tasks    *taskstore.Store
	Docs     docstore.Reader
	Listener docstore.Listener
	Search   *search.Service // nil disables the external index
	ErrLog   *uierrors.ErrorLogger
	Log      *zap.Logger
}

func NewHandler(tasks *taskstore.Store, docs docstore.Reader, l docstore.Listener, s *search.Service, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Tasks: tasks, Docs: docs, Listener: l, Search: s, ErrLog: errLog, Log: logger}
}

// workspace returns the request's workspace, answering 500 when the
// workspace middleware did not run.
func (h *Handler) workspace(w http.ResponseWriter, r *http.Request) (*workspace.Info, bool) {
	ws := workspace.FromRequest(r)
	if ws == nil {
		h.ErrLog.LogServerError(w, r, "tasks: no workspace in context", nil, "Unable to load your board.", "/board")
		return nil, false
	}
	return ws, true
}

// taskDoc resolves {taskID} on the active board.
func (h *Handler) taskDoc(w http.ResponseWriter, r *http.Request) (*workspace.Info, docstore.Doc, bool) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return nil, "", false
	}
	d, ok := ws.Task(chi.URLParam(r, "taskID"))
	if !ok {
		h.ErrLog.LogNotFound(w, r, "tasks: bad task id", nil, "Task not found.", "/board")
		return nil, "", false
	}
	return ws, d, true
}

// storeError answers a task store failure. Validation problems are the
// client's; anything else is logged and reported generically.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, taskstore.ErrTitleRequired):
		h.ErrLog.LogBadRequest(w, r, action, err, "Title is required.", "/board")
	case errors.Is(err, taskstore.ErrBadStatus):
		h.ErrLog.LogBadRequest(w, r, action, err, "Unknown status.", "/board")
	case errors.Is(err, taskstore.ErrBadPriority):
		h.ErrLog.LogBadRequest(w, r, action, err, "Unknown priority.", "/board")
	case errors.Is(err, taskstore.ErrNotFound):
		h.ErrLog.LogNotFound(w, r, action, err, "Task not found.", "/board")
	default:
		h.ErrLog.LogServerError(w, r, action, err, "Unable to save the task.", "/board")
	}
}
