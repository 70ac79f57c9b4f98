// internal/app/features/tasks/mutate.go
package tasks

import (
	"context"
	"encoding/json"
	"net/http"

	uierrors "github.com/pragatiboard/pragati/internal/app/features/errors"
	taskstore "github.com/pragatiboard/pragati/internal/app/store/tasks"
	"github.com/pragatiboard/pragati/internal/app/system/auth"
	"github.com/pragatiboard/pragati/internal/app/system/timeouts"
	"github.com/pragatiboard/pragati/internal/domain/models"
	"go.uber.org/zap"
)

type taskInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *models.Status   `json:"status"`
	Priority    *models.Priority `json:"priority"`
	Assignee    *string          `json:"assignee"`
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.ErrLog.LogBadRequest(w, r, "tasks: unreadable body", err, "Invalid request.", "/board")
		return false
	}
	return true
}

func deref[T ~string](p *T) T {
	if p == nil {
		return ""
	}
	return *p
}

// HandleCreate handles POST /tasks. New tasks always start in To Do.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	user, _ := auth.CurrentUser(r)

	var in taskInput
	if !h.decode(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	t, err := h.Tasks.Create(ctx, ws.Tasks, taskstore.NewTask{
		Title:       deref(in.Title),
		Description: deref(in.Description),
		Priority:    deref(in.Priority),
		Assignee:    deref(in.Assignee),
	}, user.Email)
	if err != nil {
		h.storeError(w, r, "create task", err)
		return
	}
	h.Search.IndexTask(ws.Tasks, t)
	h.Log.Info("task created",
		zap.String("task_id", t.ID),
		zap.String("collection", string(ws.Tasks)))
	uierrors.WriteJSON(w, http.StatusCreated, t)
}

// HandleUpdate handles PATCH /tasks/{taskID}. Omitted fields are left as
// they are.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ws, d, ok := h.taskDoc(w, r)
	if !ok {
		return
	}

	var in taskInput
	if !h.decode(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	err := h.Tasks.Update(ctx, d, taskstore.Patch{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Assignee:    in.Assignee,
	})
	if err != nil {
		h.storeError(w, r, "update task", err)
		return
	}
	t, err := h.Tasks.Get(ctx, d)
	if err != nil {
		h.storeError(w, r, "reload task", err)
		return
	}
	h.Search.IndexTask(ws.Tasks, t)
	uierrors.WriteJSON(w, http.StatusOK, t)
}

type statusInput struct {
	Status models.Status `json:"status"`
}

// HandleStatus handles POST /tasks/{taskID}/status: a drag between columns.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ws, d, ok := h.taskDoc(w, r)
	if !ok {
		return
	}

	var in statusInput
	if !h.decode(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tasks.SetStatus(ctx, d, in.Status); err != nil {
		h.storeError(w, r, "set task status", err)
		return
	}
	if t, err := h.Tasks.Get(ctx, d); err == nil {
		h.Search.IndexTask(ws.Tasks, t)
	}
	uierrors.WriteJSON(w, http.StatusOK, map[string]string{"id": d.ID(), "status": string(in.Status)})
}

// HandleDelete handles DELETE /tasks/{taskID}. Comments of the task are
// kept.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ws, d, ok := h.taskDoc(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Tasks.Delete(ctx, d); err != nil {
		h.storeError(w, r, "delete task", err)
		return
	}
	h.Search.DeleteTask(d.ID())
	h.Log.Info("task deleted",
		zap.String("task_id", d.ID()),
		zap.String("collection", string(ws.Tasks)))
	w.WriteHeader(http.StatusNoContent)
}
