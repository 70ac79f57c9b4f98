// internal/app/features/tasks/routes.go
package tasks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// BoardRoutes returns the router mounted at /board.
func BoardRoutes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeBoard)
	return r
}

// Routes returns the router mounted at /tasks. comments, when non-nil, is
// mounted at /tasks/{taskID}/comments.
func Routes(h *Handler, comments http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.HandleCreate)
	r.Get("/stream", h.ServeStream)

	r.Patch("/{taskID}", h.HandleUpdate)
	r.Delete("/{taskID}", h.HandleDelete)
	r.Post("/{taskID}/status", h.HandleStatus)
	if comments != nil {
		r.Mount("/{taskID}/comments", comments)
	}
	return r
}
