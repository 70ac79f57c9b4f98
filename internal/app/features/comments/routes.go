// internal/app/features/comments/routes.go
package comments

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /tasks/{taskID}/comments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleAdd)
	r.Get("/stream", h.ServeStream)
	return r
}
