// internal/app/features/view/routes.go
package view

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /view. Requests must already carry
// a signed-in user and a resolved workspace.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeView)
	r.Post("/", h.HandleSwitch)
	return r
}
