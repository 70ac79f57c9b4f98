// internal/app/features/groups/routes.go
package groups

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns the router mounted at /groups. Callers put it behind
// RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Get("/stream", h.ServeListStream)

	r.Delete("/{groupID}", h.HandleLeave)
	r.Get("/{groupID}/members", h.ServeMembers)
	r.Get("/{groupID}/members/stream", h.ServeMembersStream)

	return r
}
