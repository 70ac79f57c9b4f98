// internal/app/features/invites/routes.go
package invites

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /join. It must sit behind the
// session loader but not behind RequireSignedIn.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/{groupID}", h.ServeJoin)
	return r
}
