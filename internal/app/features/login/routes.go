// internal/app/features/login/routes.go
package login

import "github.com/go-chi/chi/v5"

// Routes returns the router mounted at /auth. The Google and logout routers
// are mounted under it by the caller.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeAuth)
	r.Post("/signup", h.HandleSignUp)
	r.Post("/login", h.HandleSignIn)
	return r
}
