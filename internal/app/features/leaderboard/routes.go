// internal/app/features/leaderboard/routes.go
package leaderboard

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the leaderboard, mounted under
// /leaderboard.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
