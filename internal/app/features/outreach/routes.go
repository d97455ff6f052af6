// internal/app/features/outreach/routes.go
package outreach

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the outreach log, mounted under
// /outreach.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeLog)
	return r
}
