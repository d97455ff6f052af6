// internal/app/features/announcements/routes.go
package announcements

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the announcement feed, mounted under
// /announcements.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Get("/scopes", h.ServeScopes)
	r.Delete("/{id}", h.ServeDelete)

	return r
}
