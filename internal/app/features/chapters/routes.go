// internal/app/features/chapters/routes.go
package chapters

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the chapter registry, mounted under
// /chapters.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Put("/", h.ServeUpdate)
		r.Delete("/", h.ServeDelete)
		r.Put("/inventory", h.ServeSetInventory)
	})

	return r
}
