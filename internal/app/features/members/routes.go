// internal/app/features/members/routes.go
package members

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the member directory, mounted under
// /members.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/roles/assignable", h.ServeAssignableRoles)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Put("/role", h.ServeUpdateRole)
		r.Put("/chapters", h.ServeUpdateChapters)
		r.Put("/organiser-of", h.ServeUpdateOrganiserOf)
		r.Delete("/", h.ServeDelete)
		r.Get("/notes", h.ServeListNotes)
		r.Post("/notes", h.ServeAddNote)
		r.Post("/badges", h.ServeAwardBadge)
	})

	return r
}
