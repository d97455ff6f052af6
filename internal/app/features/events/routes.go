// internal/app/features/events/routes.go
package events

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for cube events, mounted under /events.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)

	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.ServeGet)
		r.Put("/", h.ServeUpdate)
		r.Post("/cancel", h.ServeCancel)
		r.Post("/rsvp", h.ServeRSVP)
		r.Post("/report", h.ServeLogReport)
		r.Delete("/participants/{userID}", h.ServeRemoveParticipant)
		r.Put("/participants/{userID}/duties", h.ServeSetTourDuties)
	})

	return r
}
