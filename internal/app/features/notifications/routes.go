// internal/app/features/notifications/routes.go
package notifications

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the notification feed, mounted under
// /notifications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Post("/read-all", h.ServeMarkAllRead)
	r.Post("/{id}/read", h.ServeMarkRead)

	return r
}
