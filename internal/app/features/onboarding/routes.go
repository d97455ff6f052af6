// internal/app/features/onboarding/routes.go
package onboarding

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter for the onboarding pipeline, mounted under
// /onboarding. Registration is public; everything else checks the actor
// inside the handler.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/register", h.ServeRegister)
	r.Post("/fix", h.ServeFix)

	r.Route("/{id}", func(r chi.Router) {
		r.Post("/approve", h.ServeApprove)
		r.Post("/deny", h.ServeDeny)
		r.Post("/deactivate", h.ServeDeactivate)
		r.Post("/schedule-call", h.ServeScheduleCall)
		r.Post("/complete-call", h.ServeCompleteCall)
		r.Post("/masterclass", h.ServeMasterclass)
		r.Post("/advance", h.ServeAdvance)
		r.Get("/validate", h.ServeValidate)
	})

	return r
}
