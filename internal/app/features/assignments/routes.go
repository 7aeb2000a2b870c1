// internal/app/features/assignments/routes.go
package assignments

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/assignments.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.HandleList)
		// Ordered before /{id} so chi does not treat "user" as an id.
		r.Get("/user/submissions", h.HandleUserSubmissions)
		r.Get("/{id}", h.HandleGet)
		r.Post("/{id}/submit", h.HandleSubmit)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole("admin"))
		r.Post("/", h.HandleCreate)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Put("/{id}/submissions/{submissionId}/grade", h.HandleGrade)
	})

	return r
}
