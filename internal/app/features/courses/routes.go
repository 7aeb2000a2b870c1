// internal/app/features/courses/routes.go
package courses

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/courses.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Post("/{id}/enroll", h.HandleEnroll)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole("admin"))
		r.Post("/", h.HandleCreate)
		r.Delete("/{id}", h.HandleDelete)
	})

	return r
}
