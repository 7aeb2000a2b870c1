// internal/app/features/quizsubmissions/routes.go
package quizsubmissions

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/quiz-submissions.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Post("/", h.HandleSubmit)
		r.Get("/student/{studentId}", h.HandleListByStudent)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole("admin"))
		r.Get("/", h.HandleListAll)
		// Ordered before /{id} so chi does not treat "stats" as an id.
		r.Get("/stats", h.HandleStats)
		r.Get("/course/{courseId}", h.HandleListByCourse)
		r.Delete("/{id}", h.HandleDelete)
	})

	return r
}
