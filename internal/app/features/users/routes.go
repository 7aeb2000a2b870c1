// internal/app/features/users/routes.go
package users

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/users.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Ordered before /{id} so chi does not treat "stats" as a user id.
	r.Get("/stats/public", h.HandleStatsPublic)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/stats/basic", h.HandleStatsBasic)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole("admin"))
		r.Get("/", h.HandleList)
		r.Get("/stats/overview", h.HandleStatsOverview)
		r.Delete("/{id}", h.HandleDelete)
	})

	return r
}
