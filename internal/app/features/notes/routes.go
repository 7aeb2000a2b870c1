// internal/app/features/notes/routes.go
package notes

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/notes.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Ordered before /{id} so chi does not treat "stats" as a note id.
	r.Get("/stats/public", h.HandleStatsPublic)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.HandleList)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)

		r.Post("/{id}/comments", h.HandlePostComment)
		r.Put("/{id}/comments/{commentId}", h.HandleUpdateComment)
		r.Delete("/{id}/comments/{commentId}", h.HandleDeleteComment)

		r.Post("/{id}/share", h.HandleShare)
		r.Delete("/{id}/share/{userId}", h.HandleUnshare)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole("admin"))
		r.Post("/", h.HandleCreate)
	})

	return r
}
