// internal/app/features/login/routes.go
package login

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/profile", h.HandleProfile)
		r.Put("/profile", h.HandleUpdateProfile)
		// The SPA calls this as "me"; same payload as profile.
		r.Get("/me", h.HandleProfile)
	})

	return r
}
