// internal/app/features/documents/routes.go
package documents

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/documents.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/", h.HandleList)
		// Ordered before /{id} so chi does not treat "public" as an id.
		r.Get("/public", h.HandleListPublic)
		r.Post("/", h.HandleCreate)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)

		r.Post("/{id}/files", h.HandleUploadFiles)
		r.Delete("/{id}/files/{fileId}", h.HandleDeleteFile)
		r.Get("/{id}/files/{fileId}/download", h.HandleDownloadFile)
	})

	return r
}
