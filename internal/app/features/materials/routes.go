// internal/app/features/materials/routes.go
package materials

import (
	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/system/auth"
)

// Routes returns the subrouter mounted under /api/materials.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSignedIn)
		r.Get("/folders", h.HandleListFolders)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireRole("admin", "educator"))
		r.Post("/folders", h.HandleCreateFolder)
		r.Put("/folders/{id}", h.HandleUpdateFolder)
		r.Delete("/folders/{id}", h.HandleDeleteFolder)
		r.Post("/folders/{id}/files", h.HandleUploadFiles)
		r.Delete("/folders/{folderId}/files/{fileId}", h.HandleDeleteFile)
	})

	return r
}
