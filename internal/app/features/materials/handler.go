// internal/app/features/materials/handler.go
package materials

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	materialstore "github.com/learnitedu/learnit/internal/app/store/materials"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the shared teaching-material endpoints. Admins and
// educators manage folders; every signed-in user can browse them. The
// manage/browse split lives in the route groups.
type Handler struct {
	Materials *materialstore.Store
	Storage   storage.Store
	ErrLog    *respond.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(materials *materialstore.Store, store storage.Store, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Materials: materials, Storage: store, ErrLog: errLog, Log: logger}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	id, ok := authz.IdentityCtx(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return authz.Identity{}, false
	}
	return id, true
}

func (h *Handler) folderID(w http.ResponseWriter, r *http.Request, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, param))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Folder not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

type folderRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleListFolders returns every material folder, newest first.
// GET /api/materials/folders
func (h *Handler) HandleListFolders(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list material folders")
	defer cancel()

	list, err := h.Materials.List(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "list material folders failed", err)
		return
	}
	if list == nil {
		list = []models.MaterialFolder{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleCreateFolder creates a material folder. Admin/educator only
// (route group).
// POST /api/materials/folders
func (h *Handler) HandleCreateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req folderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "create material folder: bad body", err, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respond.Message(w, http.StatusBadRequest, "Title is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create material folder")
	defer cancel()

	created, err := h.Materials.Create(ctx, models.MaterialFolder{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CreatedByID: id.ID,
	})
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			respond.Message(w, http.StatusBadRequest, cmdErr.Message)
			return
		}
		h.ErrLog.Internal(w, r, "create material folder failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdateFolder renames or re-describes a folder. Admin/educator only
// (route group).
// PUT /api/materials/folders/{id}
func (h *Handler) HandleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	folderID, ok := h.folderID(w, r, "id")
	if !ok {
		return
	}

	var req folderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "update material folder: bad body", err, "Invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update material folder")
	defer cancel()

	if err := h.Materials.Update(ctx, folderID, strings.TrimSpace(req.Title), req.Description); err != nil {
		if errors.Is(err, materialstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Folder not found")
			return
		}
		h.ErrLog.Internal(w, r, "update material folder failed", err)
		return
	}

	updated, err := h.Materials.GetByID(ctx, folderID)
	if err != nil {
		h.ErrLog.Internal(w, r, "update material folder: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDeleteFolder removes a folder and its stored files. Admin/educator
// only (route group).
// DELETE /api/materials/folders/{id}
func (h *Handler) HandleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	folderID, ok := h.folderID(w, r, "id")
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete material folder")
	defer cancel()

	f, err := h.Materials.GetByID(ctx, folderID)
	if errors.Is(err, materialstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Folder not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "delete material folder: fetch failed", err)
		return
	}

	for _, file := range f.Files {
		if err := h.Storage.Delete(ctx, file.Path); err != nil {
			h.Log.Warn("material blob delete failed",
				zap.Error(err), zap.String("path", file.Path))
		}
	}

	if _, err := h.Materials.Delete(ctx, folderID); err != nil {
		h.ErrLog.Internal(w, r, "delete material folder failed", err)
		return
	}
	respond.Message(w, http.StatusOK, "Folder deleted")
}
