// internal/app/features/documents/handler.go
package documents

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	documentstore "github.com/learnitedu/learnit/internal/app/store/documents"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the personal document folder endpoints. Folders are
// owner-scoped: only the creating user may modify one, though every
// signed-in user can browse the public listing.
type Handler struct {
	Documents *documentstore.Store
	Storage   storage.Store
	ErrLog    *respond.ErrorLogger
	Log       *zap.Logger
}

func NewHandler(documents *documentstore.Store, store storage.Store, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Documents: documents, Storage: store, ErrLog: errLog, Log: logger}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	id, ok := authz.IdentityCtx(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return authz.Identity{}, false
	}
	return id, true
}

func (h *Handler) folderID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Document not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// ownedFolder fetches the folder and checks that the caller owns it.
func (h *Handler) ownedFolder(w http.ResponseWriter, r *http.Request, id authz.Identity, folderID primitive.ObjectID) (models.DocumentFolder, bool) {
	f, err := h.Documents.GetByID(r.Context(), folderID)
	if errors.Is(err, documentstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Document not found")
		return models.DocumentFolder{}, false
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "fetch document folder failed", err)
		return models.DocumentFolder{}, false
	}
	if f.CreatedByID != id.ID {
		h.ErrLog.Forbidden(w, r, "document folder access denied", "Not authorized")
		return models.DocumentFolder{}, false
	}
	return f, true
}

type folderRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandleList returns the caller's active folders, newest first.
// GET /api/documents
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list documents")
	defer cancel()

	list, err := h.Documents.List(ctx, id.ID)
	if err != nil {
		h.ErrLog.Internal(w, r, "list documents failed", err)
		return
	}
	if list == nil {
		list = []models.DocumentFolder{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleListPublic returns every active folder, for browsing.
// GET /api/documents/public
func (h *Handler) HandleListPublic(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list public documents")
	defer cancel()

	list, err := h.Documents.List(ctx, primitive.NilObjectID)
	if err != nil {
		h.ErrLog.Internal(w, r, "list public documents failed", err)
		return
	}
	if list == nil {
		list = []models.DocumentFolder{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleCreate creates a folder owned by the caller.
// POST /api/documents
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req folderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "create document folder: bad body", err, "Invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create document folder")
	defer cancel()

	created, err := h.Documents.Create(ctx, models.DocumentFolder{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		CreatedByID: id.ID,
		IsActive:    true,
	})
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			respond.Message(w, http.StatusBadRequest, cmdErr.Message)
			return
		}
		h.ErrLog.Internal(w, r, "create document folder failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdate renames or re-describes a folder. Owner only.
// PUT /api/documents/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}

	var req folderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "update document folder: bad body", err, "Invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update document folder")
	defer cancel()

	if _, ok := h.ownedFolder(w, r, id, folderID); !ok {
		return
	}

	if err := h.Documents.Update(ctx, folderID, strings.TrimSpace(req.Title), req.Description); err != nil {
		h.ErrLog.Internal(w, r, "update document folder failed", err)
		return
	}

	updated, err := h.Documents.GetByID(ctx, folderID)
	if err != nil {
		h.ErrLog.Internal(w, r, "update document folder: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a folder and its stored files. Owner only.
// DELETE /api/documents/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	folderID, ok := h.folderID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "delete document folder")
	defer cancel()

	f, ok := h.ownedFolder(w, r, id, folderID)
	if !ok {
		return
	}

	// Blobs first. A failed blob delete is logged, not fatal: the folder
	// record still goes away and the orphan can be swept later.
	for _, file := range f.Files {
		if err := h.Storage.Delete(ctx, file.Path); err != nil {
			h.Log.Warn("document blob delete failed",
				zap.Error(err), zap.String("path", file.Path))
		}
	}

	if _, err := h.Documents.Delete(ctx, folderID); err != nil {
		h.ErrLog.Internal(w, r, "delete document folder failed", err)
		return
	}
	respond.Message(w, http.StatusOK, "Document deleted successfully")
}
