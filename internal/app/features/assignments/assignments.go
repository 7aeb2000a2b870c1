// internal/app/features/assignments/assignments.go
package assignments

import (
	"errors"
	"net/http"
	"strings"
	"time"

	assignmentstore "github.com/learnitedu/learnit/internal/app/store/assignments"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type assignmentRequest struct {
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	FileType          string        `json:"fileType"`
	DueDate           time.Time     `json:"dueDate"`
	MaxFileSize       int           `json:"maxFileSize"`
	AllowedExtensions extensionList `json:"allowedExtensions"`
	IsActive          *bool         `json:"isActive"`
}

// HandleList returns assignments: all of them for admins, active ones for
// everyone else.
// GET /api/assignments
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list assignments")
	defer cancel()

	list, err := h.Assignments.List(ctx, !authz.IsAdminReq(r))
	if err != nil {
		h.ErrLog.Internal(w, r, "list assignments failed", err)
		return
	}
	for i := range list {
		h.present(r, &list[i])
	}
	if list == nil {
		list = []models.Assignment{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleGet returns one assignment. Inactive assignments are admin-only.
// GET /api/assignments/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get assignment")
	defer cancel()

	a, err := h.Assignments.GetByID(ctx, id)
	if errors.Is(err, assignmentstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Assignment not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "get assignment failed", err)
		return
	}

	if !a.IsActive && !authz.IsAdminReq(r) {
		h.ErrLog.Forbidden(w, r, "inactive assignment requested", "Assignment not available")
		return
	}

	h.present(r, &a)
	respond.JSON(w, http.StatusOK, a)
}

// HandleCreate creates an assignment. Admin only (route group).
// POST /api/assignments
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req assignmentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "create assignment: bad body", err, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respond.Message(w, http.StatusBadRequest, "Title is required")
		return
	}
	if !models.IsValidFileType(req.FileType) {
		respond.Message(w, http.StatusBadRequest, "Invalid file type")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create assignment")
	defer cancel()

	created, err := h.Assignments.Create(ctx, models.Assignment{
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		FileType:          req.FileType,
		DueDate:           req.DueDate,
		MaxFileSizeMB:     req.MaxFileSize,
		AllowedExtensions: req.AllowedExtensions,
		IsActive:          true,
		CreatedByID:       id.ID,
	})
	if err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			respond.Message(w, http.StatusBadRequest, cmdErr.Message)
			return
		}
		h.ErrLog.Internal(w, r, "create assignment failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdate modifies assignment settings. Admin only (route group).
// PUT /api/assignments/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	var req assignmentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "update assignment: bad body", err, "Invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update assignment")
	defer cancel()

	current, err := h.Assignments.GetByID(ctx, id)
	if errors.Is(err, assignmentstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Assignment not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "update assignment: fetch failed", err)
		return
	}

	mut := models.Assignment{
		Title:             strings.TrimSpace(req.Title),
		Description:       req.Description,
		FileType:          req.FileType,
		DueDate:           req.DueDate,
		MaxFileSizeMB:     req.MaxFileSize,
		AllowedExtensions: req.AllowedExtensions,
		IsActive:          current.IsActive,
	}
	if req.IsActive != nil {
		mut.IsActive = *req.IsActive
	}

	if err := h.Assignments.Update(ctx, id, mut); err != nil {
		if errors.Is(err, assignmentstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Assignment not found")
			return
		}
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			respond.Message(w, http.StatusBadRequest, cmdErr.Message)
			return
		}
		h.ErrLog.Internal(w, r, "update assignment failed", err)
		return
	}

	updated, err := h.Assignments.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, r, "update assignment: reload failed", err)
		return
	}
	h.present(r, &updated)
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes an assignment. Admin only (route group).
// DELETE /api/assignments/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	id, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete assignment")
	defer cancel()

	deleted, err := h.Assignments.Delete(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, r, "delete assignment failed", err)
		return
	}
	if deleted == 0 {
		h.ErrLog.NotFound(w, r, "Assignment not found")
		return
	}
	respond.Message(w, http.StatusOK, "Assignment deleted successfully")
}
