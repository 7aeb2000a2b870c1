// internal/app/features/notes/share.go
package notes

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	notestore "github.com/learnitedu/learnit/internal/app/store/notes"
	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type shareRequest struct {
	UserID     string `json:"userId"`
	AccessType string `json:"accessType"`
}

// HandleShare grants another user access to a note. Author or admin only.
// POST /api/notes/{id}/share
func (h *Handler) HandleShare(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	var req shareRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "share note: bad body", err, "Invalid request body")
		return
	}
	if !models.IsValidAccessType(req.AccessType) {
		respond.Message(w, http.StatusBadRequest, "Invalid access type")
		return
	}
	granteeID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		h.ErrLog.NotFound(w, r, "User not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "share note")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "share note: fetch failed", err)
		return
	}

	// Sharing is reserved for the author and admins; an edit grant does
	// not let its holder extend access to others.
	if id.Role != authz.RoleAdmin && note.AuthorID != id.ID {
		h.ErrLog.Forbidden(w, r, "share denied", "Access denied")
		return
	}

	if _, err := h.Users.GetByID(ctx, granteeID); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "User not found")
			return
		}
		h.ErrLog.Internal(w, r, "share note: user lookup failed", err)
		return
	}

	if err := h.Notes.SetGrant(ctx, noteID, models.AccessGrant{
		UserID:     granteeID,
		AccessType: req.AccessType,
		GrantedAt:  time.Now().UTC(),
	}); err != nil {
		h.ErrLog.Internal(w, r, "share note failed", err)
		return
	}
	respond.Message(w, http.StatusOK, "Note shared successfully")
}

// HandleUnshare revokes a user's grant on a note. Author or admin only.
// DELETE /api/notes/{id}/share/{userId}
func (h *Handler) HandleUnshare(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}
	granteeID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userId"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "User not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "unshare note")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "unshare note: fetch failed", err)
		return
	}

	if id.Role != authz.RoleAdmin && note.AuthorID != id.ID {
		h.ErrLog.Forbidden(w, r, "unshare denied", "Access denied")
		return
	}

	if err := h.Notes.RevokeGrant(ctx, noteID, granteeID); err != nil {
		h.ErrLog.Internal(w, r, "unshare note failed", err)
		return
	}
	respond.Message(w, http.StatusOK, "Access revoked successfully")
}
