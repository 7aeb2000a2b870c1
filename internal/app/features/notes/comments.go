// internal/app/features/notes/comments.go
package notes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/policy/notepolicy"
	notestore "github.com/learnitedu/learnit/internal/app/store/notes"
	"github.com/learnitedu/learnit/internal/app/system/htmlsanitize"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type commentRequest struct {
	Content string `json:"content"`
}

// HandlePostComment adds a comment for callers with comment rights.
// POST /api/notes/{id}/comments
func (h *Handler) HandlePostComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "post comment: bad body", err, "Invalid request body")
		return
	}
	content := htmlsanitize.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		respond.Message(w, http.StatusBadRequest, "Content is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "post comment")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "post comment: fetch note failed", err)
		return
	}

	if !notepolicy.CanComment(id, &note) {
		h.ErrLog.Forbidden(w, r, "comment denied", "Access denied")
		return
	}

	created, err := h.Notes.AddComment(ctx, noteID, models.Comment{
		UserID:  id.ID,
		Content: content,
	})
	if err != nil {
		h.ErrLog.Internal(w, r, "post comment failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdateComment rewrites a comment. Owner or admin only.
// PUT /api/notes/{id}/comments/{commentId}
func (h *Handler) HandleUpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, commentID, ok := h.commentIDs(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "update comment: bad body", err, "Invalid request body")
		return
	}
	content := htmlsanitize.Sanitize(strings.TrimSpace(req.Content))
	if content == "" {
		respond.Message(w, http.StatusBadRequest, "Content is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update comment")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "update comment: fetch note failed", err)
		return
	}

	comment, found := note.CommentByID(commentID)
	if !found {
		h.ErrLog.NotFound(w, r, "Comment not found")
		return
	}
	if !notepolicy.CanModifyComment(id, &comment) {
		h.ErrLog.Forbidden(w, r, "comment update denied", "Access denied")
		return
	}

	if err := h.Notes.UpdateComment(ctx, noteID, commentID, content); err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Comment not found")
			return
		}
		h.ErrLog.Internal(w, r, "update comment failed", err)
		return
	}
	comment.Content = content
	respond.JSON(w, http.StatusOK, comment)
}

// HandleDeleteComment removes a comment. Owner or admin only.
// DELETE /api/notes/{id}/comments/{commentId}
func (h *Handler) HandleDeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, commentID, ok := h.commentIDs(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete comment")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "delete comment: fetch note failed", err)
		return
	}

	comment, found := note.CommentByID(commentID)
	if !found {
		h.ErrLog.NotFound(w, r, "Comment not found")
		return
	}
	if !notepolicy.CanModifyComment(id, &comment) {
		h.ErrLog.Forbidden(w, r, "comment delete denied", "Access denied")
		return
	}

	if err := h.Notes.RemoveComment(ctx, noteID, commentID); err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Comment not found")
			return
		}
		h.ErrLog.Internal(w, r, "delete comment failed", err)
		return
	}
	respond.Message(w, http.StatusOK, "Comment deleted successfully")
}

// commentIDs parses the note and comment IDs from the URL.
func (h *Handler) commentIDs(w http.ResponseWriter, r *http.Request) (noteID, commentID primitive.ObjectID, ok bool) {
	noteID, ok = h.noteID(w, r)
	if !ok {
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	commentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "commentId"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Comment not found")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return noteID, commentID, true
}
