// internal/app/features/notes/notes.go
package notes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/learnitedu/learnit/internal/app/policy/notepolicy"
	coursestore "github.com/learnitedu/learnit/internal/app/store/courses"
	notestore "github.com/learnitedu/learnit/internal/app/store/notes"
	"github.com/learnitedu/learnit/internal/app/system/htmlsanitize"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleStatsPublic returns the public note count with no auth.
// GET /api/notes/stats/public
func (h *Handler) HandleStatsPublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "note stats public")
	defer cancel()

	total, err := h.Notes.CountPublic(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "note stats failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]int64{"totalNotes": total})
}

// HandleList returns the notes visible to the caller, filtered by the
// course, search, and tags query parameters.
// GET /api/notes
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var filter notestore.Filter
	if course := r.URL.Query().Get("course"); course != "" {
		cid, err := primitive.ObjectIDFromHex(course)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "Invalid course id")
			return
		}
		filter.CourseID = &cid
	}
	filter.Search = r.URL.Query().Get("search")
	if tags := r.URL.Query().Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				filter.Tags = append(filter.Tags, t)
			}
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list notes")
	defer cancel()

	notes, err := h.Notes.ListVisible(ctx, id, filter)
	if err != nil {
		h.ErrLog.Internal(w, r, "list notes failed", err)
		return
	}
	if notes == nil {
		notes = []models.Note{}
	}
	respond.JSON(w, http.StatusOK, notes)
}

// HandleGet returns one note if the caller may view it, and counts the view.
// GET /api/notes/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get note")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "get note failed", err)
		return
	}

	if !notepolicy.CanView(id, &note) {
		h.ErrLog.Forbidden(w, r, "note view denied", "Access denied")
		return
	}

	// Every permitted read counts, reloads included.
	if err := h.Notes.IncViewCount(ctx, noteID); err != nil {
		h.Log.Warn("view count increment failed",
			zap.Error(err), zap.String("note_id", noteID.Hex()))
	} else {
		note.ViewCount++
	}

	respond.JSON(w, http.StatusOK, note)
}

type noteRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	CourseID string   `json:"courseId"`
	Tags     []string `json:"tags"`
	IsPublic *bool    `json:"isPublic"`
}

// HandleCreate creates a note owned by the caller. Admin only (route group).
// POST /api/notes
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "create note: bad body", err, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respond.Message(w, http.StatusBadRequest, "Title is required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create note")
	defer cancel()

	note := models.Note{
		Title:    strings.TrimSpace(req.Title),
		Content:  htmlsanitize.Sanitize(req.Content),
		AuthorID: id.ID,
		Tags:     req.Tags,
		IsPublic: true,
	}
	if req.IsPublic != nil {
		note.IsPublic = *req.IsPublic
	}
	if req.CourseID != "" {
		cid, err := primitive.ObjectIDFromHex(req.CourseID)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "Invalid course id")
			return
		}
		if _, err := h.Courses.GetByID(ctx, cid); err != nil {
			if errors.Is(err, coursestore.ErrNotFound) {
				h.ErrLog.NotFound(w, r, "Course not found")
				return
			}
			h.ErrLog.Internal(w, r, "create note: course lookup failed", err)
			return
		}
		note.CourseID = &cid
	}

	created, err := h.Notes.Create(ctx, note)
	if err != nil {
		h.ErrLog.Internal(w, r, "create note failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdate edits a note for callers holding edit rights.
// PUT /api/notes/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	var req noteRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "update note: bad body", err, "Invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update note")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "update note: fetch failed", err)
		return
	}

	if !notepolicy.CanEdit(id, &note) {
		h.ErrLog.Forbidden(w, r, "note edit denied", "Access denied")
		return
	}

	mut := models.Note{
		Title:    strings.TrimSpace(req.Title),
		Content:  htmlsanitize.Sanitize(req.Content),
		Tags:     req.Tags,
		IsPublic: note.IsPublic,
	}
	if req.IsPublic != nil {
		mut.IsPublic = *req.IsPublic
	}
	if req.CourseID != "" {
		cid, err := primitive.ObjectIDFromHex(req.CourseID)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "Invalid course id")
			return
		}
		mut.CourseID = &cid
	}

	if err := h.Notes.Update(ctx, noteID, mut); err != nil {
		if errors.Is(err, notestore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Note not found")
			return
		}
		h.ErrLog.Internal(w, r, "update note failed", err)
		return
	}

	updated, err := h.Notes.GetByID(ctx, noteID)
	if err != nil {
		h.ErrLog.Internal(w, r, "update note: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a note. Only admins and the author get this far.
// DELETE /api/notes/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	noteID, ok := h.noteID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete note")
	defer cancel()

	note, err := h.Notes.GetByID(ctx, noteID)
	if errors.Is(err, notestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Note not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "delete note: fetch failed", err)
		return
	}

	if !notepolicy.CanDelete(id, &note) {
		h.ErrLog.Forbidden(w, r, "note delete denied", "Access denied")
		return
	}

	if _, err := h.Notes.Delete(ctx, noteID); err != nil {
		h.ErrLog.Internal(w, r, "delete note failed", err)
		return
	}
	respond.Message(w, http.StatusOK, "Note deleted successfully")
}
