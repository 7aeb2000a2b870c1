// internal/app/features/courses/handler.go
package courses

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	coursestore "github.com/learnitedu/learnit/internal/app/store/courses"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the course endpoints.
type Handler struct {
	Courses *coursestore.Store
	ErrLog  *respond.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(courses *coursestore.Store, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Courses: courses, ErrLog: errLog, Log: logger}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	id, ok := authz.IdentityCtx(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return authz.Identity{}, false
	}
	return id, true
}

func (h *Handler) courseID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Course not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

type courseRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Code        string    `json:"code"`
	Instructor  string    `json:"instructor"`
	Category    string    `json:"category"`
	Level       string    `json:"level"`
	MaxStudents int       `json:"maxStudents"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsActive    *bool     `json:"isActive"`
}

// HandleList returns the active courses, newest first.
// GET /api/courses
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list courses")
	defer cancel()

	list, err := h.Courses.List(ctx, true)
	if err != nil {
		h.ErrLog.Internal(w, r, "list courses failed", err)
		return
	}
	if list == nil {
		list = []models.Course{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleGet returns one course.
// GET /api/courses/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	id, ok := h.courseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "get course")
	defer cancel()

	c, err := h.Courses.GetByID(ctx, id)
	if errors.Is(err, coursestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Course not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "get course failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// HandleCreate creates a course. Admin only (route group). The caller
// becomes the instructor unless the body names another user.
// POST /api/courses
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req courseRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "create course: bad body", err, "Invalid request body")
		return
	}

	instructorID := id.ID
	if req.Instructor != "" {
		iid, err := primitive.ObjectIDFromHex(req.Instructor)
		if err != nil {
			respond.Message(w, http.StatusBadRequest, "Invalid instructor id")
			return
		}
		instructorID = iid
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create course")
	defer cancel()

	created, err := h.Courses.Create(ctx, models.Course{
		Title:        strings.TrimSpace(req.Title),
		Description:  req.Description,
		Code:         req.Code,
		InstructorID: instructorID,
		Category:     req.Category,
		Level:        req.Level,
		MaxStudents:  req.MaxStudents,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, coursestore.ErrDuplicateCode) {
			respond.Message(w, http.StatusBadRequest, "Course with this code already exists")
			return
		}
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			respond.Message(w, http.StatusBadRequest, cmdErr.Message)
			return
		}
		h.ErrLog.Internal(w, r, "create course failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleUpdate modifies a course. Admins and the course's own instructor
// may edit; everyone else is refused.
// PUT /api/courses/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	var req courseRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "update course: bad body", err, "Invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update course")
	defer cancel()

	c, err := h.Courses.GetByID(ctx, courseID)
	if errors.Is(err, coursestore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Course not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "update course: fetch failed", err)
		return
	}

	if id.Role != authz.RoleAdmin && c.InstructorID != id.ID {
		h.ErrLog.Forbidden(w, r, "course update denied", "Access denied")
		return
	}

	mut := models.Course{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Code:        req.Code,
		Category:    req.Category,
		Level:       req.Level,
		MaxStudents: req.MaxStudents,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    c.IsActive,
	}
	if req.IsActive != nil {
		mut.IsActive = *req.IsActive
	}

	if err := h.Courses.Update(ctx, courseID, mut); err != nil {
		switch {
		case errors.Is(err, coursestore.ErrNotFound):
			h.ErrLog.NotFound(w, r, "Course not found")
		case errors.Is(err, coursestore.ErrDuplicateCode):
			respond.Message(w, http.StatusBadRequest, "Course with this code already exists")
		default:
			h.ErrLog.Internal(w, r, "update course failed", err)
		}
		return
	}

	updated, err := h.Courses.GetByID(ctx, courseID)
	if err != nil {
		h.ErrLog.Internal(w, r, "update course: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// HandleDelete removes a course. Admin only (route group).
// DELETE /api/courses/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	id, ok := h.courseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete course")
	defer cancel()

	deleted, err := h.Courses.Delete(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, r, "delete course failed", err)
		return
	}
	if deleted == 0 {
		h.ErrLog.NotFound(w, r, "Course not found")
		return
	}
	respond.Message(w, http.StatusOK, "Course deleted successfully")
}

// HandleEnroll adds the caller to the course roster.
// POST /api/courses/{id}/enroll
func (h *Handler) HandleEnroll(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	courseID, ok := h.courseID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "enroll in course")
	defer cancel()

	err := h.Courses.Enroll(ctx, courseID, id.ID)
	switch {
	case err == nil:
		respond.Message(w, http.StatusOK, "Enrolled successfully")
	case errors.Is(err, coursestore.ErrNotFound):
		h.ErrLog.NotFound(w, r, "Course not found")
	case errors.Is(err, coursestore.ErrInactive):
		respond.Message(w, http.StatusBadRequest, "Course is not active")
	case errors.Is(err, coursestore.ErrAlreadyEnrolled):
		respond.Message(w, http.StatusBadRequest, "Already enrolled in this course")
	case errors.Is(err, coursestore.ErrFull):
		respond.Message(w, http.StatusBadRequest, "Course is full")
	default:
		h.ErrLog.Internal(w, r, "enroll failed", err)
	}
}
