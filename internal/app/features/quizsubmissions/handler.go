// internal/app/features/quizsubmissions/handler.go
package quizsubmissions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	quizresultstore "github.com/learnitedu/learnit/internal/app/store/quizresults"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the quiz submission endpoints. Quizzes themselves live in
// the client; the server only records and reports scored attempts.
type Handler struct {
	Results *quizresultstore.Store
	ErrLog  *respond.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(results *quizresultstore.Store, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Results: results, ErrLog: errLog, Log: logger}
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	id, ok := authz.IdentityCtx(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return authz.Identity{}, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

type submissionRequest struct {
	CourseID       string              `json:"courseId"`
	CourseName     string              `json:"courseName"`
	Score          *int                `json:"score"`
	TotalQuestions int                 `json:"totalQuestions"`
	TimeSpent      int                 `json:"timeSpent"`
	AttemptNumber  int                 `json:"attemptNumber"`
	MaxAttempts    int                 `json:"maxAttempts"`
	Answers        []models.QuizAnswer `json:"answers"`
}

// HandleSubmit records the caller's scored quiz attempt. A student may hold
// at most one result per course.
// POST /api/quiz-submissions
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req submissionRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "submit quiz: bad body", err, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.CourseID) == "" || req.Score == nil || req.TotalQuestions <= 0 {
		respond.Message(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "submit quiz")
	defer cancel()

	created, err := h.Results.Create(ctx, models.QuizResult{
		StudentID:      id.ID,
		CourseID:       req.CourseID,
		CourseName:     req.CourseName,
		Score:          *req.Score,
		TotalQuestions: req.TotalQuestions,
		TimeSpent:      req.TimeSpent,
		AttemptNumber:  req.AttemptNumber,
		MaxAttempts:    req.MaxAttempts,
		Answers:        req.Answers,
	})
	if errors.Is(err, quizresultstore.ErrDuplicateResult) {
		respond.Message(w, http.StatusBadRequest, "You have already submitted this quiz")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "submit quiz failed", err)
		return
	}
	respond.JSON(w, http.StatusCreated, created)
}

// HandleListAll returns every recorded result. Admin only (route group).
// GET /api/quiz-submissions
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list quiz results")
	defer cancel()

	list, err := h.Results.List(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "list quiz results failed", err)
		return
	}
	if list == nil {
		list = []models.QuizResult{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleListByStudent returns one student's results. Students may only read
// their own; admins may read anyone's.
// GET /api/quiz-submissions/student/{studentId}
func (h *Handler) HandleListByStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	studentID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "studentId"))
	if err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid student id")
		return
	}
	if id.Role != authz.RoleAdmin && studentID != id.ID {
		h.ErrLog.Forbidden(w, r, "quiz results read denied", "Access denied")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list student quiz results")
	defer cancel()

	list, err := h.Results.ListByStudent(ctx, studentID)
	if err != nil {
		h.ErrLog.Internal(w, r, "list student quiz results failed", err)
		return
	}
	if list == nil {
		list = []models.QuizResult{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleListByCourse returns every result for a course. Admin only (route
// group).
// GET /api/quiz-submissions/course/{courseId}
func (h *Handler) HandleListByCourse(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list course quiz results")
	defer cancel()

	list, err := h.Results.ListByCourse(ctx, chi.URLParam(r, "courseId"))
	if err != nil {
		h.ErrLog.Internal(w, r, "list course quiz results failed", err)
		return
	}
	if list == nil {
		list = []models.QuizResult{}
	}
	respond.JSON(w, http.StatusOK, list)
}

// HandleStats summarizes all results for the admin dashboard. With no
// results yet, every figure is zero.
// GET /api/quiz-submissions/stats
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "quiz stats")
	defer cancel()

	stats, err := h.Results.ComputeStats(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "quiz stats failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"totalSubmissions":  stats.Total,
		"passedSubmissions": stats.Passed,
		"failedSubmissions": stats.Failed,
		"averageScore":      stats.AverageScore,
		"firstAttempts":     stats.FirstAttempts,
		"retakes":           stats.Retakes,
	})
}

// HandleDelete removes a recorded result. Admin only (route group).
// DELETE /api/quiz-submissions/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Quiz submission not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete quiz result")
	defer cancel()

	err = h.Results.Delete(ctx, id)
	if errors.Is(err, quizresultstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Quiz submission not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "delete quiz result failed", err)
		return
	}
	respond.Message(w, http.StatusOK, "Quiz submission deleted successfully")
}
