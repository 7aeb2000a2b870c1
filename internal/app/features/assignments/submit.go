// internal/app/features/assignments/submit.go
package assignments

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/app/policy/submitpolicy"
	assignmentstore "github.com/learnitedu/learnit/internal/app/store/assignments"
	"github.com/learnitedu/learnit/internal/app/system/hosturl"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/app/system/uploads"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// submitStatus maps a policy rejection kind onto an HTTP status.
func submitStatus(kind submitpolicy.Kind) int {
	switch kind {
	case submitpolicy.KindForbidden, submitpolicy.KindInactiveResource:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// HandleSubmit records a student's submission. The request is either
// multipart form data carrying a file, or JSON/form fields carrying a URL.
// The file is written to storage only after the policy admits the
// submission, so rejected attempts leave nothing behind.
// POST /api/assignments/{id}/submit
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	assignmentID, ok := h.assignmentID(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "submit assignment")
	defer cancel()

	a, err := h.Assignments.GetByID(ctx, assignmentID)
	if errors.Is(err, assignmentstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Assignment not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "submit: fetch assignment failed", err)
		return
	}

	payload, file, ok := h.parseSubmission(w, r, &a)
	if !ok {
		return
	}
	if file != nil {
		defer file.Close()
	}

	sub, rejection := submitpolicy.Admit(id, &a, payload, time.Now())
	if rejection != nil {
		respond.Message(w, submitStatus(rejection.Kind), rejection.Message)
		return
	}

	if file != nil {
		stored, err := uploads.Save(ctx, h.Storage, "assignments", payload.File.FileName,
			file, payload.File.Size, "")
		if err != nil {
			h.ErrLog.Internal(w, r, "submit: store file failed", err)
			return
		}
		sub.FileURL = h.Storage.URL(stored.Path)

		if err := h.Assignments.AppendSubmission(ctx, assignmentID, sub); err != nil {
			// A concurrent submission won; drop the orphaned file.
			if delErr := h.Storage.Delete(ctx, stored.Path); delErr != nil {
				h.Log.Warn("orphaned upload cleanup failed",
					zap.Error(delErr), zap.String("path", stored.Path))
			}
			h.appendError(w, r, err)
			return
		}
	} else if err := h.Assignments.AppendSubmission(ctx, assignmentID, sub); err != nil {
		h.appendError(w, r, err)
		return
	}

	sub.FileURL = hosturl.Rewrite(sub.FileURL, hosturl.RequestBase(r))
	respond.JSON(w, http.StatusCreated, sub)
}

func (h *Handler) appendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, assignmentstore.ErrNotFound):
		h.ErrLog.NotFound(w, r, "Assignment not found")
	case errors.Is(err, assignmentstore.ErrDuplicateSubmission):
		respond.Message(w, http.StatusBadRequest, "You have already submitted this assignment")
	default:
		h.ErrLog.Internal(w, r, "submit: append failed", err)
	}
}

// parseSubmission extracts the candidate payload from either a multipart
// upload or a JSON body. The returned file, when non-nil, is open and
// positioned at the start; the caller closes it.
func (h *Handler) parseSubmission(w http.ResponseWriter, r *http.Request, a *models.Assignment) (submitpolicy.Payload, multipart.File, bool) {
	var p submitpolicy.Payload

	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		var body struct {
			URL      string `json:"url"`
			Comments string `json:"comments"`
		}
		if err := h.decode(w, r, &body); err != nil {
			h.ErrLog.BadRequest(w, r, "submit: bad body", err, "Invalid request body")
			return p, nil, false
		}
		p.URL = body.URL
		p.Comments = body.Comments
		return p, nil, true
	}

	maxSize := limits.AssignmentUploadSize(a.MaxFileSizeMB)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+limits.MultipartMemorySize)
	if err := r.ParseMultipartForm(limits.MultipartMemorySize); err != nil {
		h.ErrLog.BadRequest(w, r, "submit: bad multipart form", err, "Invalid upload")
		return p, nil, false
	}

	p.URL = r.FormValue("url")
	p.Comments = r.FormValue("comments")

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return p, nil, true
	}
	if err != nil {
		h.ErrLog.BadRequest(w, r, "submit: bad file field", err, "Invalid upload")
		return p, nil, false
	}
	if header.Size > maxSize {
		file.Close()
		respond.Message(w, http.StatusBadRequest,
			fmt.Sprintf("File too large. Maximum size: %d MB", a.MaxFileSizeMB))
		return p, nil, false
	}

	p.File = &submitpolicy.FilePayload{
		FileName: header.Filename,
		Size:     header.Size,
	}
	return p, file, true
}

type gradeRequest struct {
	Grade    float64 `json:"grade"`
	Feedback string  `json:"feedback"`
}

// HandleGrade records grade and feedback on a submission. Admin only
// (route group).
// PUT /api/assignments/{id}/submissions/{submissionId}/grade
func (h *Handler) HandleGrade(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.identity(w, r); !ok {
		return
	}
	assignmentID, ok := h.assignmentID(w, r)
	if !ok {
		return
	}
	submissionID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "submissionId"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Submission not found")
		return
	}

	var req gradeRequest
	if err := h.decode(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "grade: bad body", err, "Invalid request body")
		return
	}
	if req.Grade < 0 || req.Grade > 100 {
		respond.Message(w, http.StatusBadRequest, "Grade must be between 0 and 100")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "grade submission")
	defer cancel()

	a, err := h.Assignments.GetByID(ctx, assignmentID)
	if errors.Is(err, assignmentstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "Assignment not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "grade: fetch assignment failed", err)
		return
	}
	if _, found := a.SubmissionByID(submissionID); !found {
		h.ErrLog.NotFound(w, r, "Submission not found")
		return
	}

	if err := h.Assignments.GradeSubmission(ctx, assignmentID, submissionID, req.Grade, req.Feedback); err != nil {
		if errors.Is(err, assignmentstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "Submission not found")
			return
		}
		h.ErrLog.Internal(w, r, "grade submission failed", err)
		return
	}

	graded, err := h.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		h.ErrLog.Internal(w, r, "grade: reload failed", err)
		return
	}
	sub, _ := graded.SubmissionByID(submissionID)
	sub.FileURL = hosturl.Rewrite(sub.FileURL, hosturl.RequestBase(r))
	respond.JSON(w, http.StatusOK, sub)
}

// userSubmission pairs a student's submission with a summary of its
// assignment.
type userSubmission struct {
	Assignment assignmentSummary `json:"assignment"`
	Submission models.Submission `json:"submission"`
}

type assignmentSummary struct {
	ID          primitive.ObjectID `json:"id"`
	Title       string             `json:"title"`
	DueDate     time.Time          `json:"dueDate"`
	CreatedByID primitive.ObjectID `json:"createdById"`
}

// HandleUserSubmissions returns the caller's submissions across all
// assignments.
// GET /api/assignments/user/submissions
func (h *Handler) HandleUserSubmissions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list user submissions")
	defer cancel()

	list, err := h.Assignments.ListWithSubmissionBy(ctx, id.ID)
	if err != nil {
		h.ErrLog.Internal(w, r, "list user submissions failed", err)
		return
	}

	base := hosturl.RequestBase(r)
	out := make([]userSubmission, 0, len(list))
	for i := range list {
		sub, found := list[i].SubmissionBy(id.ID)
		if !found {
			continue
		}
		sub.FileURL = hosturl.Rewrite(sub.FileURL, base)
		out = append(out, userSubmission{
			Assignment: assignmentSummary{
				ID:          list[i].ID,
				Title:       list[i].Title,
				DueDate:     list[i].DueDate,
				CreatedByID: list[i].CreatedByID,
			},
			Submission: sub,
		})
	}
	respond.JSON(w, http.StatusOK, out)
}
