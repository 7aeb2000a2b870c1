// internal/app/features/assignments/handler.go
package assignments

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/go-chi/chi/v5"
	assignmentstore "github.com/learnitedu/learnit/internal/app/store/assignments"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/hosturl"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the assignment endpoints. Admission of student
// submissions is decided by submitpolicy; the conditional append in the
// store closes the concurrent-duplicate race the policy cannot see.
type Handler struct {
	Assignments *assignmentstore.Store
	Storage     storage.Store
	ErrLog      *respond.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(assignments *assignmentstore.Store, store storage.Store, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Assignments: assignments, Storage: store, ErrLog: errLog, Log: logger}
}

// identity pulls the caller's identity or writes a 401.
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (authz.Identity, bool) {
	id, ok := authz.IdentityCtx(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return authz.Identity{}, false
	}
	return id, true
}

// assignmentID parses the {id} URL parameter or writes a 404.
func (h *Handler) assignmentID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Assignment not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// decode reads a size-capped JSON body into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}

// present repairs legacy extension sets and rewrites submission file URLs
// onto the requesting host before an assignment goes out.
func (h *Handler) present(r *http.Request, a *models.Assignment) {
	if err := h.Assignments.RenormalizeLegacyExtensions(r.Context(), a); err != nil {
		h.Log.Warn("extension renormalization failed",
			zap.Error(err), zap.String("assignment_id", a.ID.Hex()))
	}
	base := hosturl.RequestBase(r)
	for i := range a.Submissions {
		a.Submissions[i].FileURL = hosturl.Rewrite(a.Submissions[i].FileURL, base)
	}
}

// extensionList accepts either a JSON array of extensions or a single
// comma-separated string, which older clients still send.
type extensionList []string

func (e *extensionList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*e = list
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*e = nil
		return nil
	}
	*e = []string{s}
	return nil
}
