// internal/app/features/notes/handler.go
package notes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	coursestore "github.com/learnitedu/learnit/internal/app/store/courses"
	notestore "github.com/learnitedu/learnit/internal/app/store/notes"
	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves the note endpoints. Every decision about who may do what
// with a note is delegated to notepolicy; the handlers fetch, ask, then act.
type Handler struct {
	Notes   *notestore.Store
	Users   *userstore.Store
	Courses *coursestore.Store
	ErrLog  *respond.ErrorLogger
	Log     *zap.Logger
}

func NewHandler(notes *notestore.Store, users *userstore.Store, courses *coursestore.Store, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Notes: notes, Users: users, Courses: courses, ErrLog: errLog, Log: logger}
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

// noteID parses the {id} URL parameter or writes a 404.
func (h *Handler) noteID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "Note not found")
		return primitive.NilObjectID, false
	}
	return id, true
}

// decode reads a size-capped JSON body into v.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
