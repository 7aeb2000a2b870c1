// internal/app/features/users/handler.go
package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves user administration and account endpoints.
type Handler struct {
	Users  *userstore.Store
	ErrLog *respond.ErrorLogger
	Log    *zap.Logger
}

func NewHandler(users *userstore.Store, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{Users: users, ErrLog: errLog, Log: logger}
}

// HandleList returns every account, newest first. Admin only (enforced by
// the route group).
// GET /api/users
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list users")
	defer cancel()

	users, err := h.Users.List(ctx, r.URL.Query().Get("role"))
	if err != nil {
		h.ErrLog.Internal(w, r, "list users failed", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respond.JSON(w, http.StatusOK, users)
}

// HandleGet returns one account. A user may fetch themselves; admins may
// fetch anyone.
// GET /api/users/{id}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, currentID, ok := h.targetAndCaller(w, r)
	if !ok {
		return
	}
	if !authz.IsAdminReq(r) && id != currentID {
		h.ErrLog.Forbidden(w, r, "user get: not self", "Access denied")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get user")
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "get user failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

type updateRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// HandleUpdate edits an account. Self or admin; role changes admin only.
// PUT /api/users/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, currentID, ok := h.targetAndCaller(w, r)
	if !ok {
		return
	}
	isAdmin := authz.IsAdminReq(r)
	if !isAdmin && id != currentID {
		h.ErrLog.Forbidden(w, r, "user update: not self", "Access denied")
		return
	}

	var req updateRequest
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ErrLog.BadRequest(w, r, "user update: bad body", err, "Invalid request body")
		return
	}

	mut := models.User{
		FullName: strings.TrimSpace(req.FullName),
		Email:    strings.TrimSpace(req.Email),
		Username: strings.TrimSpace(req.Username),
	}
	// Only admins may move an account between roles.
	if req.Role != "" && isAdmin {
		if _, valid := authz.ParseRole(req.Role); !valid {
			respond.Message(w, http.StatusBadRequest, "Invalid role")
			return
		}
		mut.Role = req.Role
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update user")
	defer cancel()

	if err := h.Users.Update(ctx, id, mut, ""); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "User not found")
			return
		}
		if errors.Is(err, userstore.ErrDuplicate) {
			respond.Message(w, http.StatusBadRequest, "Email or username already in use")
			return
		}
		h.ErrLog.Internal(w, r, "update user failed", err)
		return
	}

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, r, "update user: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// HandleDelete removes an account. Admin only; self-deletion rejected.
// DELETE /api/users/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, currentID, ok := h.targetAndCaller(w, r)
	if !ok {
		return
	}
	if id == currentID {
		respond.Message(w, http.StatusBadRequest, "Cannot delete your own account")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete user")
	defer cancel()

	deleted, err := h.Users.Delete(ctx, id)
	if err != nil {
		h.ErrLog.Internal(w, r, "delete user failed", err)
		return
	}
	if deleted == 0 {
		h.ErrLog.NotFound(w, r, "User not found")
		return
	}
	respond.Message(w, http.StatusOK, "User deleted successfully")
}

// HandleStatsOverview returns full per-role counts plus the newest accounts.
// GET /api/users/stats/overview (admin)
func (h *Handler) HandleStatsOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user stats overview")
	defer cancel()

	stats, err := h.Users.CountByRole(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "user stats failed", err)
		return
	}
	recent, err := h.Users.Recent(ctx, 5)
	if err != nil {
		h.ErrLog.Internal(w, r, "recent users failed", err)
		return
	}
	if recent == nil {
		recent = []models.User{}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"totalUsers":    stats.Total,
		"totalStudents": stats.Students,
		"totalAdmins":   stats.Admins,
		"recentUsers":   recent,
	})
}

// HandleStatsBasic returns coarse counts for signed-in users.
// GET /api/users/stats/basic
func (h *Handler) HandleStatsBasic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user stats basic")
	defer cancel()

	stats, err := h.Users.CountByRole(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "user stats failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"totalUsers":    stats.Total,
		"totalStudents": stats.Students,
	})
}

// HandleStatsPublic returns the total user count with no auth at all; the
// SPA landing page shows it.
// GET /api/users/stats/public
func (h *Handler) HandleStatsPublic(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "user stats public")
	defer cancel()

	stats, err := h.Users.CountByRole(ctx)
	if err != nil {
		h.ErrLog.Internal(w, r, "user stats failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"totalUsers": stats.Total})
}

// targetAndCaller parses the {id} URL parameter and the caller's own ID.
func (h *Handler) targetAndCaller(w http.ResponseWriter, r *http.Request) (target, caller primitive.ObjectID, ok bool) {
	target, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.NotFound(w, r, "User not found")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	identity, found := authz.IdentityCtx(r)
	if !found {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return target, identity.ID, true
}
