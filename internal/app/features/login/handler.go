// internal/app/features/login/handler.go
package login

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/auth"
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/app/system/limits"
	"github.com/learnitedu/learnit/internal/app/system/ratelimit"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/app/system/timeouts"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves registration, password login, and profile endpoints.
type Handler struct {
	Users       *userstore.Store
	TokenSecret string
	TokenExpiry time.Duration
	Limits      *ratelimit.LoginLimiter
	ErrLog      *respond.ErrorLogger
	Log         *zap.Logger
}

func NewHandler(users *userstore.Store, tokenSecret string, tokenExpiry time.Duration, errLog *respond.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Users:       users,
		TokenSecret: tokenSecret,
		TokenExpiry: tokenExpiry,
		Limits:      ratelimit.NewLoginLimiter(),
		ErrLog:      errLog,
		Log:         logger,
	}
}

// userPayload is the user object embedded in auth responses.
type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

func payloadFor(u models.User) userPayload {
	return userPayload{
		ID:       u.ID.Hex(),
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

type authResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    userPayload `json:"user"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

// HandleRegister creates an account and signs the caller straight in.
// POST /api/auth/register
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "register: bad body", err, "Invalid request body")
		return
	}

	// IP-only limit; the email has no account yet to key on.
	if ok, msg := h.Limits.Check(r, ""); !ok {
		respond.Message(w, http.StatusTooManyRequests, msg)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		respond.Message(w, http.StatusBadRequest, "Username, email, and password are required")
		return
	}
	if req.Role != "" {
		if _, ok := authz.ParseRole(req.Role); !ok {
			respond.Message(w, http.StatusBadRequest, "Invalid role")
			return
		}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "register")
	defer cancel()

	user, err := h.Users.Create(ctx, models.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	}, req.Password)
	if errors.Is(err, userstore.ErrDuplicate) {
		respond.Message(w, http.StatusBadRequest, "User already exists with this email or username")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "register: create user failed", err)
		return
	}

	token, err := auth.IssueToken(user.ID.Hex(), h.TokenSecret, h.TokenExpiry)
	if err != nil {
		h.ErrLog.Internal(w, r, "register: token issue failed", err)
		return
	}

	respond.JSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    payloadFor(user),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin checks the password and issues a bearer token.
// POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "login: bad body", err, "Invalid request body")
		return
	}

	if ok, msg := h.Limits.Check(r, req.Email); !ok {
		respond.Message(w, http.StatusTooManyRequests, msg)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "login")
	defer cancel()

	user, err := h.Users.Authenticate(ctx, req.Email, req.Password)
	if errors.Is(err, userstore.ErrNotFound) || errors.Is(err, userstore.ErrBadPassword) {
		// Same message either way so callers cannot probe for accounts.
		respond.Message(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "login: authenticate failed", err)
		return
	}

	token, err := auth.IssueToken(user.ID.Hex(), h.TokenSecret, h.TokenExpiry)
	if err != nil {
		h.ErrLog.Internal(w, r, "login: token issue failed", err)
		return
	}
	h.Limits.ResetEmail(req.Email)

	respond.JSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    payloadFor(user),
	})
}

// HandleProfile returns the authenticated user's record.
// GET /api/auth/profile
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	uid, err := primitive.ObjectIDFromHex(current.ID)
	if err != nil {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "profile")
	defer cancel()

	user, err := h.Users.GetByID(ctx, uid)
	if errors.Is(err, userstore.ErrNotFound) {
		h.ErrLog.NotFound(w, r, "User not found")
		return
	}
	if err != nil {
		h.ErrLog.Internal(w, r, "profile: fetch failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

type profileUpdateRequest struct {
	FullName string `json:"fullName"`
}

// HandleUpdateProfile lets a user change their own display name.
// PUT /api/auth/profile
func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentUser(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	uid, err := primitive.ObjectIDFromHex(current.ID)
	if err != nil {
		respond.Message(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.ErrLog.BadRequest(w, r, "profile update: bad body", err, "Invalid request body")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "profile update")
	defer cancel()

	if err := h.Users.Update(ctx, uid, models.User{FullName: strings.TrimSpace(req.FullName)}, ""); err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			h.ErrLog.NotFound(w, r, "User not found")
			return
		}
		h.ErrLog.Internal(w, r, "profile update failed", err)
		return
	}

	user, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		h.ErrLog.Internal(w, r, "profile update: reload failed", err)
		return
	}
	respond.JSON(w, http.StatusOK, user)
}

// decodeJSON reads a size-capped JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxJSONBodySize)
	return json.NewDecoder(r.Body).Decode(v)
}
