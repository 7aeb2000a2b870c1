// internal/app/system/auth/auth.go

// Package auth resolves the current user from a bearer token.
//
// LoadTokenUser verifies the Authorization header and fetches the user fresh
// from the database on every request, so role changes and deletions take
// effect immediately rather than at token expiry. Handlers read the result
// via CurrentUser; RequireSignedIn and RequireRole gate route groups.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/learnitedu/learnit/internal/app/system/respond"
	"go.uber.org/zap"
)

// CurrentUser is what LoadTokenUser injects into r.Context().
type User struct {
	ID       string
	Username string
	Email    string
	FullName string
	Role     string
}

// UserFetcher loads a user by ID hex for per-request verification.
// Implemented by the user store; returns ok=false when the user no longer
// exists.
type UserFetcher interface {
	FetchUser(ctx context.Context, idHex string) (User, bool, error)
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*User)
	return u, ok
}

// TokenVerifier holds what the middleware needs to turn a bearer token into
// a context user.
type TokenVerifier struct {
	Secret  string
	Fetcher UserFetcher
	Log     *zap.Logger
}

// LoadTokenUser injects the user into context when a valid bearer token is
// presented. Requests without a token (or with a stale one) pass through
// anonymous; RequireSignedIn decides whether that matters.
func (v *TokenVerifier) LoadTokenUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := ParseToken(token, v.Secret)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		u, ok, err := v.Fetcher.FetchUser(r.Context(), userID)
		if err != nil {
			v.Log.Error("user fetch failed during auth", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			// Token is valid but the account is gone; treat as anonymous.
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, withUser(r, &u))
	})
}

// RequireSignedIn ensures there is a user in context (set by LoadTokenUser).
// API callers get a plain 401 JSON body.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			respond.Message(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole ensures the context user holds one of the allowed roles.
// Not signed in yields 401; signed in with the wrong role yields 403.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				respond.Message(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				respond.Message(w, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// helpers

func withUser(r *http.Request, u *User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
