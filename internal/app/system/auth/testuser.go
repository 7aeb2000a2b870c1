// internal/app/system/auth/testuser.go
package auth

import "net/http"

// WithTestUser injects a user into the request context for handler tests,
// bypassing token verification.
func WithTestUser(r *http.Request, u *User) *http.Request {
	return withUser(r, u)
}
