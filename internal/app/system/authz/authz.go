// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/learnitedu/learnit/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the authenticated caller reduced to what the policy engines
// need: who they are and what role they hold. Role is immutable for the
// lifetime of a request.
type Identity struct {
	ID   primitive.ObjectID
	Role Role
}

// IsAdmin reports whether the identity holds the admin role.
func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// IsEducator reports whether the identity holds the educator role.
func (id Identity) IsEducator() bool { return id.Role == RoleEducator }

// IsStudent reports whether the identity holds the student role.
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

// IdentityCtx returns the caller's Identity and a found flag.
// If no user is present in context, the role is unrecognized, or the user ID
// is malformed, it returns ok=false so callers can trust that ok=true means
// a valid, authenticated identity.
func IdentityCtx(r *http.Request) (Identity, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return Identity{}, false
	}
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		// Malformed user ID in token context - fail closed.
		return Identity{}, false
	}
	role, ok := ParseRole(u.Role)
	if !ok {
		return Identity{}, false
	}
	return Identity{ID: uid, Role: role}, true
}

// IsAdminReq reports whether the current request's user is an admin.
func IsAdminReq(r *http.Request) bool {
	id, ok := IdentityCtx(r)
	return ok && id.IsAdmin()
}
