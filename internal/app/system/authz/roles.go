// internal/app/system/authz/roles.go
package authz

// Role is the closed set of account roles. Handlers and policies compare
// against these constants, never against free strings from the request.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEducator Role = "educator"
	RoleStudent  Role = "student"
)

// Roles is the full set of valid roles, used for validation on user
// creation and role changes.
var Roles = []Role{RoleAdmin, RoleEducator, RoleStudent}

// ParseRole maps a stored role string onto a Role. Unknown values come back
// ok=false so callers fail closed.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleEducator, RoleStudent:
		return Role(s), true
	}
	return "", false
}

// String returns the wire/database form of the role.
func (r Role) String() string { return string(r) }
