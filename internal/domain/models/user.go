// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents admins, educators, and students.
//
// Password holds the bcrypt hash and is never serialized to JSON.
// GoogleID is set for accounts created or linked through Google sign-in.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email" json:"email"`
	Password string             `bson:"password,omitempty" json:"-"`
	FullName string             `bson:"full_name" json:"fullName"`
	Role     string             `bson:"role" json:"role"` // admin | educator | student
	GoogleID string             `bson:"google_id,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// UserRef is the projection of a user embedded in list responses
// (note authors, comment authors, submission students).
type UserRef struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username string             `bson:"username" json:"username"`
	FullName string             `bson:"full_name" json:"fullName"`
}

// Ref returns the embeddable projection of u.
func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Username: u.Username, FullName: u.FullName}
}
