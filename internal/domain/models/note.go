// internal/domain/models/note.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Access grant levels for private notes, in increasing order of capability.
// A grant only matters when the note is private; public notes are readable
// and commentable by any signed-in user.
const (
	AccessRead    = "read"
	AccessComment = "comment"
	AccessEdit    = "edit"
)

// AccessTypes is the full set of valid access grant levels.
var AccessTypes = []string{AccessRead, AccessComment, AccessEdit}

// IsValidAccessType reports whether t is a recognized grant level.
func IsValidAccessType(t string) bool {
	return t == AccessRead || t == AccessComment || t == AccessEdit
}

// AccessGrant gives one user a permission level on a private note.
// A note holds at most one grant per user; re-granting replaces the level.
type AccessGrant struct {
	UserID     primitive.ObjectID `bson:"user_id" json:"userId"`
	AccessType string             `bson:"access_type" json:"accessType"`
	GrantedAt  time.Time          `bson:"granted_at" json:"grantedAt"`
}

// Comment is owned by its posting user; only that user or an admin may
// modify or delete it, regardless of note-level access.
type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"userId"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Note is a piece of study content with visibility controls.
//
// The author always retains full rights. When IsPublic is false, other
// non-admin users need an AccessList entry to see the note at all.
type Note struct {
	ID       primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title    string              `bson:"title" json:"title"`
	Content  string              `bson:"content" json:"content"`
	CourseID *primitive.ObjectID `bson:"course_id,omitempty" json:"courseId,omitempty"`
	AuthorID primitive.ObjectID  `bson:"author_id" json:"authorId"`

	Tags       []string      `bson:"tags,omitempty" json:"tags"`
	IsPublic   bool          `bson:"is_public" json:"isPublic"`
	AccessList []AccessGrant `bson:"access_list,omitempty" json:"accessList"`
	Comments   []Comment     `bson:"comments,omitempty" json:"comments"`
	ViewCount  int64         `bson:"view_count" json:"viewCount"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// GrantFor returns the access grant held by userID, if any.
func (n *Note) GrantFor(userID primitive.ObjectID) (AccessGrant, bool) {
	for _, g := range n.AccessList {
		if g.UserID == userID {
			return g, true
		}
	}
	return AccessGrant{}, false
}

// CommentByID returns the comment with the given id, if present.
func (n *Note) CommentByID(id primitive.ObjectID) (Comment, bool) {
	for _, c := range n.Comments {
		if c.ID == id {
			return c, true
		}
	}
	return Comment{}, false
}
