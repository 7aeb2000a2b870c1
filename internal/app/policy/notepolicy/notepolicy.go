// Package notepolicy decides what a caller may do with a note.
//
// All functions are pure: they evaluate an already-fetched note snapshot
// against the caller's identity and return a decision. They perform no I/O,
// so callers fetch the note, ask the policy, then act on the answer
// (including the view-count increment, which belongs to the caller).
//
// Rule precedence, first match wins:
//  1. Admins may do anything.
//  2. The author may do anything with their own note.
//  3. Otherwise the operation decides:
//     view:    public note, or any access grant
//     comment: public note, or a grant of comment/edit (read is not enough)
//     edit:    a grant of edit (public visibility never grants edit)
//     delete:  nobody (only rules 1 and 2 reach delete)
//
// Comments have their own ownership rule: editing or deleting an existing
// comment is allowed only for admins and the comment's author, independent
// of note-level access.
package notepolicy

import (
	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/domain/models"
)

// Op is a requested note operation.
type Op string

const (
	OpView    Op = "view"
	OpComment Op = "comment"
	OpEdit    Op = "edit"
	OpDelete  Op = "delete"
)

// Allows reports whether id may perform op on note. Unknown operations are
// denied.
func Allows(id authz.Identity, note *models.Note, op Op) bool {
	switch op {
	case OpView:
		return CanView(id, note)
	case OpComment:
		return CanComment(id, note)
	case OpEdit:
		return CanEdit(id, note)
	case OpDelete:
		return CanDelete(id, note)
	}
	return false
}

// CanView reports whether id may read the note. Any grant level qualifies
// on a private note.
func CanView(id authz.Identity, note *models.Note) bool {
	if id.IsAdmin() || note.AuthorID == id.ID {
		return true
	}
	if note.IsPublic {
		return true
	}
	_, granted := note.GrantFor(id.ID)
	return granted
}

// CanComment reports whether id may post a new comment. On public notes any
// signed-in user may comment; on private notes a read-only grant does not
// qualify.
func CanComment(id authz.Identity, note *models.Note) bool {
	if id.IsAdmin() || note.AuthorID == id.ID {
		return true
	}
	if note.IsPublic {
		return true
	}
	g, granted := note.GrantFor(id.ID)
	return granted && (g.AccessType == models.AccessComment || g.AccessType == models.AccessEdit)
}

// CanEdit reports whether id may modify the note itself.
func CanEdit(id authz.Identity, note *models.Note) bool {
	if id.IsAdmin() || note.AuthorID == id.ID {
		return true
	}
	g, granted := note.GrantFor(id.ID)
	return granted && g.AccessType == models.AccessEdit
}

// CanDelete reports whether id may delete the note. No grant level reaches
// delete.
func CanDelete(id authz.Identity, note *models.Note) bool {
	return id.IsAdmin() || note.AuthorID == id.ID
}

// CanModifyComment reports whether id may edit or delete an existing
// comment. Ownership of the comment, not note-level access, decides: a user
// who could once post retains control of their own comments even if their
// note access was later reduced.
func CanModifyComment(id authz.Identity, comment *models.Comment) bool {
	return id.IsAdmin() || comment.UserID == id.ID
}
