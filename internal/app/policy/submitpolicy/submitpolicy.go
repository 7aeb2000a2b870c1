// Package submitpolicy validates assignment submissions.
//
// Admit is a pure decision function: it takes the caller's identity, an
// already-fetched assignment snapshot, and the candidate payload, and either
// constructs the Submission record or explains the rejection. Persisting the
// record (and closing the concurrent-duplicate race with a conditional
// append) is the store's job.
package submitpolicy

import (
	"fmt"
	"strings"
	"time"

	"github.com/learnitedu/learnit/internal/app/system/authz"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind classifies a rejection so the HTTP layer can map it to a status
// code.
type Kind int

const (
	// KindForbidden: the caller's role cannot submit.
	KindForbidden Kind = iota
	// KindInactiveResource: the assignment is not accepting submissions.
	KindInactiveResource
	// KindDuplicateSubmission: the student already has a submission.
	KindDuplicateSubmission
	// KindMissingFile: a file is required and none was provided.
	KindMissingFile
	// KindMissingURL: a URL is required and none was provided.
	KindMissingURL
	// KindExtensionNotAllowed: the file's extension is outside the allowed set.
	KindExtensionNotAllowed
)

// Error is a structured rejection: a kind for status mapping plus a
// human-readable message surfaced verbatim to the user. It is a return
// value, not control flow; expected business outcomes never panic or wrap.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

func reject(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// FilePayload describes an uploaded file after the HTTP layer has stored
// it: the original name the student gave it and the externally resolvable
// address of the stored copy.
type FilePayload struct {
	FileName string
	FileURL  string
	Size     int64
}

// Payload is a candidate submission: at most one of File or URL, plus
// free-text comments.
type Payload struct {
	File     *FilePayload
	URL      string
	Comments string
}

// Admit validates the payload against the assignment and, on success,
// returns the Submission record to append. Checks run in order and stop at
// the first failure; the duplicate check runs before any file validation so
// a second attempt is always reported as a duplicate, never as a payload
// problem.
//
// Assignments typed "any" enforce neither a file nor a URL; an empty
// submission is accepted for them.
func Admit(id authz.Identity, a *models.Assignment, p Payload, now time.Time) (models.Submission, *Error) {
	if !id.IsStudent() {
		return models.Submission{}, reject(KindForbidden, fmt.Sprintf("%s accounts cannot submit assignments", id.Role))
	}

	if !a.IsActive {
		return models.Submission{}, reject(KindInactiveResource, "Assignment is not active")
	}

	if _, exists := a.SubmissionBy(id.ID); exists {
		return models.Submission{}, reject(KindDuplicateSubmission, "You have already submitted this assignment")
	}

	if a.FileType != models.FileTypeAny && a.FileType != models.FileTypeURL {
		if p.File == nil {
			return models.Submission{}, reject(KindMissingFile, "File is required for this assignment")
		}
		ext := fileExtension(p.File.FileName)
		if len(a.AllowedExtensions) > 0 && !extensionAllowed(ext, a.AllowedExtensions) {
			return models.Submission{}, reject(KindExtensionNotAllowed,
				fmt.Sprintf("File type not allowed. Allowed types: %s", strings.Join(a.AllowedExtensions, ", ")))
		}
	}

	if a.FileType == models.FileTypeURL && strings.TrimSpace(p.URL) == "" {
		return models.Submission{}, reject(KindMissingURL, "URL is required for this assignment")
	}

	sub := models.Submission{
		ID:          primitive.NewObjectID(),
		StudentID:   id.ID,
		SubmittedAt: now.UTC(),
		Comments:    p.Comments,
	}
	if p.File != nil {
		sub.FileURL = p.File.FileURL
		sub.FileName = p.File.FileName
		sub.FileType = fileExtension(p.File.FileName)
	} else {
		sub.FileURL = p.URL
		sub.FileName = p.URL
		sub.FileType = "url"
	}
	return sub, nil
}
