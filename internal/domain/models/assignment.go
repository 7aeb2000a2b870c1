// internal/domain/models/assignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Canonical assignment file type identifiers.
//
// These values are stored in the Assignment.FileType field and decide what a
// submission must carry: "url" requires a URL, "any" accepts anything
// (including nothing), and the rest require an uploaded file.
const (
	FileTypeImage    = "image"
	FileTypeVideo    = "video"
	FileTypePDF      = "pdf"
	FileTypeURL      = "url"
	FileTypeDocument = "document"
	FileTypeAny      = "any"
)

// FileTypes is the full set of allowed assignment file types.
var FileTypes = []string{
	FileTypeImage,
	FileTypeVideo,
	FileTypePDF,
	FileTypeURL,
	FileTypeDocument,
	FileTypeAny,
}

// IsValidFileType reports whether t is a recognized assignment file type.
func IsValidFileType(t string) bool {
	for _, ft := range FileTypes {
		if t == ft {
			return true
		}
	}
	return false
}

// DefaultMaxFileSizeMB is applied when an assignment is created without an
// explicit per-file size cap.
const DefaultMaxFileSizeMB = 10

// Submission is a student's answer to an assignment. At most one submission
// exists per student per assignment; the store enforces this with a
// conditional append so concurrent submits cannot both land.
type Submission struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StudentID   primitive.ObjectID `bson:"student_id" json:"studentId"`
	SubmittedAt time.Time          `bson:"submitted_at" json:"submittedAt"`
	FileURL     string             `bson:"file_url" json:"fileUrl"`
	FileName    string             `bson:"file_name" json:"fileName"`
	FileType    string             `bson:"file_type" json:"fileType"` // extension (".pdf") or the literal "url"
	Comments    string             `bson:"comments,omitempty" json:"comments"`
	Grade       *float64           `bson:"grade,omitempty" json:"grade,omitempty"` // 0..100, admin-set
	Feedback    string             `bson:"feedback,omitempty" json:"feedback,omitempty"`
}

// Assignment is created and managed by admins; students submit against it.
//
// AllowedExtensions is always stored normalized: trimmed, dot-prefixed,
// alias-expanded, deduplicated (see submitpolicy.NormalizeExtensions).
type Assignment struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title             string             `bson:"title" json:"title"`
	Description       string             `bson:"description" json:"description"`
	FileType          string             `bson:"file_type" json:"fileType"`
	DueDate           time.Time          `bson:"due_date" json:"dueDate"`
	MaxFileSizeMB     int                `bson:"max_file_size_mb" json:"maxFileSize"`
	AllowedExtensions []string           `bson:"allowed_extensions,omitempty" json:"allowedExtensions"`
	IsActive          bool               `bson:"is_active" json:"isActive"`
	CreatedByID       primitive.ObjectID `bson:"created_by_id" json:"createdById"`
	Submissions       []Submission       `bson:"submissions,omitempty" json:"submissions"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// SubmissionBy returns the submission made by studentID, if any.
func (a *Assignment) SubmissionBy(studentID primitive.ObjectID) (Submission, bool) {
	for _, s := range a.Submissions {
		if s.StudentID == studentID {
			return s, true
		}
	}
	return Submission{}, false
}

// SubmissionByID returns the submission with the given id, if present.
func (a *Assignment) SubmissionByID(id primitive.ObjectID) (Submission, bool) {
	for _, s := range a.Submissions {
		if s.ID == id {
			return s, true
		}
	}
	return Submission{}, false
}
