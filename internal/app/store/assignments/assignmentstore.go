// internal/app/store/assignments/assignmentstore.go
package assignmentstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/learnitedu/learnit/internal/app/policy/submitpolicy"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("assignment not found")

	// ErrDuplicateSubmission is returned when a conditional append finds an
	// existing submission by the same student.
	ErrDuplicateSubmission = errors.New("student has already submitted this assignment")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("assignments")}
}

// Create inserts a new assignment, normalizing its allowed-extension set.
func (s *Store) Create(ctx context.Context, a models.Assignment) (models.Assignment, error) {
	if strings.TrimSpace(a.Title) == "" {
		return models.Assignment{}, mongo.CommandError{Message: "title is required"}
	}
	if !models.IsValidFileType(a.FileType) {
		return models.Assignment{}, mongo.CommandError{Message: "invalid file type"}
	}
	if a.MaxFileSizeMB <= 0 {
		a.MaxFileSizeMB = models.DefaultMaxFileSizeMB
	}
	a.AllowedExtensions = submitpolicy.NormalizeExtensionList(a.AllowedExtensions)

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Submissions = nil
	a.CreatedAt = now
	a.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// GetByID returns an assignment by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Assignment, error) {
	var a models.Assignment
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Assignment{}, ErrNotFound
	}
	if err != nil {
		return models.Assignment{}, err
	}
	return a, nil
}

// List returns assignments, optionally only active ones, due-soonest first.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Assignment, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListWithSubmissionBy returns the assignments carrying a submission from
// the given student, due-soonest first.
func (s *Store) ListWithSubmissionBy(ctx context.Context, studentID primitive.ObjectID) ([]models.Assignment, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"submissions.student_id": studentID},
		options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Assignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies assignment settings and refreshes UpdatedAt. Submissions
// are never touched here. IsActive is always written since false is a
// meaningful value.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, mut models.Assignment) error {
	set := bson.M{
		"is_active":  mut.IsActive,
		"updated_at": time.Now().UTC(),
	}
	if strings.TrimSpace(mut.Title) != "" {
		set["title"] = mut.Title
	}
	if mut.Description != "" {
		set["description"] = mut.Description
	}
	if mut.FileType != "" {
		if !models.IsValidFileType(mut.FileType) {
			return mongo.CommandError{Message: "invalid file type"}
		}
		set["file_type"] = mut.FileType
	}
	if !mut.DueDate.IsZero() {
		set["due_date"] = mut.DueDate
	}
	if mut.MaxFileSizeMB > 0 {
		set["max_file_size_mb"] = mut.MaxFileSizeMB
	}
	if mut.AllowedExtensions != nil {
		set["allowed_extensions"] = submitpolicy.NormalizeExtensionList(mut.AllowedExtensions)
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an assignment by ID. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AppendSubmission atomically appends sub only when its student has no
// submission on the assignment yet. The student-absent condition lives in
// the update filter, so two concurrent submissions cannot both land: the
// loser matches nothing and gets ErrDuplicateSubmission.
func (s *Store) AppendSubmission(ctx context.Context, id primitive.ObjectID, sub models.Submission) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                    id,
			"submissions.student_id": bson.M{"$ne": sub.StudentID},
		},
		bson.M{
			"$push": bson.M{"submissions": sub},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing assignment from a duplicate.
		if n, cErr := s.c.CountDocuments(ctx, bson.M{"_id": id}); cErr == nil && n == 0 {
			return ErrNotFound
		}
		return ErrDuplicateSubmission
	}
	return nil
}

// GradeSubmission records grade and feedback on one submission.
func (s *Store) GradeSubmission(ctx context.Context, id, submissionID primitive.ObjectID, grade float64, feedback string) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "submissions._id": submissionID},
		bson.M{"$set": bson.M{
			"submissions.$.grade":    grade,
			"submissions.$.feedback": feedback,
			"updated_at":             time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveExtensions overwrites the stored allowed-extension set. Used by the
// read path when it renormalizes a legacy comma-joined value.
func (s *Store) SaveExtensions(ctx context.Context, id primitive.ObjectID, exts []string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"allowed_extensions": exts}})
	return err
}

// RenormalizeLegacyExtensions repairs an assignment whose stored extension
// set predates alias expansion (single comma-joined entries, missing dots).
// Returns the normalized set; the document is rewritten only when the set
// actually changed.
func (s *Store) RenormalizeLegacyExtensions(ctx context.Context, a *models.Assignment) error {
	if len(a.AllowedExtensions) == 0 {
		return nil
	}
	normalized := submitpolicy.NormalizeExtensionList(a.AllowedExtensions)
	if equalStrings(normalized, a.AllowedExtensions) {
		return nil
	}
	if err := s.SaveExtensions(ctx, a.ID, normalized); err != nil {
		return err
	}
	a.AllowedExtensions = normalized
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
