// internal/app/store/courses/coursestore.go
package coursestore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
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
	ErrNotFound        = errors.New("course not found")
	ErrDuplicateCode   = errors.New("a course with this code already exists")
	ErrInactive        = errors.New("course is not active")
	ErrAlreadyEnrolled = errors.New("student is already enrolled")
	ErrFull            = errors.New("course is full")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("courses")}
}

// Create inserts a new course. Codes are stored uppercase and must be
// unique.
func (s *Store) Create(ctx context.Context, c models.Course) (models.Course, error) {
	if strings.TrimSpace(c.Title) == "" {
		return models.Course{}, mongo.CommandError{Message: "title is required"}
	}
	c.Code = strings.ToUpper(strings.TrimSpace(c.Code))
	if c.Code == "" {
		return models.Course{}, mongo.CommandError{Message: "code is required"}
	}
	if c.MaxStudents <= 0 {
		c.MaxStudents = models.DefaultMaxStudents
	}
	if c.Level == "" {
		c.Level = models.LevelBeginner
	}

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Enrollments = nil
	c.CreatedAt = now
	c.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Course{}, ErrDuplicateCode
		}
		return models.Course{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Course, error) {
	var c models.Course
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Course{}, ErrNotFound
	}
	if err != nil {
		return models.Course{}, err
	}
	return c, nil
}

// List returns courses, optionally only active ones, newest first.
func (s *Store) List(ctx context.Context, activeOnly bool) ([]models.Course, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Course
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update modifies course settings and refreshes UpdatedAt. Enrollment
// changes go through Enroll.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, mut models.Course) error {
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
	if strings.TrimSpace(mut.Code) != "" {
		set["code"] = strings.ToUpper(strings.TrimSpace(mut.Code))
	}
	if mut.Category != "" {
		set["category"] = mut.Category
	}
	if mut.Level != "" {
		set["level"] = mut.Level
	}
	if mut.Thumbnail != "" {
		set["thumbnail"] = mut.Thumbnail
	}
	if mut.MaxStudents > 0 {
		set["max_students"] = mut.MaxStudents
	}
	if !mut.StartDate.IsZero() {
		set["start_date"] = mut.StartDate
	}
	if !mut.EndDate.IsZero() {
		set["end_date"] = mut.EndDate
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateCode
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a course by ID. Returns the number deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Enroll appends an enrollment for studentID when the course is active, the
// student is not already enrolled, and the cap is not reached. All three
// conditions sit in the update filter, so concurrent enrollments cannot
// oversubscribe; a miss is classified by re-reading the document.
func (s *Store) Enroll(ctx context.Context, id, studentID primitive.ObjectID) error {
	e := models.Enrollment{
		StudentID:  studentID,
		EnrolledAt: time.Now().UTC(),
		Status:     models.EnrollmentActive,
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":                    id,
			"is_active":              true,
			"enrollments.student_id": bson.M{"$ne": studentID},
			"$expr": bson.M{"$lt": bson.A{
				bson.M{"$size": bson.M{"$ifNull": bson.A{"$enrollments", bson.A{}}}},
				"$max_students",
			}},
		},
		bson.M{
			"$push": bson.M{"enrollments": e},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}

	c, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch {
	case !c.IsActive:
		return ErrInactive
	case c.IsEnrolled(studentID):
		return ErrAlreadyEnrolled
	case c.IsFull():
		return ErrFull
	}
	// The blocking condition resolved between the update and the re-read.
	return errors.New("enrollment conflicted, retry")
}
