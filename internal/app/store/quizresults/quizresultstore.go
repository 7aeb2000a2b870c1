// internal/app/store/quizresults/quizresultstore.go
package quizresultstore

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

// Store persists scored quiz attempts.
type Store struct {
	c *mongo.Collection
}

var (
	ErrNotFound = errors.New("quiz result not found")

	// ErrDuplicateResult means the student already holds a result for the
	// course. Enforced by the unique (student_id, course_id) index.
	ErrDuplicateResult = errors.New("quiz already submitted for this course")
)

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("quiz_results")}
}

// Create records a student's quiz attempt. The unique (student_id, course_id)
// index rejects a second submission for the same course even under concurrent
// requests.
func (s *Store) Create(ctx context.Context, r models.QuizResult) (models.QuizResult, error) {
	if strings.TrimSpace(r.CourseID) == "" {
		return models.QuizResult{}, errors.New("course id is required")
	}
	if r.TotalQuestions > 0 {
		r.Percentage = float64(r.Score) / float64(r.TotalQuestions) * 100
	}
	if r.Status != models.QuizPassed && r.Status != models.QuizFailed {
		if r.Percentage >= 60 {
			r.Status = models.QuizPassed
		} else {
			r.Status = models.QuizFailed
		}
	}
	if r.AttemptNumber <= 0 {
		r.AttemptNumber = 1
	}
	if r.MaxAttempts <= 0 {
		r.MaxAttempts = models.DefaultQuizMaxAttempts
	}

	r.ID = primitive.NewObjectID()
	r.SubmittedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.QuizResult{}, ErrDuplicateResult
		}
		return models.QuizResult{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.QuizResult, error) {
	var r models.QuizResult
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.QuizResult{}, ErrNotFound
	}
	return r, err
}

// ListByStudent returns the student's results, most recent first.
func (s *Store) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]models.QuizResult, error) {
	return s.list(ctx, bson.M{"student_id": studentID})
}

// ListByCourse returns every result recorded for the course, most recent
// first.
func (s *Store) ListByCourse(ctx context.Context, courseID string) ([]models.QuizResult, error) {
	return s.list(ctx, bson.M{"course_id": courseID})
}

// List returns every recorded result, most recent first. Admin reporting.
func (s *Store) List(ctx context.Context) ([]models.QuizResult, error) {
	return s.list(ctx, bson.M{})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.QuizResult, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.QuizResult
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Stats summarizes all recorded results in a single aggregation pass.
type Stats struct {
	Total         int64   `bson:"total"`
	Passed        int64   `bson:"passed"`
	Failed        int64   `bson:"failed"`
	AverageScore  float64 `bson:"average_score"`
	FirstAttempts int64   `bson:"first_attempts"`
	Retakes       int64   `bson:"retakes"`
}

// ComputeStats aggregates pass/fail counts, the mean percentage, and the
// first-attempt versus retake split across every result.
func (s *Store) ComputeStats(ctx context.Context) (Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":           nil,
			"total":         bson.M{"$sum": 1},
			"passed":        bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.QuizPassed}}, 1, 0}}},
			"failed":        bson.M{"$sum": bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$status", models.QuizFailed}}, 1, 0}}},
			"average_score": bson.M{"$avg": "$percentage"},
			"first_attempts": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$attempt_number", 1}}, 1, 0}}},
			"retakes": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$attempt_number", 1}}, 1, 0}}},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cur.Close(ctx)

	var rows []Stats
	if err := cur.All(ctx, &rows); err != nil {
		return Stats{}, err
	}
	if len(rows) == 0 {
		return Stats{}, nil
	}
	return rows[0], nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
