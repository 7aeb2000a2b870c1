package quizresultstore_test

import (
	"errors"
	"testing"

	quizresultstore "github.com/learnitedu/learnit/internal/app/store/quizresults"
	"github.com/learnitedu/learnit/internal/app/system/indexes"
	"github.com/learnitedu/learnit/internal/domain/models"
	"github.com/learnitedu/learnit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Create_DefaultsAndScoring(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := quizresultstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := store.Create(ctx, models.QuizResult{
		StudentID:      primitive.NewObjectID(),
		CourseID:       "GO101",
		CourseName:     "Intro to Go",
		Score:          7,
		TotalQuestions: 10,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got.Percentage != 70 {
		t.Errorf("percentage = %v, want 70", got.Percentage)
	}
	if got.Status != models.QuizPassed {
		t.Errorf("status = %q, want %q", got.Status, models.QuizPassed)
	}
	if got.AttemptNumber != 1 {
		t.Errorf("attemptNumber = %d, want 1", got.AttemptNumber)
	}
	if got.MaxAttempts != models.DefaultQuizMaxAttempts {
		t.Errorf("maxAttempts = %d, want %d", got.MaxAttempts, models.DefaultQuizMaxAttempts)
	}
	if got.SubmittedAt.IsZero() {
		t.Error("expected submittedAt to be set")
	}
}

func TestStore_Create_FailingScore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := quizresultstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	got, err := store.Create(ctx, models.QuizResult{
		StudentID:      primitive.NewObjectID(),
		CourseID:       "GO102",
		Score:          3,
		TotalQuestions: 10,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got.Status != models.QuizFailed {
		t.Errorf("status = %q, want %q", got.Status, models.QuizFailed)
	}
}

func TestStore_Create_DuplicateCourse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	store := quizresultstore.New(db)
	student := primitive.NewObjectID()

	if _, err := store.Create(ctx, models.QuizResult{
		StudentID: student, CourseID: "GO101", Score: 8, TotalQuestions: 10,
	}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.QuizResult{
		StudentID: student, CourseID: "GO101", Score: 9, TotalQuestions: 10,
	})
	if !errors.Is(err, quizresultstore.ErrDuplicateResult) {
		t.Fatalf("expected ErrDuplicateResult, got %v", err)
	}

	// A different course for the same student is fine.
	if _, err := store.Create(ctx, models.QuizResult{
		StudentID: student, CourseID: "GO201", Score: 9, TotalQuestions: 10,
	}); err != nil {
		t.Fatalf("second course Create failed: %v", err)
	}
}

func TestStore_ListByStudent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := quizresultstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	mine := primitive.NewObjectID()
	other := primitive.NewObjectID()
	for _, r := range []models.QuizResult{
		{StudentID: mine, CourseID: "GO101", Score: 8, TotalQuestions: 10},
		{StudentID: mine, CourseID: "GO201", Score: 6, TotalQuestions: 10},
		{StudentID: other, CourseID: "GO101", Score: 5, TotalQuestions: 10},
	} {
		if _, err := store.Create(ctx, r); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := store.ListByStudent(ctx, mine)
	if err != nil {
		t.Fatalf("ListByStudent failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 results, got %d", len(got))
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 results, got %d", len(all))
	}
}

func TestStore_Delete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := quizresultstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	r, err := store.Create(ctx, models.QuizResult{
		StudentID: primitive.NewObjectID(), CourseID: "GO101", Score: 5, TotalQuestions: 10,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, r.ID); !errors.Is(err, quizresultstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
