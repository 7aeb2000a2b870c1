package assignmentstore_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	assignmentstore "github.com/learnitedu/learnit/internal/app/store/assignments"
	"github.com/learnitedu/learnit/internal/domain/models"
	"github.com/learnitedu/learnit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestStore_Create_NormalizesExtensions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.Assignment{
		Title:             "Essay",
		FileType:          models.FileTypePDF,
		AllowedExtensions: []string{"pdf", "DOC"},
		DueDate:           time.Now().Add(48 * time.Hour),
		IsActive:          true,
		CreatedByID:       primitive.NewObjectID(),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	want := map[string]bool{".pdf": true, ".PDF": true, ".doc": true, ".DOC": true}
	if len(created.AllowedExtensions) != len(want) {
		t.Fatalf("unexpected extension set: %v", created.AllowedExtensions)
	}
	for _, e := range created.AllowedExtensions {
		if !want[e] {
			t.Errorf("unexpected extension %q", e)
		}
	}
	if created.MaxFileSizeMB != models.DefaultMaxFileSizeMB {
		t.Errorf("expected default max file size, got %d", created.MaxFileSizeMB)
	}
}

func TestStore_Create_RejectsBadFileType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.Assignment{Title: "Bad", FileType: "spreadsheet"})
	if err == nil {
		t.Fatal("expected invalid file type error")
	}
}

func TestStore_AppendSubmission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	a := f.CreateAssignment(ctx, "HW1", models.FileTypeAny, primitive.NewObjectID())

	studentID := primitive.NewObjectID()
	sub := models.Submission{
		ID:          primitive.NewObjectID(),
		StudentID:   studentID,
		SubmittedAt: time.Now().UTC(),
		Comments:    "done",
	}
	if err := store.AppendSubmission(ctx, a.ID, sub); err != nil {
		t.Fatalf("AppendSubmission failed: %v", err)
	}

	// Same student again is a duplicate regardless of payload.
	dup := sub
	dup.ID = primitive.NewObjectID()
	if err := store.AppendSubmission(ctx, a.ID, dup); !errors.Is(err, assignmentstore.ErrDuplicateSubmission) {
		t.Errorf("expected ErrDuplicateSubmission, got %v", err)
	}

	// A different student still goes through.
	other := models.Submission{ID: primitive.NewObjectID(), StudentID: primitive.NewObjectID(), SubmittedAt: time.Now().UTC()}
	if err := store.AppendSubmission(ctx, a.ID, other); err != nil {
		t.Fatalf("AppendSubmission for second student failed: %v", err)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Submissions) != 2 {
		t.Errorf("expected 2 submissions, got %d", len(got.Submissions))
	}
}

func TestStore_AppendSubmission_MissingAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	err := store.AppendSubmission(ctx, primitive.NewObjectID(), models.Submission{
		ID: primitive.NewObjectID(), StudentID: primitive.NewObjectID(),
	})
	if !errors.Is(err, assignmentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_AppendSubmission_ConcurrentDuplicates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	a := f.CreateAssignment(ctx, "Race", models.FileTypeAny, primitive.NewObjectID())
	studentID := primitive.NewObjectID()

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.AppendSubmission(ctx, a.ID, models.Submission{
				ID:          primitive.NewObjectID(),
				StudentID:   studentID,
				SubmittedAt: time.Now().UTC(),
			})
		}(i)
	}
	wg.Wait()

	var ok, dup int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, assignmentstore.ErrDuplicateSubmission):
			dup++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || dup != workers-1 {
		t.Errorf("expected exactly one winner, got ok=%d dup=%d", ok, dup)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(got.Submissions) != 1 {
		t.Errorf("expected exactly one stored submission, got %d", len(got.Submissions))
	}
}

func TestStore_GradeSubmission(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	a := f.CreateAssignment(ctx, "Graded", models.FileTypeAny, primitive.NewObjectID())

	sub := models.Submission{ID: primitive.NewObjectID(), StudentID: primitive.NewObjectID(), SubmittedAt: time.Now().UTC()}
	if err := store.AppendSubmission(ctx, a.ID, sub); err != nil {
		t.Fatalf("AppendSubmission failed: %v", err)
	}

	if err := store.GradeSubmission(ctx, a.ID, sub.ID, 87.5, "solid work"); err != nil {
		t.Fatalf("GradeSubmission failed: %v", err)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Submissions[0].Grade == nil || *got.Submissions[0].Grade != 87.5 {
		t.Errorf("expected grade 87.5, got %+v", got.Submissions[0].Grade)
	}
	if got.Submissions[0].Feedback != "solid work" {
		t.Errorf("expected feedback recorded, got %q", got.Submissions[0].Feedback)
	}

	if err := store.GradeSubmission(ctx, a.ID, primitive.NewObjectID(), 50, ""); !errors.Is(err, assignmentstore.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing submission, got %v", err)
	}
}

func TestStore_RenormalizeLegacyExtensions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	a := f.CreateAssignment(ctx, "Legacy", models.FileTypePDF, primitive.NewObjectID())

	// Simulate a pre-normalization document: one comma-joined entry.
	if err := store.SaveExtensions(ctx, a.ID, []string{"pdf,doc"}); err != nil {
		t.Fatalf("SaveExtensions failed: %v", err)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if err := store.RenormalizeLegacyExtensions(ctx, &got); err != nil {
		t.Fatalf("RenormalizeLegacyExtensions failed: %v", err)
	}

	// The repaired set gets dot-prefixed and persisted.
	persisted, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if len(persisted.AllowedExtensions) != len(got.AllowedExtensions) {
		t.Errorf("expected repaired set persisted, stored %v vs returned %v",
			persisted.AllowedExtensions, got.AllowedExtensions)
	}

	// A second pass is a no-op.
	before := append([]string(nil), got.AllowedExtensions...)
	if err := store.RenormalizeLegacyExtensions(ctx, &got); err != nil {
		t.Fatalf("second RenormalizeLegacyExtensions failed: %v", err)
	}
	if len(before) != len(got.AllowedExtensions) {
		t.Errorf("renormalization is not idempotent: %v vs %v", before, got.AllowedExtensions)
	}
}

func TestStore_MigrateFileURLs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := assignmentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	f := testutil.NewFixtures(t, db)
	a := f.CreateAssignment(ctx, "Migrated", models.FileTypeAny, primitive.NewObjectID())

	subs := []models.Submission{
		{ID: primitive.NewObjectID(), StudentID: primitive.NewObjectID(), FileURL: "http://localhost:8080/uploads/a.pdf", SubmittedAt: time.Now().UTC()},
		{ID: primitive.NewObjectID(), StudentID: primitive.NewObjectID(), FileURL: "https://cdn.example.com/b.pdf", SubmittedAt: time.Now().UTC()},
	}
	for _, sub := range subs {
		if err := store.AppendSubmission(ctx, a.ID, sub); err != nil {
			t.Fatalf("AppendSubmission failed: %v", err)
		}
	}

	updated, err := store.MigrateFileURLs(ctx, "https://learnit.example.edu", zap.NewNop())
	if err != nil {
		t.Fatalf("MigrateFileURLs failed: %v", err)
	}
	if updated != 1 {
		t.Errorf("expected 1 updated submission, got %d", updated)
	}

	got, err := store.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	for _, sub := range got.Submissions {
		switch sub.FileURL {
		case "https://learnit.example.edu/uploads/a.pdf", "https://cdn.example.com/b.pdf":
		default:
			t.Errorf("unexpected stored file url %q", sub.FileURL)
		}
	}
}
