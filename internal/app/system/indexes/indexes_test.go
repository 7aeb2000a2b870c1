package indexes_test

import (
	"testing"

	"github.com/learnitedu/learnit/internal/app/system/indexes"
	"github.com/learnitedu/learnit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, db *mongo.Database, collection string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", collection, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUserIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "users")
	for _, name := range []string{
		"uniq_users_email",
		"uniq_users_username",
		"idx_users_role_created",
		"idx_users_googleid",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on users collection", name)
		}
	}
}

func TestEnsureAll_CreatesNoteIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "notes")
	for _, name := range []string{
		"idx_notes_author_created",
		"idx_notes_public_created",
		"idx_notes_grant_user",
		"idx_notes_course",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on notes collection", name)
		}
	}
}

func TestEnsureAll_CreatesAssignmentIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "assignments")
	for _, name := range []string{
		"idx_assignments_active_due",
		"idx_assignments_creator_created",
		"idx_assignments_submission_student",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on assignments collection", name)
		}
	}
}

func TestEnsureAll_CreatesQuizResultIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "quiz_results")
	for _, name := range []string{
		"uniq_quiz_student_course",
		"idx_quiz_student_submitted",
	} {
		if !names[name] {
			t.Errorf("expected index %q to exist on quiz_results collection", name)
		}
	}
}

func TestEnsureAll_CreatesOAuthStateIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if names := indexNames(t, db, "oauth_states"); !names["ttl_oauth_states"] {
		t.Error("expected index ttl_oauth_states to exist on oauth_states collection")
	}
}

func TestEnsureAll_UniqueEmailEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	_, err := db.Collection("users").InsertOne(ctx, bson.M{"email": "dup@example.com", "username": "first"})
	if err != nil {
		t.Fatalf("Insert user failed: %v", err)
	}
	_, err = db.Collection("users").InsertOne(ctx, bson.M{"email": "dup@example.com", "username": "second"})
	if err == nil {
		t.Error("expected duplicate key error for unique index on users.email")
	}
}
