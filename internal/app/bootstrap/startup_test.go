package bootstrap

import (
	"testing"

	"github.com/learnitedu/learnit/internal/domain/models"
	"github.com/learnitedu/learnit/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func TestEnsureAdminUser_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}

	if err := ensureAdminUser(ctx, deps, "admin@test.com", testLogger()); err != nil {
		t.Fatalf("ensureAdminUser failed: %v", err)
	}

	var user models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"email": "admin@test.com"}).Decode(&user)
	if err != nil {
		t.Fatalf("failed to find created user: %v", err)
	}

	if user.Role != "admin" {
		t.Errorf("expected role 'admin', got %q", user.Role)
	}
	if user.Username != "admin" {
		t.Errorf("expected username 'admin', got %q", user.Username)
	}
	if user.Password == "" {
		t.Error("expected a password hash to be set")
	}
}

func TestEnsureAdminUser_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fx.CreateStudent(ctx, "Existing User", "existing@test.com")

	deps := DBDeps{MongoDatabase: db}

	if err := ensureAdminUser(ctx, deps, "existing@test.com", testLogger()); err != nil {
		t.Fatalf("ensureAdminUser failed: %v", err)
	}

	var user models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"_id": existing.ID}).Decode(&user)
	if err != nil {
		t.Fatalf("failed to find user: %v", err)
	}

	if user.Role != "admin" {
		t.Errorf("expected role 'admin', got %q", user.Role)
	}
	if user.FullName != "Existing User" {
		t.Errorf("promotion should not touch the name, got %q", user.FullName)
	}
}

func TestEnsureAdminUser_AlreadyAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@test.com")

	deps := DBDeps{MongoDatabase: db}

	if err := ensureAdminUser(ctx, deps, "admin@test.com", testLogger()); err != nil {
		t.Fatalf("ensureAdminUser failed: %v", err)
	}

	var user models.User
	err := db.Collection("users").FindOne(ctx, bson.M{"_id": admin.ID}).Decode(&user)
	if err != nil {
		t.Fatalf("failed to find user: %v", err)
	}
	if user.Role != "admin" {
		t.Errorf("expected role 'admin', got %q", user.Role)
	}
}
