package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/learnitedu/learnit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// FixturePassword is the plaintext behind every fixture user's hash.
const FixturePassword = "test-password-1"

// CreateUser creates a test user with the given parameters. The username is
// derived from the local part of the email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email, role string) models.User {
	f.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(FixturePassword), bcrypt.MinCost)
	if err != nil {
		f.t.Fatalf("hash fixture password: %v", err)
	}

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Username:  strings.SplitN(email, "@", 2)[0],
		Email:     email,
		Password:  string(hash),
		FullName:  fullName,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateAdmin creates a test admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "admin")
}

// CreateEducator creates a test educator user.
func (f *Fixtures) CreateEducator(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "educator")
}

// CreateStudent creates a test student user.
func (f *Fixtures) CreateStudent(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, email, "student")
}

// CreateNote creates a private test note owned by authorID.
func (f *Fixtures) CreateNote(ctx context.Context, title string, authorID primitive.ObjectID) models.Note {
	f.t.Helper()

	now := time.Now().UTC()
	note := models.Note{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Content:   "<p>fixture content</p>",
		AuthorID:  authorID,
		IsPublic:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("notes").InsertOne(ctx, note); err != nil {
		f.t.Fatalf("failed to create test note: %v", err)
	}
	return note
}

// CreatePublicNote creates a public test note owned by authorID.
func (f *Fixtures) CreatePublicNote(ctx context.Context, title string, authorID primitive.ObjectID) models.Note {
	f.t.Helper()

	note := f.CreateNote(ctx, title, authorID)
	if _, err := f.db.Collection("notes").UpdateByID(ctx, note.ID,
		map[string]any{"$set": map[string]any{"is_public": true}}); err != nil {
		f.t.Fatalf("failed to publish test note: %v", err)
	}
	note.IsPublic = true
	return note
}

// CreateAssignment creates an active test assignment accepting the given
// file type.
func (f *Fixtures) CreateAssignment(ctx context.Context, title, fileType string, createdBy primitive.ObjectID) models.Assignment {
	f.t.Helper()

	now := time.Now().UTC()
	a := models.Assignment{
		ID:            primitive.NewObjectID(),
		Title:         title,
		Description:   "fixture assignment",
		FileType:      fileType,
		DueDate:       now.Add(7 * 24 * time.Hour),
		MaxFileSizeMB: models.DefaultMaxFileSizeMB,
		IsActive:      true,
		CreatedByID:   createdBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if _, err := f.db.Collection("assignments").InsertOne(ctx, a); err != nil {
		f.t.Fatalf("failed to create test assignment: %v", err)
	}
	return a
}

// CreateCourse creates an active test course run by instructorID.
func (f *Fixtures) CreateCourse(ctx context.Context, title, code string, instructorID primitive.ObjectID) models.Course {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Course{
		ID:           primitive.NewObjectID(),
		Title:        title,
		Description:  "fixture course",
		Code:         strings.ToUpper(code),
		InstructorID: instructorID,
		Category:     "general",
		Level:        models.LevelBeginner,
		IsActive:     true,
		MaxStudents:  models.DefaultMaxStudents,
		StartDate:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := f.db.Collection("courses").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test course: %v", err)
	}
	return c
}
