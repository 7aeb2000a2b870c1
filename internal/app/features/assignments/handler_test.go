package assignments_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	assignmentsfeature "github.com/learnitedu/learnit/internal/app/features/assignments"
	assignmentstore "github.com/learnitedu/learnit/internal/app/store/assignments"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/domain/models"
	"github.com/learnitedu/learnit/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *assignmentsfeature.Handler {
	logger := zap.NewNop()
	return assignmentsfeature.NewHandler(
		assignmentstore.New(db), nil, respond.NewErrorLogger(logger), logger)
}

func asUser(u models.User) testutil.TestUser {
	return testutil.AsTestUser(u.ID, u.Username, u.Email, u.FullName, u.Role)
}

func jsonRequest(method, target string, body any, user testutil.TestUser) *http.Request {
	buf, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set("Content-Type", "application/json")
	return testutil.WithUser(req, user)
}

func multipartRequest(t *testing.T, target, fileName string, user testutil.TestUser) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := fw.Write([]byte("file body")); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return testutil.WithUser(req, user)
}

func TestHandleCreate_NormalizesCommaStringExtensions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")

	req := jsonRequest(http.MethodPost, "/api/assignments", map[string]any{
		"title":             "Essay",
		"fileType":          "document",
		"allowedExtensions": "doc, docx",
	}, asUser(admin))

	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `".doc"`)
	rec.AssertContains(t, `".docx"`)
}

func TestHandleCreate_RejectsBadFileType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")

	req := jsonRequest(http.MethodPost, "/api/assignments", map[string]any{
		"title":    "Mystery",
		"fileType": "hologram",
	}, asUser(admin))

	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestHandleSubmit_URLAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	a := fx.CreateAssignment(ctx, "Link Drop", models.FileTypeURL, admin.ID)

	req := jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.Hex()+"/submit", map[string]any{
		"url":      "https://example.com/work",
		"comments": "done early",
	}, asUser(student))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "https://example.com/work")
	rec.AssertContains(t, `"fileType":"url"`)
}

func TestHandleSubmit_URLMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	a := fx.CreateAssignment(ctx, "Link Drop", models.FileTypeURL, admin.ID)

	req := jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.Hex()+"/submit",
		map[string]any{"comments": "oops"}, asUser(student))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "URL is required for this assignment")
}

func TestHandleSubmit_DuplicateRejected(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	a := fx.CreateAssignment(ctx, "Link Drop", models.FileTypeURL, admin.ID)

	submit := func() *testutil.ResponseRecorder {
		req := jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.Hex()+"/submit",
			map[string]any{"url": "https://example.com/work"}, asUser(student))
		req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleSubmit(rec.ResponseRecorder, req)
		return rec
	}

	submit().AssertStatus(t, http.StatusCreated)

	rec := submit()
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "You have already submitted this assignment")
}

func TestHandleSubmit_AdminForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	a := fx.CreateAssignment(ctx, "Link Drop", models.FileTypeURL, admin.ID)

	req := jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.Hex()+"/submit",
		map[string]any{"url": "https://example.com/work"}, asUser(admin))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleSubmit_InactiveAssignment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	a := fx.CreateAssignment(ctx, "Closed", models.FileTypeURL, admin.ID)

	if err := assignmentstore.New(db).Update(ctx, a.ID, models.Assignment{IsActive: false}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	req := jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.Hex()+"/submit",
		map[string]any{"url": "https://example.com/work"}, asUser(student))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "Assignment is not active")
}

func TestHandleSubmit_DisallowedExtension(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")

	a, err := assignmentstore.New(db).Create(ctx, models.Assignment{
		Title:             "PDF Only",
		FileType:          models.FileTypePDF,
		AllowedExtensions: []string{"pdf"},
		IsActive:          true,
		CreatedByID:       admin.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := multipartRequest(t, "/api/assignments/"+a.ID.Hex()+"/submit", "homework.exe", asUser(student))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "File type not allowed")
}

func TestHandleSubmit_FileMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	a := fx.CreateAssignment(ctx, "Upload", models.FileTypePDF, admin.ID)

	req := multipartRequest(t, "/api/assignments/"+a.ID.Hex()+"/submit", "", asUser(student))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleSubmit(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "File is required for this assignment")
}

func TestHandleGet_InactiveHiddenFromStudents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	a := fx.CreateAssignment(ctx, "Hidden", models.FileTypeURL, admin.ID)

	if err := assignmentstore.New(db).Update(ctx, a.ID, models.Assignment{IsActive: false}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assignments/"+a.ID.Hex(), asUser(student))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleGet(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "Assignment not available")

	req = testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assignments/"+a.ID.Hex(), asUser(admin))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
	rec = testutil.NewRecorder()
	h.HandleGet(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
}

func TestHandleGrade(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	a := fx.CreateAssignment(ctx, "Link Drop", models.FileTypeURL, admin.ID)

	req := jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.Hex()+"/submit",
		map[string]any{"url": "https://example.com/work"}, asUser(student))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleSubmit(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)

	got, err := assignmentstore.New(db).GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	sub, found := got.SubmissionBy(student.ID)
	if !found {
		t.Fatal("submission not recorded")
	}

	req = jsonRequest(http.MethodPut,
		"/api/assignments/"+a.ID.Hex()+"/submissions/"+sub.ID.Hex()+"/grade",
		map[string]any{"grade": 92.5, "feedback": "solid work"}, asUser(admin))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
	req = testutil.WithChiURLParam(req, "submissionId", sub.ID.Hex())

	rec = testutil.NewRecorder()
	h.HandleGrade(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"grade":92.5`)
	rec.AssertContains(t, "solid work")
}

func TestHandleGrade_OutOfRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	a := fx.CreateAssignment(ctx, "Link Drop", models.FileTypeURL, admin.ID)
	subID := a.ID // any well-formed hex works, the body check runs first

	req := jsonRequest(http.MethodPut,
		"/api/assignments/"+a.ID.Hex()+"/submissions/"+subID.Hex()+"/grade",
		map[string]any{"grade": 150}, asUser(admin))
	req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
	req = testutil.WithChiURLParam(req, "submissionId", subID.Hex())

	rec := testutil.NewRecorder()
	h.HandleGrade(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Grade must be between 0 and 100")
}

func TestHandleUserSubmissions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")
	other := fx.CreateStudent(ctx, "Other", "other@example.com")
	a := fx.CreateAssignment(ctx, "Link Drop", models.FileTypeURL, admin.ID)
	fx.CreateAssignment(ctx, "Untouched", models.FileTypeURL, admin.ID)

	for _, u := range []models.User{student, other} {
		req := jsonRequest(http.MethodPost, "/api/assignments/"+a.ID.Hex()+"/submit",
			map[string]any{"url": "https://example.com/" + u.Username}, asUser(u))
		req = testutil.WithChiURLParam(req, "id", a.ID.Hex())
		rec := testutil.NewRecorder()
		h.HandleSubmit(rec.ResponseRecorder, req)
		rec.AssertStatus(t, http.StatusCreated)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/assignments/user/submissions", asUser(student))
	rec := testutil.NewRecorder()
	h.HandleUserSubmissions(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Link Drop")
	rec.AssertContains(t, "https://example.com/"+student.Username)
	if bytes.Contains(rec.Body.Bytes(), []byte(other.Username)) {
		t.Fatalf("another student's submission leaked: %s", rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("Untouched")) {
		t.Fatalf("assignment without a submission listed: %s", rec.Body.String())
	}
}
