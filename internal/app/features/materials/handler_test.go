package materials_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	materialsfeature "github.com/learnitedu/learnit/internal/app/features/materials"
	materialstore "github.com/learnitedu/learnit/internal/app/store/materials"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/domain/models"
	"github.com/learnitedu/learnit/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *materialsfeature.Handler {
	logger := zap.NewNop()
	return materialsfeature.NewHandler(
		materialstore.New(db), nil, respond.NewErrorLogger(logger), logger)
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

func TestHandleCreateFolder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	educator := fx.CreateEducator(ctx, "Educator", "educator@example.com")

	req := jsonRequest(http.MethodPost, "/api/materials/folders",
		map[string]any{"title": "Week 1 Slides"}, asUser(educator))
	rec := testutil.NewRecorder()
	h.HandleCreateFolder(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "Week 1 Slides")
}

func TestHandleCreateFolder_RequiresTitle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	educator := fx.CreateEducator(ctx, "Educator", "educator@example.com")

	req := jsonRequest(http.MethodPost, "/api/materials/folders",
		map[string]any{"description": "untitled"}, asUser(educator))
	rec := testutil.NewRecorder()
	h.HandleCreateFolder(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Title is required")
}

func TestHandleListFolders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	educator := fx.CreateEducator(ctx, "Educator", "educator@example.com")
	student := fx.CreateStudent(ctx, "Student", "student@example.com")

	store := materialstore.New(db)
	for _, title := range []string{"Week 1", "Week 2"} {
		if _, err := store.Create(ctx, models.MaterialFolder{
			Title: title, CreatedByID: educator.ID,
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/materials/folders", asUser(student))
	rec := testutil.NewRecorder()
	h.HandleListFolders(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Week 1")
	rec.AssertContains(t, "Week 2")
}

func TestHandleUploadFiles_RejectsDisallowedContentType(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	educator := fx.CreateEducator(ctx, "Educator", "educator@example.com")
	folder, err := materialstore.New(db).Create(ctx, models.MaterialFolder{
		Title: "Uploads", CreatedByID: educator.ID,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="files"; filename="movie.mp4"`)
	hdr.Set("Content-Type", "video/mp4")
	fw, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("CreatePart: %v", err)
	}
	if _, err := fw.Write([]byte("not a slide deck")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost,
		"/api/materials/folders/"+folder.ID.Hex()+"/files", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = testutil.WithUser(req, asUser(educator))
	req = testutil.WithChiURLParam(req, "id", folder.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUploadFiles(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Only PPT, PDF, Word, and Excel files are allowed")
}

func TestHandleDeleteFolder_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	educator := fx.CreateEducator(ctx, "Educator", "educator@example.com")

	req := testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/api/materials/folders/64b0c0ffee0c0ffee0c0ffee", asUser(educator))
	req = testutil.WithChiURLParam(req, "id", "64b0c0ffee0c0ffee0c0ffee")
	rec := testutil.NewRecorder()
	h.HandleDeleteFolder(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Folder not found")
}
