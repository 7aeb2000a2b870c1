package notes_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	notesfeature "github.com/learnitedu/learnit/internal/app/features/notes"
	coursestore "github.com/learnitedu/learnit/internal/app/store/courses"
	notestore "github.com/learnitedu/learnit/internal/app/store/notes"
	userstore "github.com/learnitedu/learnit/internal/app/store/users"
	"github.com/learnitedu/learnit/internal/app/system/respond"
	"github.com/learnitedu/learnit/internal/domain/models"
	"github.com/learnitedu/learnit/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandler(db *mongo.Database) *notesfeature.Handler {
	logger := zap.NewNop()
	return notesfeature.NewHandler(
		notestore.New(db), userstore.New(db), coursestore.New(db),
		respond.NewErrorLogger(logger), logger)
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

func TestHandleGet_PublicNoteVisibleAndCounted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	note := fx.CreatePublicNote(ctx, "Shared Wisdom", author.ID)
	reader := fx.CreateStudent(ctx, "Reader", "reader@example.com")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/notes/"+note.ID.Hex(), asUser(reader))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleGet(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"viewCount":1`)
}

func TestHandleGet_PrivateNoteDenied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	note := fx.CreateNote(ctx, "Private Thoughts", author.ID)
	other := fx.CreateStudent(ctx, "Other", "other@example.com")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/notes/"+note.ID.Hex(), asUser(other))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleGet(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
	rec.AssertContains(t, "Access denied")
}

func TestHandleGet_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fx.CreateStudent(ctx, "Reader", "reader@example.com")

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/notes/bogus", asUser(user))
	req = testutil.WithChiURLParam(req, "id", "bogus")

	rec := testutil.NewRecorder()
	h.HandleGet(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Note not found")
}

func TestHandleCreate_SanitizesContentAndDefaultsPublic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")

	req := jsonRequest(http.MethodPost, "/api/notes", map[string]any{
		"title":   "Algebra Basics",
		"content": `<p>hello</p><script>alert("x")</script>`,
		"tags":    []string{"math"},
	}, asUser(admin))

	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, `"isPublic":true`)
	rec.AssertContains(t, "<p>hello</p>")
	if bytes.Contains(rec.Body.Bytes(), []byte("<script>")) {
		t.Fatalf("script tag survived sanitization: %s", rec.Body.String())
	}
}

func TestHandleCreate_UnknownCourse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateAdmin(ctx, "Admin", "admin@example.com")

	req := jsonRequest(http.MethodPost, "/api/notes", map[string]any{
		"title":    "Orphan",
		"content":  "body",
		"courseId": "64b0c0ffee0c0ffee0c0ffee",
	}, asUser(admin))

	rec := testutil.NewRecorder()
	h.HandleCreate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Course not found")
}

func TestHandleUpdate_EditGrantAllows(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	editor := fx.CreateStudent(ctx, "Editor", "editor@example.com")
	note := fx.CreateNote(ctx, "Draft", author.ID)

	store := notestore.New(db)
	if err := store.SetGrant(ctx, note.ID, models.AccessGrant{
		UserID: editor.ID, AccessType: models.AccessEdit,
	}); err != nil {
		t.Fatalf("SetGrant: %v", err)
	}

	req := jsonRequest(http.MethodPut, "/api/notes/"+note.ID.Hex(), map[string]any{
		"title": "Draft v2",
	}, asUser(editor))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Draft v2")
}

func TestHandleUpdate_ReadGrantDenied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	reader := fx.CreateStudent(ctx, "Reader", "reader@example.com")
	note := fx.CreateNote(ctx, "Draft", author.ID)

	store := notestore.New(db)
	if err := store.SetGrant(ctx, note.ID, models.AccessGrant{
		UserID: reader.ID, AccessType: models.AccessRead,
	}); err != nil {
		t.Fatalf("SetGrant: %v", err)
	}

	req := jsonRequest(http.MethodPut, "/api/notes/"+note.ID.Hex(), map[string]any{
		"title": "Hijacked",
	}, asUser(reader))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUpdate(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleDelete_AuthorAllowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	note := fx.CreateNote(ctx, "Disposable", author.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodDelete, "/api/notes/"+note.ID.Hex(), asUser(author))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleDelete(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Note deleted successfully")
}

func TestHandlePostComment_ReadGrantDenied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	reader := fx.CreateStudent(ctx, "Reader", "reader@example.com")
	note := fx.CreateNote(ctx, "Quiet Zone", author.ID)

	store := notestore.New(db)
	if err := store.SetGrant(ctx, note.ID, models.AccessGrant{
		UserID: reader.ID, AccessType: models.AccessRead,
	}); err != nil {
		t.Fatalf("SetGrant: %v", err)
	}

	req := jsonRequest(http.MethodPost, "/api/notes/"+note.ID.Hex()+"/comments",
		map[string]any{"content": "first!"}, asUser(reader))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandlePostComment(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandlePostComment_PublicNote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	commenter := fx.CreateStudent(ctx, "Commenter", "commenter@example.com")
	note := fx.CreatePublicNote(ctx, "Open Thread", author.ID)

	req := jsonRequest(http.MethodPost, "/api/notes/"+note.ID.Hex()+"/comments",
		map[string]any{"content": "nice notes"}, asUser(commenter))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandlePostComment(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusCreated)
	rec.AssertContains(t, "nice notes")
}

func TestHandleDeleteComment_OnlyOwnerOrAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	commenter := fx.CreateStudent(ctx, "Commenter", "commenter@example.com")
	note := fx.CreatePublicNote(ctx, "Open Thread", author.ID)

	store := notestore.New(db)
	comment, err := store.AddComment(ctx, note.ID, models.Comment{
		UserID: commenter.ID, Content: "mine",
	})
	if err != nil {
		t.Fatalf("AddComment: %v", err)
	}

	// The note author does not own the comment, so even they are refused.
	req := testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/api/notes/"+note.ID.Hex()+"/comments/"+comment.ID.Hex(), asUser(author))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())
	req = testutil.WithChiURLParam(req, "commentId", comment.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleDeleteComment(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)

	req = testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/api/notes/"+note.ID.Hex()+"/comments/"+comment.ID.Hex(), asUser(commenter))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())
	req = testutil.WithChiURLParam(req, "commentId", comment.ID.Hex())

	rec = testutil.NewRecorder()
	h.HandleDeleteComment(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Comment deleted successfully")
}

func TestHandleShare_AuthorGrantsAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	friend := fx.CreateStudent(ctx, "Friend", "friend@example.com")
	note := fx.CreateNote(ctx, "Secret", author.ID)

	req := jsonRequest(http.MethodPost, "/api/notes/"+note.ID.Hex()+"/share", map[string]any{
		"userId":     friend.ID.Hex(),
		"accessType": models.AccessComment,
	}, asUser(author))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleShare(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := notestore.New(db).GetByID(ctx, note.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	grant, ok := got.GrantFor(friend.ID)
	if !ok || grant.AccessType != models.AccessComment {
		t.Fatalf("expected comment grant for friend, got %+v", got.AccessList)
	}
}

func TestHandleShare_GranteeCannotShare(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	editor := fx.CreateStudent(ctx, "Editor", "editor@example.com")
	outsider := fx.CreateStudent(ctx, "Outsider", "outsider@example.com")
	note := fx.CreateNote(ctx, "Secret", author.ID)

	store := notestore.New(db)
	if err := store.SetGrant(ctx, note.ID, models.AccessGrant{
		UserID: editor.ID, AccessType: models.AccessEdit,
	}); err != nil {
		t.Fatalf("SetGrant: %v", err)
	}

	req := jsonRequest(http.MethodPost, "/api/notes/"+note.ID.Hex()+"/share", map[string]any{
		"userId":     outsider.ID.Hex(),
		"accessType": models.AccessRead,
	}, asUser(editor))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleShare(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusForbidden)
}

func TestHandleUnshare_RevokesAccess(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	friend := fx.CreateStudent(ctx, "Friend", "friend@example.com")
	note := fx.CreateNote(ctx, "Secret", author.ID)

	store := notestore.New(db)
	if err := store.SetGrant(ctx, note.ID, models.AccessGrant{
		UserID: friend.ID, AccessType: models.AccessRead,
	}); err != nil {
		t.Fatalf("SetGrant: %v", err)
	}

	req := testutil.NewAuthenticatedRequest(http.MethodDelete,
		"/api/notes/"+note.ID.Hex()+"/share/"+friend.ID.Hex(), asUser(author))
	req = testutil.WithChiURLParam(req, "id", note.ID.Hex())
	req = testutil.WithChiURLParam(req, "userId", friend.ID.Hex())

	rec := testutil.NewRecorder()
	h.HandleUnshare(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)

	got, err := store.GetByID(ctx, note.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if _, ok := got.GrantFor(friend.ID); ok {
		t.Fatalf("grant still present after revoke: %+v", got.AccessList)
	}
}

func TestHandleList_VisibilityAndSearch(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	viewer := fx.CreateStudent(ctx, "Viewer", "viewer@example.com")
	fx.CreatePublicNote(ctx, "Calculus Chain Rule", author.ID)
	fx.CreateNote(ctx, "Calculus Private Draft", author.ID)

	req := testutil.NewAuthenticatedRequest(http.MethodGet, "/api/notes?search=calculus", asUser(viewer))
	rec := testutil.NewRecorder()
	h.HandleList(rec.ResponseRecorder, req)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Calculus Chain Rule")
	if bytes.Contains(rec.Body.Bytes(), []byte("Private Draft")) {
		t.Fatalf("private note leaked to non-author: %s", rec.Body.String())
	}
}

func TestHandleStatsPublic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := newHandler(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	author := fx.CreateStudent(ctx, "Author", "author@example.com")
	fx.CreatePublicNote(ctx, "One", author.ID)
	fx.CreatePublicNote(ctx, "Two", author.ID)
	fx.CreateNote(ctx, "Hidden", author.ID)

	rec := testutil.NewRecorder()
	h.HandleStatsPublic(rec.ResponseRecorder, testutil.NewRequest(http.MethodGet, "/api/notes/stats/public"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"totalNotes":2`)
}
