package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/docuflow/internal/models"
	"github.com/starford/docuflow/internal/organizer"
	"github.com/starford/docuflow/internal/render"
	"github.com/starford/docuflow/internal/testutil"
)

// testEnv sets up an in-memory catalog, a session and the JSON router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*organizer.Session, http.Handler) {
	t.Helper()
	sess := testutil.TestSession(t)
	return sess, NewRouter(sess, authToken != "", authToken, nil)
}

func testPages(t *testing.T) (*organizer.Session, http.Handler) {
	t.Helper()
	sess := testutil.TestSession(t)
	renderer, err := render.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	r := chi.NewRouter()
	NewPages(sess, renderer, false).Mount(r)
	return sess, r
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func postForm(t *testing.T, h http.Handler, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func getPage(t *testing.T, h http.Handler, target string) string {
	t.Helper()
	w := do(t, h, http.MethodGet, target, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET %s = %d", target, w.Code)
	}
	return w.Body.String()
}

func TestCreateAndListDocuments(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Name: "Contract.pdf", CategoryID: "cat-1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created models.Document
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.Name != "Contract.pdf" || created.CategoryID != "cat-1" {
		t.Errorf("created = %+v", created)
	}
	if created.Type != "pdf" || created.Size != "1.2 MB" {
		t.Errorf("type/size = %q/%q", created.Type, created.Size)
	}
	if len(created.ID) != 9 {
		t.Errorf("id = %q, want 9 chars", created.ID)
	}

	w = do(t, router, http.MethodGet, "/documents", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var list DocumentListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 1 || list.Documents[0].ID != created.ID {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateDocument_DefaultCategory(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Name: "x"})
	var created models.Document
	_ = json.Unmarshal(w.Body.Bytes(), &created)
	if created.CategoryID != "cat-1" {
		t.Errorf("categoryId = %q, want cat-1", created.CategoryID)
	}
}

func TestCreateDocument_EmptyName(t *testing.T) {
	sess, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/documents", CreateDocumentRequest{Name: ""})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp errResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error != organizer.MsgDocumentNameRequired {
		t.Errorf("error = %q", resp.Error)
	}
	if n := len(sess.Store().Documents()); n != 0 {
		t.Errorf("documents = %d, want 0", n)
	}
}

func TestCreateDocument_InvalidJSON(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader("{"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestListDocuments_Filters(t *testing.T) {
	_, router := testEnv(t, "")

	for _, d := range []CreateDocumentRequest{
		{Name: "Lease Agreement", CategoryID: "cat-1"},
		{Name: "Tax Return", CategoryID: "cat-2"},
		{Name: "Lease Renewal", CategoryID: "cat-2"},
	} {
		if w := do(t, router, http.MethodPost, "/documents", d); w.Code != http.StatusCreated {
			t.Fatalf("create = %d", w.Code)
		}
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"Lease Renewal", "Tax Return", "Lease Agreement"}},
		{"?category=cat-2", []string{"Lease Renewal", "Tax Return"}},
		{"?q=LEASE", []string{"Lease Renewal", "Lease Agreement"}},
		{"?category=cat-2&q=lease", []string{"Lease Renewal"}},
		{"?category=cat-4", nil},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodGet, "/documents"+tt.query, nil)
		var list DocumentListResponse
		_ = json.Unmarshal(w.Body.Bytes(), &list)
		var got []string
		for _, d := range list.Documents {
			got = append(got, d.Name)
		}
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("%s: got %v, want %v", tt.query, got, tt.want)
		}
	}
}

func TestDeleteDocument(t *testing.T) {
	sess, router := testEnv(t, "")
	doc, err := sess.AddDocument("bye", "cat-1", &organizer.Scripted{})
	if err != nil {
		t.Fatal(err)
	}

	// Without confirmation nothing happens.
	w := do(t, router, http.MethodDelete, "/documents/"+doc.ID, nil)
	if w.Code != http.StatusPreconditionRequired {
		t.Fatalf("unconfirmed delete = %d, want 428", w.Code)
	}
	var resp ConfirmRequiredResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Prompt != organizer.MsgConfirmDelete {
		t.Errorf("prompt = %q", resp.Prompt)
	}
	if len(sess.Store().Documents()) != 1 {
		t.Fatal("document removed without confirmation")
	}

	w = do(t, router, http.MethodDelete, "/documents/"+doc.ID+"?confirm=true", nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("confirmed delete = %d, want 204", w.Code)
	}
	if len(sess.Store().Documents()) != 0 {
		t.Error("document still present")
	}

	w = do(t, router, http.MethodDelete, "/documents/"+doc.ID+"?confirm=true", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestCategories(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/categories", CreateCategoryRequest{Name: "Travel", Color: "#3b82f6"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/categories", nil)
	var list CategoryListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Categories) != 5 {
		t.Fatalf("categories = %d, want 5", len(list.Categories))
	}
	if last := list.Categories[4]; last.Name != "Travel" || last.Color != "#3b82f6" {
		t.Errorf("last = %+v", last)
	}
}

func TestCreateCategory_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	tests := []struct {
		req  CreateCategoryRequest
		want string
	}{
		{CreateCategoryRequest{Name: "", Color: ""}, organizer.MsgCategoryNameRequired},
		{CreateCategoryRequest{Name: "Travel", Color: ""}, organizer.MsgColorRequired},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodPost, "/categories", tt.req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%+v: status = %d, want 400", tt.req, w.Code)
			continue
		}
		var resp errResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Error != tt.want {
			t.Errorf("%+v: error = %q, want %q", tt.req, resp.Error, tt.want)
		}
	}
}

func TestView(t *testing.T) {
	sess, router := testEnv(t, "")
	if _, err := sess.AddDocument("Budget.xlsx", "cat-2", &organizer.Scripted{}); err != nil {
		t.Fatal(err)
	}
	sess.SelectCategory("cat-2")

	w := do(t, router, http.MethodGet, "/view", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("view = %d", w.Code)
	}
	var v ViewResponse
	_ = json.Unmarshal(w.Body.Bytes(), &v)
	if v.Heading != "Finance Documents" {
		t.Errorf("heading = %q", v.Heading)
	}
	if len(v.Navigation) != 5 || v.Navigation[0].ID != "all" || !v.Navigation[2].Active {
		t.Errorf("navigation = %+v", v.Navigation)
	}
	if len(v.Cards) != 1 || v.Cards[0].Background != "#10b98120" || v.Cards[0].Date != "Mar 5, 2024" {
		t.Errorf("cards = %+v", v.Cards)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"name":"auth"}`))
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("authed create = %d, want 201", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/documents", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); !strings.HasPrefix(got, "Bearer") {
		t.Errorf("WWW-Authenticate = %q", got)
	}
}

func TestAuthMiddleware_SchemeCaseInsensitive(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("lowercase scheme = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/documents", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingHandler stands in for the broker: it writes 200 and waits for the
// client to go away.
var blockingHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := NewRouter(testutil.TestSession(t), true, "secret", blockingHandler)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := NewRouter(testutil.TestSession(t), false, "", blockingHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE disabled auth = %d, want 200", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := NewRouter(testutil.TestSession(t), true, "tok", blockingHandler)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

// Page routes.

func TestIndex(t *testing.T) {
	_, pages := testPages(t)

	body := getPage(t, pages, "/")
	if !strings.Contains(body, "<h1 id=\"page-title\">All Documents</h1>") {
		t.Errorf("missing heading in %s", body)
	}
	if !strings.Contains(body, "No documents found") {
		t.Error("empty state not shown")
	}
	if strings.Contains(body, "EventSource") {
		t.Error("live updates script rendered while disabled")
	}
}

func TestIndex_QueryUpdatesSession(t *testing.T) {
	sess, pages := testPages(t)

	body := getPage(t, pages, "/?category=cat-3&q=passport")
	if !strings.Contains(body, "Personal Documents") {
		t.Error("heading not updated")
	}
	if sess.ActiveCategory() != "cat-3" || sess.Search() != "passport" {
		t.Errorf("session = %q/%q", sess.ActiveCategory(), sess.Search())
	}

	// A bare GET keeps the filters.
	getPage(t, pages, "/")
	if sess.ActiveCategory() != "cat-3" || sess.Search() != "passport" {
		t.Errorf("filters reset by bare GET: %q/%q", sess.ActiveCategory(), sess.Search())
	}
}

func TestSelectCategoryForm(t *testing.T) {
	sess, pages := testPages(t)

	w := postForm(t, pages, "/categories/select", url.Values{"category": {"cat-4"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if sess.ActiveCategory() != "cat-4" {
		t.Errorf("active = %q", sess.ActiveCategory())
	}
}

func TestCreateDocumentForm(t *testing.T) {
	sess, pages := testPages(t)

	postForm(t, pages, "/dialogs/upload/open", nil)
	w := postForm(t, pages, "/documents", url.Values{"name": {"Will.pdf"}, "category": {"cat-3"}})
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("status = %d, location = %q", w.Code, w.Header().Get("Location"))
	}
	docs := sess.Store().Documents()
	if len(docs) != 1 || docs[0].Name != "Will.pdf" || docs[0].CategoryID != "cat-3" {
		t.Fatalf("documents = %+v", docs)
	}
	v := sess.View()
	if v.Upload.Visible || v.Upload.Name != "" {
		t.Errorf("upload dialog = %+v, want closed and cleared", v.Upload)
	}

	body := getPage(t, pages, "/")
	if !strings.Contains(body, "Will.pdf") || !strings.Contains(body, "fa-file-pdf") {
		t.Error("card not rendered")
	}
}

func TestCreateDocumentForm_EmptyNameNotice(t *testing.T) {
	sess, pages := testPages(t)

	w := postForm(t, pages, "/documents", url.Values{"name": {""}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if len(sess.Store().Documents()) != 0 {
		t.Error("document created with empty name")
	}
	body := getPage(t, pages, "/")
	if !strings.Contains(body, organizer.MsgDocumentNameRequired) {
		t.Error("notice not flashed")
	}
	// Flashed once only.
	if strings.Contains(getPage(t, pages, "/"), organizer.MsgDocumentNameRequired) {
		t.Error("notice shown twice")
	}
}

func TestDeleteDocumentForm(t *testing.T) {
	sess, pages := testPages(t)
	doc, err := sess.AddDocument("Old.pdf", "cat-1", &organizer.Scripted{})
	if err != nil {
		t.Fatal(err)
	}
	target := "/documents/" + doc.ID + "/delete"

	// First post asks.
	postForm(t, pages, target, nil)
	body := getPage(t, pages, "/")
	if !strings.Contains(body, organizer.MsgConfirmDelete) || !strings.Contains(body, `action="`+target+`"`) {
		t.Fatal("confirmation prompt not rendered")
	}
	if len(sess.Store().Documents()) != 1 {
		t.Fatal("deleted before confirmation")
	}

	// Declined.
	postForm(t, pages, target, url.Values{"confirm": {"no"}})
	if len(sess.Store().Documents()) != 1 {
		t.Fatal("deleted after decline")
	}
	if strings.Contains(getPage(t, pages, "/"), organizer.MsgConfirmDelete) {
		t.Error("prompt still pending after decline")
	}

	// Confirmed.
	postForm(t, pages, target, url.Values{"confirm": {"yes"}})
	if len(sess.Store().Documents()) != 0 {
		t.Error("document not deleted after confirmation")
	}
}

func TestOpenDocumentForm(t *testing.T) {
	sess, pages := testPages(t)
	doc, _ := sess.AddDocument("a", "", &organizer.Scripted{})

	postForm(t, pages, "/documents/"+doc.ID+"/open", nil)
	if !strings.Contains(getPage(t, pages, "/"), organizer.MsgPreviewUnavailable) {
		t.Error("preview notice not shown")
	}
}

func TestPickFile(t *testing.T) {
	sess, pages := testPages(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "scan.png")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("not read"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/documents/pick", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	pages.ServeHTTP(w, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	v := sess.View()
	if v.Upload.Name != "scan.png" || !v.Upload.Visible {
		t.Errorf("upload dialog = %+v", v.Upload)
	}
	if len(sess.Store().Documents()) != 0 {
		t.Error("picking a file must not create a document")
	}
}

func TestCategoryDialogForm(t *testing.T) {
	sess, pages := testPages(t)

	postForm(t, pages, "/dialogs/category/open", nil)
	if !sess.View().CategoryDialog.Visible {
		t.Fatal("category dialog not opened")
	}

	// Picking a swatch keeps the typed name.
	postForm(t, pages, "/dialogs/category/color", url.Values{"name": {"Travel"}, "color": {"#8b5cf6"}})
	v := sess.View()
	if v.CategoryDialog.Name != "Travel" {
		t.Errorf("name = %q", v.CategoryDialog.Name)
	}
	var selected []string
	for _, s := range v.CategoryDialog.Swatches {
		if s.Selected {
			selected = append(selected, s.Color)
		}
	}
	if len(selected) != 1 || selected[0] != "#8b5cf6" {
		t.Errorf("selected = %v", selected)
	}

	postForm(t, pages, "/categories", url.Values{"name": {"Travel"}})
	cats := sess.Store().Categories()
	if len(cats) != 5 || cats[4].Color != "#8b5cf6" {
		t.Fatalf("categories = %+v", cats)
	}
	if sess.View().CategoryDialog.Visible {
		t.Error("dialog still open after save")
	}
	if !strings.Contains(getPage(t, pages, "/"), "Travel") {
		t.Error("new category missing from sidebar")
	}
}

func TestCreateCategoryForm_MissingColor(t *testing.T) {
	sess, pages := testPages(t)

	postForm(t, pages, "/categories", url.Values{"name": {"Travel"}})
	if len(sess.Store().Categories()) != 4 {
		t.Error("category created without a color")
	}
	if !strings.Contains(getPage(t, pages, "/"), organizer.MsgColorRequired) {
		t.Error("color notice not shown")
	}
}

func TestToggleDialog(t *testing.T) {
	sess, pages := testPages(t)

	postForm(t, pages, "/dialogs/upload/open", nil)
	if !sess.View().Upload.Visible {
		t.Error("upload dialog not opened")
	}
	postForm(t, pages, "/dialogs/upload/close", nil)
	if sess.View().Upload.Visible {
		t.Error("upload dialog not closed")
	}

	w := postForm(t, pages, "/dialogs/settings/open", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown dialog = %d, want 404", w.Code)
	}
}

func TestFragments(t *testing.T) {
	sess, pages := testPages(t)
	if _, err := sess.AddDocument("Photo.jpg", "cat-3", &organizer.Scripted{}); err != nil {
		t.Fatal(err)
	}

	grid := getPage(t, pages, "/fragments/grid")
	if !strings.Contains(grid, "Photo.jpg") || strings.Contains(grid, "<html") {
		t.Errorf("grid fragment = %s", grid)
	}
	nav := getPage(t, pages, "/fragments/nav")
	if !strings.Contains(nav, "All Documents") || !strings.Contains(nav, "Personal") {
		t.Errorf("nav fragment = %s", nav)
	}
}

func TestListCategories_ETag(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/categories", nil)
	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}

	req := httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotModified {
		t.Errorf("conditional GET = %d, want 304", w.Code)
	}

	do(t, router, http.MethodPost, "/categories", CreateCategoryRequest{Name: "Travel", Color: "#3b82f6"})
	req = httptest.NewRequest(http.MethodGet, "/categories", nil)
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("GET after change = %d, want 200", w.Code)
	}
}
