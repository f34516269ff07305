package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/getlost/portal/internal/bundler"
	"github.com/getlost/portal/internal/contentservice"
	"github.com/getlost/portal/internal/contentstore"
	"github.com/getlost/portal/internal/models"
	"github.com/getlost/portal/internal/testutil"
)

type noEvents struct{}

func (noEvents) PublishContentEvent(event, id, bookID string, images, videos int) {}

// testEnv sets up a temp content store, asset store, service, and router.
// authToken="" means disabled mode; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*contentstore.DB, http.Handler) {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, sseHandler http.Handler) (*contentstore.DB, http.Handler) {
	t.Helper()

	db := testutil.TestDB(t)
	assets := testutil.TestAssets(t)
	b := bundler.New(bundler.WithVideoStore(assets))
	svc := contentservice.NewService(db, assets, b, t.TempDir(), nil, noEvents{})
	router := NewRouter(svc, authEnabled, authToken, sseHandler)
	return db, router
}

func seedRecord(t *testing.T, db *contentstore.DB, title string, filenames ...string) *models.Record {
	t.Helper()
	rec := &models.Record{
		Kind:     models.KindReport,
		BookID:   models.SeedBucketID,
		Title:    title,
		HTML:     "<html>" + title + "</html>",
		Metadata: models.Metadata{UploadFileNames: filenames}.Encode(),
	}
	if err := db.Insert(rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func uploadReport(t *testing.T, router http.Handler, bookID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("book_id", bookID)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = io.Copy(part, bytes.NewReader(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/reports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadAndGetReport(t *testing.T) {
	_, router := testEnv(t, "")

	w := uploadReport(t, router, "book-1", "analysis.html", []byte("<p>report</p>"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var detail UploadDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if detail.Linked {
		t.Error("fresh upload should not be linked")
	}
	if detail.Record.Title != "analysis" {
		t.Errorf("title = %q", detail.Record.Title)
	}

	req := httptest.NewRequest(http.MethodGet, "/content/"+detail.Record.ID, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d", w.Code)
	}
	var rec models.Record
	_ = json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.BookID != "book-1" {
		t.Errorf("book id = %q", rec.BookID)
	}
}

func TestUploadReport_MissingBookID(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "x.html")
	_, _ = part.Write([]byte("<p>x</p>"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/reports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing book_id = %d, want 400", w.Code)
	}
}

func TestUploadReport_MissingFileField(t *testing.T) {
	_, router := testEnv(t, "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("book_id", "b")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/reports/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestUploadReport_LinksSeededContent(t *testing.T) {
	db, router := testEnv(t, "")
	seedRecord(t, db, "Beach Read", "BeachRead.pdf")

	w := uploadReport(t, router, "book-2", "Beach Read by Emily Henry.pdf", []byte("%PDF-1.4 x"))
	if w.Code != http.StatusCreated {
		t.Fatalf("upload = %d, body = %s", w.Code, w.Body.String())
	}
	var detail UploadDetail
	_ = json.Unmarshal(w.Body.Bytes(), &detail)
	if !detail.Linked {
		t.Fatal("expected seeded link")
	}
	if detail.Record.HTML != "<html>Beach Read</html>" {
		t.Errorf("html = %q", detail.Record.HTML)
	}
}

func TestListBookContent(t *testing.T) {
	_, router := testEnv(t, "")

	for _, name := range []string{"one.html", "two.html"} {
		if w := uploadReport(t, router, "book-3", name, []byte("<p>r</p>")); w.Code != http.StatusCreated {
			t.Fatalf("upload %s = %d", name, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/books/book-3/content", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp RecordListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
}

func TestListBookContent_UnknownKind(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/books/b/content?kind=banana", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind = %d, want 400", w.Code)
	}
}

func TestListSeeded(t *testing.T) {
	db, router := testEnv(t, "")
	seedRecord(t, db, "Wool", "wool.pdf")
	seedRecord(t, db, "Northern Hearts", "northern-hearts.pdf")

	req := httptest.NewRequest(http.MethodGet, "/seeded?kind=report", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list seeded = %d", w.Code)
	}
	var resp RecordListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	// Seed insertion order.
	if resp.Records[0].Title != "Wool" {
		t.Errorf("first = %q", resp.Records[0].Title)
	}
}

func TestLinkSeededEndpoint(t *testing.T) {
	db, router := testEnv(t, "")
	seed := seedRecord(t, db, "Cover Pack", "cover.zip")

	body, _ := json.Marshal(LinkRequest{BookID: "book-4"})
	req := httptest.NewRequest(http.MethodPost, "/seeded/"+seed.ID+"/link", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("link = %d, body = %s", w.Code, w.Body.String())
	}
	var rec models.Record
	_ = json.Unmarshal(w.Body.Bytes(), &rec)
	if rec.BookID != "book-4" || rec.ID == seed.ID {
		t.Errorf("linked = %+v", rec)
	}
}

func TestLinkSeeded_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	body, _ := json.Marshal(LinkRequest{BookID: "b"})
	req := httptest.NewRequest(http.MethodPost, "/seeded/missing-id/link", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("link missing = %d, want 404", w.Code)
	}
}

func TestLinkSeeded_MissingBookID(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/seeded/x/link", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no book_id = %d, want 400", w.Code)
	}
}

func TestMatchEndpoint(t *testing.T) {
	db, router := testEnv(t, "")
	seedRecord(t, db, "Everlasting Gift", "everlasting-gift-final.pdf")

	req := httptest.NewRequest(http.MethodGet, "/seeded/match?filename=Everlasting+Gift.pdf&kind=report", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("match = %d", w.Code)
	}
	var resp MatchResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Matched || resp.Record == nil {
		t.Fatalf("resp = %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/seeded/match?filename=Wool.pdf", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Matched {
		t.Error("unrelated filename should not match")
	}
}

func TestMatchMissingFilename(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/seeded/match", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no filename = %d, want 400", w.Code)
	}
}

func TestGetRecord_NotFound(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/content/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing record = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/seeded", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/seeded", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/seeded", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/seeded", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

func sseStub() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router := testEnvFull(t, true, "secret", sseStub())

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router := testEnvFull(t, true, "tok", sseStub())

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

// Asset serving tests.

func assetRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.TestDB(t)
	assets := testutil.TestAssets(t)
	b := bundler.New(bundler.WithVideoStore(assets))
	_ = contentservice.NewService(db, assets, b, t.TempDir(), nil, noEvents{})

	ah := NewAssetHandler(assets)
	r := chi.NewRouter()
	r.Get("/assets/{scopeID}/{category}/{filename}", ah.ServeFile)

	if _, err := assets.Store([]byte("mp4-bytes"), "book-1", "videos", "clip.mp4"); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestServeAsset(t *testing.T) {
	r := assetRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/assets/book-1/videos/clip.mp4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("serve asset = %d", w.Code)
	}
	if w.Body.String() != "mp4-bytes" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestServeAsset_NotFound(t *testing.T) {
	r := assetRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/assets/book-1/videos/missing.mp4", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing asset = %d, want 404", w.Code)
	}
}

func TestServeAsset_TraversalBlocked(t *testing.T) {
	r := assetRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/assets/book-1/videos/..%2F..%2Fsecret", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Errorf("traversal should not return 200, got %d", w.Code)
	}
}
