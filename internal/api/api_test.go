package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

type env struct {
	router http.Handler
	store  storage.Provider
	db     *index.DB
	logger *slog.Logger
}

// testEnv sets up a temp vault, SQLite DB, intake stack, service, and router.
// authToken="" means auth disabled; non-empty means token mode.
func testEnv(t *testing.T, authToken string) *env {
	t.Helper()
	return testEnvFull(t, authToken != "", authToken, nil)
}

func testEnvFull(t *testing.T, authEnabled bool, token string, sseHandler http.Handler) *env {
	t.Helper()
	stack := testutil.NewStack(t)
	router := NewRouter(stack.Service, authEnabled, token, sseHandler)
	return &env{router: router, store: stack.Store, db: stack.DB, logger: stack.Logger}
}

// pageServer serves a couple of small titled pages for the pipeline to fetch.
func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hello":
			_, _ = w.Write([]byte(`<html><head><title>Hello World</title></head><body>uniquetoken here</body></html>`))
		case "/second":
			_, _ = w.Write([]byte(`<html><head><title>Second Page</title></head><body>more words</body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func clipLink(t *testing.T, e *env, link string) Capture {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"url": link})
	req := httptest.NewRequest(http.MethodPost, "/clips", bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("clip status = %d, body = %s", w.Code, w.Body.String())
	}
	var captured Capture
	if err := json.Unmarshal(w.Body.Bytes(), &captured); err != nil {
		t.Fatalf("decode capture: %v", err)
	}
	return captured
}

func TestClipAndGetClip(t *testing.T) {
	e := testEnv(t, "")
	srv := pageServer(t)

	captured := clipLink(t, e, srv.URL+"/hello")
	if captured.NotePath != "Clips/hello-world.md" {
		t.Errorf("note = %q", captured.NotePath)
	}
	if captured.Category != models.CategoryArticle {
		t.Errorf("category = %q", captured.Category)
	}

	req := httptest.NewRequest(http.MethodGet, "/clips/Clips/hello-world.md", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var clip ClipDetail
	_ = json.Unmarshal(w.Body.Bytes(), &clip)
	if clip.Title != "Hello World" {
		t.Errorf("title = %q, want Hello World", clip.Title)
	}
	if clip.URL != srv.URL+"/hello" {
		t.Errorf("url = %q", clip.URL)
	}
	if clip.Origin != "api" {
		t.Errorf("origin = %q, want api", clip.Origin)
	}
}

func TestClipLink_Validation(t *testing.T) {
	e := testEnv(t, "")

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", "{"},
		{"missing url", `{}`},
		{"wrong scheme", `{"url":"ftp://example.org/file"}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/clips", bytes.NewReader([]byte(tc.body)))
		w := httptest.NewRecorder()
		e.router.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tc.name, w.Code)
		}
	}
}

func TestListClips(t *testing.T) {
	e := testEnv(t, "")
	srv := pageServer(t)

	clipLink(t, e, srv.URL+"/hello")
	clipLink(t, e, srv.URL+"/second")
	if err := index.Sync(e.db, e.store, "Clips", e.logger); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/clips?limit=10", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list = %d", w.Code)
	}
	var resp struct {
		Clips []ClipListItem `json:"clips"`
		Total int            `json:"total"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 || len(resp.Clips) != 2 {
		t.Errorf("clips = %d, total = %d, want 2/2", len(resp.Clips), resp.Total)
	}

	req = httptest.NewRequest(http.MethodGet, "/clips?category=article", nil)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Total != 2 {
		t.Errorf("article total = %d, want 2", resp.Total)
	}

	req = httptest.NewRequest(http.MethodGet, "/clips?category=banana", nil)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown category = %d, want 400", w.Code)
	}
}

func TestScanEndpoint(t *testing.T) {
	e := testEnv(t, "")
	srv := pageServer(t)

	doc := "Daily/2026-08-21.md"
	if err := e.store.Write(doc, []byte("Reading list:\n"+srv.URL+"/hello\n")); err != nil {
		t.Fatal(err)
	}

	body, _ := json.Marshal(map[string]string{"doc": doc})
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("scan = %d, body = %s", w.Code, w.Body.String())
	}

	if _, err := e.store.Read("Clips/hello-world.md"); err != nil {
		t.Errorf("scan did not clip: %v", err)
	}

	// A second scan of the same note must not duplicate anything.
	req = httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(body))
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("rescan = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ledgers/article", nil)
	w = httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	var ledgerDoc LedgerResponse
	_ = json.Unmarshal(w.Body.Bytes(), &ledgerDoc)
	if len(ledgerDoc.Entries) != 1 {
		t.Errorf("ledger entries = %d, want 1", len(ledgerDoc.Entries))
	}
}

func TestScanEndpoint_MissingDocIsOK(t *testing.T) {
	e := testEnv(t, "")

	body, _ := json.Marshal(map[string]string{"doc": "Daily/ghost.md"})
	req := httptest.NewRequest(http.MethodPost, "/scan", bytes.NewReader(body))
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("scan of missing doc = %d, want 200", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := testEnv(t, "")
	srv := pageServer(t)

	clipLink(t, e, srv.URL+"/hello")
	if err := index.Sync(e.db, e.store, "Clips", e.logger); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/search?q=uniquetoken", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	results := resp["results"].([]any)
	if len(results) != 1 {
		t.Errorf("search results = %d, want 1", len(results))
	}
}

func TestSearchMissingQuery(t *testing.T) {
	e := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestLedgerEndpoint_UnknownCategory(t *testing.T) {
	e := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/ledgers/banana", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown ledger = %d, want 404", w.Code)
	}
}

func TestLedgerEndpoint_EmptyLedger(t *testing.T) {
	e := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/ledgers/product", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("empty ledger = %d, want 200", w.Code)
	}
	var doc LedgerResponse
	_ = json.Unmarshal(w.Body.Bytes(), &doc)
	if doc.Entries == nil || len(doc.Entries) != 0 {
		t.Errorf("entries = %v, want empty array", doc.Entries)
	}
}

func TestGetClip_NotFound(t *testing.T) {
	e := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/clips/Clips/nope.md", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing clip = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/clips", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/clips", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/clips", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	e := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/clips", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// sseStub writes headers and blocks until context done.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := testEnvFull(t, true, "secret", sseStub)

	// No token → 401.
	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	e := testEnvFull(t, false, "", sseStub)

	// Disabled mode → should not 401. The stub blocks until context done,
	// so cancel after a short time.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := testEnvFull(t, true, "tok", sseStub)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}
