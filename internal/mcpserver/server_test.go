package mcpserver

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/testutil"
)

type testEnv struct {
	srv    *Server
	store  storage.Provider
	db     *index.DB
	logger *slog.Logger
}

func testServer(t *testing.T) *testEnv {
	t.Helper()
	stack := testutil.NewStack(t)
	return &testEnv{srv: New(stack.Service), store: stack.Store, db: stack.DB, logger: stack.Logger}
}

// pageServer serves one small titled page for the pipeline to fetch.
func pageServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>Quiet Harbor</title></head><body>seabirds circle the pier</body></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go doesn't expose a direct "call tool" test helper, so dispatch
	// to the handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "clip_link":
		result, err = srv.clipLink(ctx, req)
	case "scan_note":
		result, err = srv.scanNote(ctx, req)
	case "search_clips":
		result, err = srv.searchClips(ctx, req)
	case "read_clip":
		result, err = srv.readClip(ctx, req)
	case "list_ledger":
		result, err = srv.listLedger(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestClipLinkAndReadClip(t *testing.T) {
	env := testServer(t)
	page := pageServer(t)

	r := callTool(t, env.srv, "clip_link", map[string]interface{}{"url": page.URL})
	if r.IsError {
		t.Fatalf("clip_link error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, "Clips/quiet-harbor.md") {
		t.Errorf("clip result = %q, want note path", text)
	}

	r = callTool(t, env.srv, "read_clip", map[string]interface{}{"path": "Clips/quiet-harbor.md"})
	if r.IsError {
		t.Fatalf("read_clip error: %s", resultText(r))
	}
	text = resultText(r)
	if !strings.Contains(text, "title: Quiet Harbor") {
		t.Errorf("clip content = %q, want front matter title", text)
	}
	if !strings.Contains(text, "Original link: "+page.URL) {
		t.Error("clip content missing original link line")
	}
}

func TestClipLink_RejectsNonHTTP(t *testing.T) {
	env := testServer(t)

	r := callTool(t, env.srv, "clip_link", map[string]interface{}{"url": "ftp://example.org/file"})
	if !r.IsError {
		t.Error("expected error for non-http URL")
	}
}

func TestScanNote(t *testing.T) {
	env := testServer(t)
	page := pageServer(t)

	doc := "Daily/2026-08-21.md"
	if err := env.store.Write(doc, []byte("Found this:\n"+page.URL+"\n")); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, env.srv, "scan_note", map[string]interface{}{"doc": doc})
	if r.IsError {
		t.Fatalf("scan_note error: %s", resultText(r))
	}
	if got := resultText(r); got != "scanned: "+doc {
		t.Errorf("scan result = %q", got)
	}

	if _, err := env.store.Read("Clips/quiet-harbor.md"); err != nil {
		t.Errorf("scan did not clip: %v", err)
	}
}

func TestSearchClips(t *testing.T) {
	env := testServer(t)
	page := pageServer(t)

	callTool(t, env.srv, "clip_link", map[string]interface{}{"url": page.URL})
	if err := index.Sync(env.db, env.store, "Clips", env.logger); err != nil {
		t.Fatal(err)
	}

	r := callTool(t, env.srv, "search_clips", map[string]interface{}{"query": "seabirds"})
	if r.IsError {
		t.Fatalf("search_clips error: %s", resultText(r))
	}
	if text := resultText(r); !strings.Contains(text, "Clips/quiet-harbor.md") {
		t.Errorf("search result = %q, want hit", text)
	}
}

func TestReadClipMissing(t *testing.T) {
	env := testServer(t)
	r := callTool(t, env.srv, "read_clip", map[string]interface{}{"path": "Clips/nope.md"})
	if !r.IsError {
		t.Error("expected error for missing clip")
	}
}

func TestListLedger(t *testing.T) {
	env := testServer(t)
	page := pageServer(t)

	callTool(t, env.srv, "clip_link", map[string]interface{}{"url": page.URL})

	r := callTool(t, env.srv, "list_ledger", map[string]interface{}{"category": "article"})
	if r.IsError {
		t.Fatalf("list_ledger error: %s", resultText(r))
	}
	text := resultText(r)
	if !strings.Contains(text, page.URL) {
		t.Errorf("ledger = %q, want clipped URL", text)
	}
	if !strings.Contains(text, `"to-read"`) {
		t.Errorf("ledger = %q, want to-read status", text)
	}

	r = callTool(t, env.srv, "list_ledger", map[string]interface{}{"category": "banana"})
	if !r.IsError {
		t.Error("expected error for unknown ledger")
	}
}
