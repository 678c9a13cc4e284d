// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes ansuz clipping tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/clipservice"
	"github.com/starford/ansuz/internal/models"
)

// Server wraps the MCP server with ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *clipservice.Service
}

// New creates a new MCP server with all ansuz tools registered.
func New(svc *clipservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("clip_link",
		mcp.WithDescription("Fetch a web link, classify it as product or article, and save "+
			"a clip note plus a ledger entry. Returns the capture result as JSON."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Absolute http(s) URL to clip")),
	), s.clipLink)

	s.mcp.AddTool(mcp.NewTool("scan_note",
		mcp.WithDescription("Scan a vault note for web links and clip every link not seen before."),
		mcp.WithString("doc", mcp.Required(), mcp.Description("Relative path of the note to scan (e.g. Daily/2026-08-21.md)")),
	), s.scanNote)

	s.mcp.AddTool(mcp.NewTool("search_clips",
		mcp.WithDescription("Full-text search through clipped pages by title, body, and URL."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchClips)

	s.mcp.AddTool(mcp.NewTool("read_clip",
		mcp.WithDescription("Read the full content of a clip note. The format is described "+
			"by the ansuz://clip-format resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the clip (e.g. Clips/some-page.md)")),
	), s.readClip)

	s.mcp.AddTool(mcp.NewTool("list_ledger",
		mcp.WithDescription("Return the JSON ledger for a category. Product entries carry "+
			"status wishlist, article entries to-read."),
		mcp.WithString("category", mcp.Required(), mcp.Description("Ledger category: product or article")),
	), s.listLedger)

	// Resource: clip note format contract.
	s.mcp.AddResource(
		mcp.NewResource("ansuz://clip-format", "Clip Note Format",
			mcp.WithResourceDescription("Canonical Markdown clip note format produced by the pipeline."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readClipFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) clipLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	link, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		return mcp.NewToolResultError("url must be http or https"), nil
	}
	captured, err := s.svc.ClipURL(ctx, link, "mcp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(captured, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) scanNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := req.RequireString("doc")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.ScanNow(ctx, doc); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("scanned: %s", doc)), nil
}

func (s *Server) searchClips(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readClip(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clip, err := s.svc.GetClip(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(clip.Content), nil
}

func (s *Server) listLedger(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat, err := req.RequireString("category")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	doc, err := s.svc.Ledger(ctx, models.Category(cat))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("unknown ledger: %s", cat)), nil
	}
	out, _ := json.MarshalIndent(doc, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readClipFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "ansuz://clip-format",
			MIMEType: "text/markdown",
			Text:     ClipFormatContract,
		},
	}, nil
}
