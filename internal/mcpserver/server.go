// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes portal content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/getlost/portal/internal/contentservice"
	"github.com/getlost/portal/internal/models"
)

// Server wraps the MCP server with portal content tools.
type Server struct {
	mcp *server.MCPServer
	svc *contentservice.Service
}

// New creates a new MCP server with all portal tools registered.
func New(svc *contentservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"GetLostPortal",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("find_seeded_match",
		mcp.WithDescription("Check whether an upload filename matches pre-made seeded content. "+
			"Returns the matching record and the candidate name that matched, or a no-match notice."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("The filename an author would upload (e.g. BeachRead-final.pdf)")),
		mcp.WithString("kind", mcp.Description("Optional content kind filter: report, marketing_asset, book_cover, landing_page")),
	), s.findSeededMatch)

	s.mcp.AddTool(mcp.NewTool("list_seeded",
		mcp.WithDescription("List seeded (pre-made) content records waiting to be linked to books."),
		mcp.WithString("kind", mcp.Description("Optional content kind filter (empty for all)")),
	), s.listSeeded)

	s.mcp.AddTool(mcp.NewTool("link_seeded_content",
		mcp.WithDescription("Link a seeded record to a book. The seeded record is copied; "+
			"the original stays available for other books."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Seeded record id")),
		mcp.WithString("book_id", mcp.Required(), mcp.Description("Target book id")),
	), s.linkSeededContent)

	s.mcp.AddTool(mcp.NewTool("bundle_html",
		mcp.WithDescription("Run the HTML bundler over a raw document: local image references "+
			"become data URIs, local video references are copied to hosted storage and rewritten. "+
			"Nothing is persisted; returns the bundled HTML and counts."),
		mcp.WithString("html", mcp.Required(), mcp.Description("The HTML document to bundle")),
		mcp.WithString("scope_id", mcp.Description("Scope for stored videos (defaults to adhoc)")),
	), s.bundleHTML)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Read a content record, including its bundled HTML."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("get_seed_bundle_contract",
		mcp.WithDescription("Returns the canonical seed bundle layout contract. "+
			"Call this before preparing a seed drop to ensure correct structure."),
	), s.getSeedBundleContract)

	// Resource: seed bundle contract.
	s.mcp.AddResource(
		mcp.NewResource("getlost://seed-bundle", "Seed Bundle Contract",
			mcp.WithResourceDescription("Canonical seed bundle layout that all content drops must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSeedBundleResource,
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

func kindArg(req mcp.CallToolRequest) (models.Kind, error) {
	k, err := req.RequireString("kind")
	if err != nil {
		return "", nil
	}
	kind := models.Kind(k)
	if kind != "" && !kind.Valid() {
		return "", fmt.Errorf("unknown kind: %s", k)
	}
	return kind, nil
}

func (s *Server) findSeededMatch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := req.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := kindArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	m, err := s.svc.FindSeededMatch(ctx, filename, kind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if m == nil {
		return mcp.NewToolResultText("no seeded match for: " + filename), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"id":                m.Record.ID,
		"title":             m.Record.Title,
		"kind":              m.Record.Kind,
		"matched_candidate": m.MatchedCandidate,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listSeeded(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := kindArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := s.svc.ListSeeded(ctx, kind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("no seeded content"), nil
	}
	var lines []string
	for _, r := range records {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%s", r.ID, r.Kind, r.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) linkSeededContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bookID, err := req.RequireString("book_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.LinkSeeded(ctx, id, bookID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("linked: %s -> book %s (new record %s)", id, bookID, rec.ID)), nil
}

func (s *Server) bundleHTML(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	html, err := req.RequireString("html")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	scopeID := "adhoc"
	if v, err := req.RequireString("scope_id"); err == nil && v != "" {
		scopeID = v
	}
	doc, err := s.svc.BundleHTML(ctx, html, scopeID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(map[string]any{
		"html":             doc.HTML,
		"images_embedded":  doc.ImagesEmbedded,
		"videos_rewritten": doc.VideosRewritten,
	}, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Get(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(rec, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSeedBundleContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SeedBundleContract), nil
}

func (s *Server) readSeedBundleResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "getlost://seed-bundle",
			MIMEType: "text/markdown",
			Text:     SeedBundleContract,
		},
	}, nil
}
