// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes foamlinks tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/foamlinks/internal/apperr"
	"github.com/starford/foamlinks/internal/noteservice"
)

const syntaxURI = "foamlinks://syntax"

// Server wraps the MCP server with foamlinks tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all foamlinks tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"foamlinks",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("transform_note",
		mcp.WithDescription("Rewrite wikilinks, embeds, #tags and @mentions into reference-style Markdown links. "+
			"Pass either the path of a vault note, or content to rewrite as if it lived at source."),
		mcp.WithString("path", mcp.Description("Relative path of a vault note (e.g. folder/note.md)")),
		mcp.WithString("content", mcp.Description("Markdown to rewrite instead of a vault note")),
		mcp.WithString("source", mcp.Description("Path the content is assumed to live at (default untitled.md)")),
	), s.transformNote)

	s.mcp.AddTool(mcp.NewTool("resolve_link",
		mcp.WithDescription("Show which note a [[target]] resolves to and the definition line it produces."),
		mcp.WithString("target", mcp.Required(), mcp.Description("Wikilink target, optionally with |alias")),
		mcp.WithString("source", mcp.Description("Path of the linking note (default untitled.md)")),
	), s.resolveLink)

	s.mcp.AddTool(mcp.NewTool("list_unresolved",
		mcp.WithDescription("List wikilinks and embeds that matched no note in the last build."),
	), s.listUnresolved)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all notes whose wikilinks or embeds resolve to the specified note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the note to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List indexed notes with their titles and reference counts."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_syntax_reference",
		mcp.WithDescription("Returns the recognized link syntax and how it is rewritten."),
	), s.getSyntaxReference)

	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Link Syntax Reference",
			mcp.WithResourceDescription("Wikilink, embed, tag and mention syntax and rewrite rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSyntaxResource,
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

// optionalString returns the named argument or "" when absent.
func optionalString(req mcp.CallToolRequest, name string) string {
	v, err := req.RequireString(name)
	if err != nil {
		return ""
	}
	return v
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) transformNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := optionalString(req, "path")
	content := optionalString(req, "content")

	switch {
	case path != "":
		note, err := s.svc.GetNote(ctx, path)
		if err != nil {
			return toolError(path, err), nil
		}
		return mcp.NewToolResultText(note.Rendered), nil
	case content != "":
		res, err := s.svc.Transform(ctx, optionalString(req, "source"), content)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(res.Body), nil
	default:
		return mcp.NewToolResultError("either path or content is required"), nil
	}
}

func (s *Server) resolveLink(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(target) == "" {
		return mcp.NewToolResultError("target is empty"), nil
	}
	res, err := s.svc.Resolve(ctx, optionalString(req, "source"), target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) listUnresolved(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	refs, err := s.svc.Unresolved(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText("no unresolved links"), nil
	}
	lines := make([]string, len(refs))
	for i, r := range refs {
		lines[i] = fmt.Sprintf("%s: [[%s]]", r.Source, r.Label)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.svc.Backlinks(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) listNotes(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.ListNotes(ctx, 0, 0, "")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items), nil
}

func (s *Server) getSyntaxReference(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SyntaxReference), nil
}

func (s *Server) readSyntaxResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     SyntaxReference,
		},
	}, nil
}

func toolError(path string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path))
	case errors.Is(err, apperr.ErrNotText):
		return mcp.NewToolResultError(fmt.Sprintf("not a markdown document: %s", path))
	case errors.Is(err, apperr.ErrInvalidPath):
		return mcp.NewToolResultError(fmt.Sprintf("invalid path: %s", path))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}
