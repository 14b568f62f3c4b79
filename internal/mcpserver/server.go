// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes asterism tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/asterism/internal/apperr"
	"github.com/starford/asterism/internal/converter"
)

// SourceFormatURI names the resource describing the accepted input format.
const SourceFormatURI = "asterism://source-format"

var errCatalogDisabled = errors.New("catalog disabled")

// Server wraps the MCP server with asterism tools.
type Server struct {
	mcp *server.MCPServer
	svc *converter.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *converter.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Asterism",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_constellations",
		mcp.WithDescription("List the constellations of the last conversion with their point and edge counts."),
	), s.listConstellations)

	s.mcp.AddTool(mcp.NewTool("get_constellation",
		mcp.WithDescription("Return one converted constellation with its stars and connections."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Constellation name, e.g. Aries")),
	), s.getConstellation)

	s.mcp.AddTool(mcp.NewTool("convert_source",
		mcp.WithDescription("Convert stroke-based source text to stars and connections without writing anything. "+
			"Read the format first via get_source_format or the "+SourceFormatURI+" resource."),
		mcp.WithString("content", mcp.Required(), mcp.Description("Source text holding the zodiac_data block")),
	), s.convertSource)

	s.mcp.AddTool(mcp.NewTool("get_source_format",
		mcp.WithDescription("Returns the description of the accepted source format."),
	), s.getSourceFormat)

	s.mcp.AddResource(
		mcp.NewResource(SourceFormatURI, "Source Format",
			mcp.WithResourceDescription("Stroke-based constellation source format accepted by the converter."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSourceFormatResource,
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

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listConstellations(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cat := s.svc.Catalog()
	if cat == nil {
		return mcp.NewToolResultError(errCatalogDisabled.Error()), nil
	}
	items, err := cat.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(items)
}

func (s *Server) getConstellation(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cat := s.svc.Catalog()
	if cat == nil {
		return mcp.NewToolResultError(errCatalogDisabled.Error()), nil
	}
	c, err := cat.Get(name)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", name)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c)
}

func (s *Server) convertSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Preview(ctx, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"records":        res.Records(),
		"points":         res.Points,
		"edges":          res.Edges,
		"skipped_pairs":  res.SkippedPairs,
		"constellations": res.Constellations,
	})
}

func (s *Server) getSourceFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SourceFormat), nil
}

func (s *Server) readSourceFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      SourceFormatURI,
			MIMEType: "text/markdown",
			Text:     SourceFormat,
		},
	}, nil
}
