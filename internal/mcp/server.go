// Package mcp exposes the administrator side of the credential workflow
// over the Model Context Protocol, so an AI agent can triage the pending
// queue and settle requests the same way a human admin does over HTTP.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kmbui/kmbui-backend/internal/service"
	"github.com/kmbui/kmbui-backend/internal/store"
)

// MCPServer wraps the mcp-go server with the workflow tool registrations.
// It drives the same KeyRequestService the HTTP handlers use, so every
// invariant (atomic approval, one key per request) holds here too.
type MCPServer struct {
	svc    *service.KeyRequestService
	store  *store.Store
	logger *slog.Logger
	server *server.MCPServer
}

// NewMCPServer creates an MCPServer pre-loaded with the workflow tools
// and resources. The returned server is ready to serve over stdio or HTTP.
func NewMCPServer(svc *service.KeyRequestService, st *store.Store, logger *slog.Logger) *MCPServer {
	s := &MCPServer{
		svc:    svc,
		store:  st,
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"KMBUI Credential Workflow",
		"0.1.0",
		server.WithResourceCapabilities(true, false),
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.server = mcpServer
	return s
}

// Server returns the underlying mcp-go MCPServer instance. Useful for
// advanced configuration or testing.
func (s *MCPServer) Server() *server.MCPServer {
	return s.server
}

// ServeStdio starts the MCP server in stdio mode. This is the primary
// integration path for MCP clients that launch the server as a subprocess.
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server in stdio mode")
	return server.ServeStdio(s.server)
}

// ServeHTTP starts the MCP server in Streamable HTTP mode, listening on
// the given address (e.g. ":3001").
func (s *MCPServer) ServeHTTP(addr string) error {
	httpServer := server.NewStreamableHTTPServer(s.server)
	s.logger.Info("MCP HTTP server starting", "addr", addr)
	return httpServer.Start(addr)
}

func readOnlyAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(true),
	}
}

func mutatingAnnotation() mcp.ToolAnnotation {
	return mcp.ToolAnnotation{
		ReadOnlyHint: boolPtr(false),
	}
}

func boolPtr(b bool) *bool {
	return &b
}
