package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			"kmbui://pending-requests",
			"Pending API Key Requests",
			mcp.WithResourceDescription(
				"The queue of API key requests awaiting an administrator "+
					"decision, oldest first.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handlePendingResource,
	)
}

// handlePendingResource returns the pending queue as a JSON resource.
func (s *MCPServer) handlePendingResource(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	pending, err := s.svc.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	b, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal pending requests: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
