package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kmbui/kmbui-backend/internal/store"
)

// registerTools registers the workflow tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {

	srv.AddTool(
		mcp.NewTool("kmbui_list_pending_requests",
			mcp.WithDescription(
				"List all pending API key requests awaiting an administrator "+
					"decision, oldest first. Returns each request's ID, requester "+
					"name, description, and submission time. Use this to triage "+
					"the queue before approving or denying.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleListPending,
	)

	srv.AddTool(
		mcp.NewTool("kmbui_approve_request",
			mcp.WithDescription(
				"Approve a pending API key request. Generates the key and binds "+
					"it to the given username in one atomic step; the requester can "+
					"then collect it with their receipt and password. A request "+
					"that was already decided cannot be approved again.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("request_id",
				mcp.Required(),
				mcp.Description("ID of the pending request to approve"),
			),
			mcp.WithString("username",
				mcp.Required(),
				mcp.Description("Username the issued key will belong to (must be unused)"),
			),
		),
		s.handleApprove,
	)

	srv.AddTool(
		mcp.NewTool("kmbui_deny_request",
			mcp.WithDescription(
				"Deny a pending API key request. No key is issued and the "+
					"decision is final; the requester will be told no key exists "+
					"when they try to collect.",
			),
			mcp.WithToolAnnotation(mutatingAnnotation()),
			mcp.WithNumber("request_id",
				mcp.Required(),
				mcp.Description("ID of the pending request to deny"),
			),
		),
		s.handleDeny,
	)

	srv.AddTool(
		mcp.NewTool("kmbui_list_usage_logs",
			mcp.WithDescription(
				"List recent audit log entries, newest first. Each entry records "+
					"who acted (an admin or an API key holder), the endpoint, and "+
					"the response status.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of entries to return (default 25, max 500)"),
			),
		),
		s.handleListUsageLogs,
	)
}

func (s *MCPServer) handleListPending(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	pending, err := s.svc.ListPending(ctx)
	if err != nil {
		return toolError("Failed to list pending requests: %v", err)
	}
	return successJSON(map[string]interface{}{
		"count":    len(pending),
		"requests": pending,
	})
}

func (s *MCPServer) handleApprove(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := request.RequireInt("request_id")
	if err != nil {
		return toolError("Missing or invalid request_id: %v", err)
	}
	username, err := request.RequireString("username")
	if err != nil {
		return toolError("Missing required parameter username")
	}

	err = s.svc.Decide(ctx, int64(id), true, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return toolError("Request %d does not exist or was already decided", id)
	case errors.Is(err, store.ErrConflict):
		return toolError("A key already exists for username %q", username)
	case err != nil:
		return toolError("Failed to approve request %d: %v", id, err)
	}

	s.logger.Info("request approved via mcp", "request_id", id, "username", username)
	return successJSON(map[string]interface{}{
		"request_id": id,
		"status":     "approved",
		"username":   username,
	})
}

func (s *MCPServer) handleDeny(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	id, err := request.RequireInt("request_id")
	if err != nil {
		return toolError("Missing or invalid request_id: %v", err)
	}

	err = s.svc.Decide(ctx, int64(id), false, "")
	switch {
	case errors.Is(err, store.ErrNotFound):
		return toolError("Request %d does not exist or was already decided", id)
	case err != nil:
		return toolError("Failed to deny request %d: %v", id, err)
	}

	s.logger.Info("request denied via mcp", "request_id", id)
	return successJSON(map[string]interface{}{
		"request_id": id,
		"status":     "denied",
	})
}

func (s *MCPServer) handleListUsageLogs(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	limit := clamp(request.GetInt("limit", 25), 1, 500)

	logs, err := s.store.ListUsageLogs(ctx, limit)
	if err != nil {
		return toolError("Failed to list usage logs: %v", err)
	}
	return successJSON(map[string]interface{}{
		"count":   len(logs),
		"entries": logs,
	})
}

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way
// are visible to the LLM so it can self-correct; they do NOT terminate
// the MCP session.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// clamp constrains val to [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
