package calendar_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/google"
	"github.com/teemow/gcal/internal/logging"
	"github.com/teemow/gcal/internal/server"
	"github.com/teemow/gcal/internal/tools/common"
)

type handlerFunc func(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error)

// RegisterCalendarTools registers all Calendar-related tools with the MCP server
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	readOnly := sc.ReadOnly()

	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}
	if err := RegisterCalendarListTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}

	return nil
}

func addTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, handler handlerFunc) {
	s.AddTool(tool, common.InstrumentedToolHandler(tool.Name, sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handler(ctx, request, sc)
	}))
}

// getCalendarClient returns the shared calendar client, turning a missing
// token into instructions for the user.
func getCalendarClient(ctx context.Context, sc *server.ServerContext) (*calendar.Client, error) {
	client, err := sc.CalendarClient(ctx)
	if errors.Is(err, google.ErrCredentialsNotFound) {
		return nil, fmt.Errorf(`Google OAuth token not found: %w

Create a token file with an authorized access and refresh token pair, then
point gcal at it with --token or GCAL_TOKEN_PATH. The token is refreshed and
written back automatically afterwards.`, err)
	}
	return client, err
}

// toolError renders err as a tool error result and logs it.
func toolError(sc *server.ServerContext, what string, err error) *mcp.CallToolResult {
	sc.Logger().Debug(what, logging.Err(err))
	if calendar.IsNotFound(err) {
		return mcp.NewToolResultError(fmt.Sprintf("%s: not found: %v", what, err))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", what, err))
}

// jsonResult renders v as indented JSON.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func calendarIDOption() mcp.ToolOption {
	return mcp.WithString("calendarId",
		mcp.Description("Calendar ID (default: 'primary')"),
	)
}
