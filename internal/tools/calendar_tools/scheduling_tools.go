package calendar_tools

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/server"
	"github.com/teemow/gcal/internal/tools/common"
)

// RegisterSchedulingTools registers scheduling and availability tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	queryFreeBusyTool := mcp.NewTool("calendar_query_freebusy",
		mcp.WithDescription("Check availability for one or more calendars/attendees in a time range"),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for the range (RFC3339 with offset, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for the range (RFC3339 with offset, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("calendars",
			mcp.Required(),
			mcp.Description("Comma-separated list of calendar IDs or email addresses to check"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone of the response (default: UTC)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default) or 'json'"),
		),
	)
	addTool(s, sc, queryFreeBusyTool, handleQueryFreeBusy)

	findAvailableTimeTool := mcp.NewTool("calendar_find_available_time",
		mcp.WithDescription("Find available time slots for scheduling a meeting with one or more attendees"),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Meeting duration in minutes"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start time for search range (RFC3339 with offset, e.g., '2025-01-01T09:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End time for search range (RFC3339 with offset, e.g., '2025-01-01T17:00:00Z')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of available slots to return (default: 10)"),
		),
	)
	addTool(s, sc, findAvailableTimeTool, handleFindAvailableTime)

	return nil
}

func freeBusyQueryFromArgs(args map[string]any, idsArg string) (calendar.FreeBusyQuery, error) {
	var q calendar.FreeBusyQuery

	var err error
	if q.TimeMin, err = common.RequiredTimeArg(args, "timeMin"); err != nil {
		return q, err
	}
	if q.TimeMax, err = common.RequiredTimeArg(args, "timeMax"); err != nil {
		return q, err
	}

	q.CalendarIDs = common.StringListArg(args, idsArg)
	if len(q.CalendarIDs) == 0 {
		return q, fmt.Errorf("%s is required", idsArg)
	}
	q.TimeZone = common.StringArg(args, "timeZone")

	return q, nil
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, err := freeBusyQueryFromArgs(args, "calendars")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := client.FreeBusy.Query(ctx, query)
	if err != nil {
		return toolError(sc, "Failed to query free/busy", err), nil
	}

	if common.StringArg(args, "format") == "json" {
		return jsonResult(resp)
	}

	ids := make([]string, 0, len(resp.Calendars))
	for id := range resp.Calendars {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "Free/busy information from %s to %s:\n\n",
		query.TimeMin.Format(time.RFC3339), query.TimeMax.Format(time.RFC3339))
	for _, id := range ids {
		cal := resp.Calendars[id]
		fmt.Fprintf(&b, "%s:\n", id)
		switch {
		case cal.HasErrors():
			for _, e := range cal.Errors {
				fmt.Fprintf(&b, "  unavailable: %s\n", e.Reason)
			}
		case len(cal.Busy) == 0:
			b.WriteString("  free for the whole range\n")
		default:
			b.WriteString(formatPeriods(cal.Busy))
		}
		b.WriteString("\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleFindAvailableTime(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, err := freeBusyQueryFromArgs(args, "attendees")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	minutes := common.IntArg(args, "durationMinutes", 0)
	if minutes <= 0 {
		return mcp.NewToolResultError("durationMinutes must be positive"), nil
	}
	maxResults := int(common.IntArg(args, "maxResults", 10))
	if maxResults <= 0 {
		maxResults = 10
	}
	duration := time.Duration(minutes) * time.Minute

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp, err := client.FreeBusy.Query(ctx, query)
	if err != nil {
		return toolError(sc, "Failed to query free/busy", err), nil
	}

	var unavailable []string
	for id, cal := range resp.Calendars {
		if cal.HasErrors() {
			unavailable = append(unavailable, id)
		}
	}
	slices.Sort(unavailable)

	slots := calendar.FreeSlots(resp, query.TimeMin, query.TimeMax, duration)
	if len(slots) > maxResults {
		slots = slots[:maxResults]
	}

	var b strings.Builder
	if len(slots) == 0 {
		fmt.Fprintf(&b, "No free slots of %s found for all attendees.\n", duration)
	} else {
		fmt.Fprintf(&b, "Found %d free slots of at least %s:\n\n", len(slots), duration)
		b.WriteString(formatPeriods(slots))
	}
	if len(unavailable) > 0 {
		fmt.Fprintf(&b, "\nAvailability unknown for: %s\n", strings.Join(unavailable, ", "))
	}

	return mcp.NewToolResultText(b.String()), nil
}
