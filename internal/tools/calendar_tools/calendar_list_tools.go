package calendar_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/server"
	"github.com/teemow/gcal/internal/tools/common"
)

// RegisterCalendarListTools registers calendar list management tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List all calendars accessible to the user"),
		mcp.WithBoolean("showHidden",
			mcp.Description("Include calendars hidden from the list"),
		),
		mcp.WithBoolean("showDeleted",
			mcp.Description("Include deleted calendars"),
		),
		mcp.WithString("minAccessRole",
			mcp.Description("Minimum access role: 'freeBusyReader', 'reader', 'writer' or 'owner'"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'text' (default) or 'json'"),
		),
	)
	addTool(s, sc, listCalendarsTool, handleListCalendars)

	getCalendarTool := mcp.NewTool("calendar_get_calendar",
		mcp.WithDescription("Get details of a specific calendar"),
		calendarIDOption(),
	)
	addTool(s, sc, getCalendarTool, handleGetCalendar)

	if readOnly {
		return nil
	}

	createCalendarTool := mcp.NewTool("calendar_create_calendar",
		mcp.WithDescription("Create a new secondary calendar"),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Calendar title"),
		),
		mcp.WithString("description",
			mcp.Description("Calendar description"),
		),
		mcp.WithString("location",
			mcp.Description("Geographic location of the calendar"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone of the calendar (e.g., 'Europe/Berlin')"),
		),
	)
	addTool(s, sc, createCalendarTool, handleCreateCalendar)

	deleteCalendarTool := mcp.NewTool("calendar_delete_calendar",
		mcp.WithDescription("Delete a secondary calendar and all of its events"),
		mcp.WithString("calendarId",
			mcp.Required(),
			mcp.Description("ID of the calendar to delete"),
		),
	)
	addTool(s, sc, deleteCalendarTool, handleDeleteCalendar)

	clearCalendarTool := mcp.NewTool("calendar_clear_calendar",
		mcp.WithDescription("Delete every event of a calendar"),
		calendarIDOption(),
	)
	addTool(s, sc, clearCalendarTool, handleClearCalendar)

	return nil
}

func handleListCalendars(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendars, err := client.Calendars.ListAll(ctx, calendar.ListCalendarsOptions{
		ShowHidden:    common.BoolArg(args, "showHidden"),
		ShowDeleted:   common.BoolArg(args, "showDeleted"),
		MinAccessRole: common.StringArg(args, "minAccessRole"),
	})
	if err != nil {
		return toolError(sc, "Failed to list calendars", err), nil
	}

	if common.StringArg(args, "format") == "json" {
		return jsonResult(calendars)
	}
	return mcp.NewToolResultText(formatCalendars(calendars, "")), nil
}

func handleGetCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cal, err := client.Calendars.Get(ctx, common.StringArg(args, "calendarId"))
	if err != nil {
		return toolError(sc, "Failed to get calendar", err), nil
	}

	return mcp.NewToolResultText(formatCalendar(*cal)), nil
}

func handleCreateCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	summary, err := common.RequiredStringArg(args, "summary")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cal, err := client.Calendars.Create(ctx, calendar.CalendarInput{
		Summary:     summary,
		Description: common.StringArg(args, "description"),
		Location:    common.StringArg(args, "location"),
		TimeZone:    common.StringArg(args, "timeZone"),
	})
	if err != nil {
		return toolError(sc, "Failed to create calendar", err), nil
	}

	return mcp.NewToolResultText("Calendar created successfully.\n\n" + formatCalendar(*cal)), nil
}

func handleDeleteCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID, err := common.RequiredStringArg(args, "calendarId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.Calendars.Delete(ctx, calendarID); err != nil {
		return toolError(sc, "Failed to delete calendar", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Calendar %s deleted successfully", calendarID)), nil
}

func handleClearCalendar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarID := common.StringArg(args, "calendarId")
	if err := client.Calendars.Clear(ctx, calendarID); err != nil {
		return toolError(sc, "Failed to clear calendar", err), nil
	}

	if calendarID == "" {
		calendarID = calendar.PrimaryCalendar
	}
	return mcp.NewToolResultText(fmt.Sprintf("All events of calendar %s deleted", calendarID)), nil
}
