package calendar_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/export"
	"github.com/teemow/gcal/internal/server"
	"github.com/teemow/gcal/internal/tools/batch"
	"github.com/teemow/gcal/internal/tools/common"
)

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List/search calendar events, one page at a time unless 'all' is set"),
		calendarIDOption(),
		mcp.WithString("timeMin",
			mcp.Description("Lower bound (exclusive) for an event's end time (RFC3339 with offset, e.g., '2025-01-01T00:00:00Z')"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Upper bound (exclusive) for an event's start time (RFC3339 with offset, e.g., '2025-01-31T23:59:59Z')"),
		),
		mcp.WithString("query",
			mcp.Description("Free text search terms"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events per page (default: 250, max: 2500)"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Token of the page to fetch, as returned by a previous call"),
		),
		mcp.WithBoolean("collapseRecurring",
			mcp.Description("Return recurring events as one master event instead of individual instances"),
		),
		mcp.WithString("orderBy",
			mcp.Description("Sort order: 'startTime' (default for expanded instances) or 'updated'"),
		),
		mcp.WithBoolean("showDeleted",
			mcp.Description("Include cancelled events"),
		),
		mcp.WithBoolean("all",
			mcp.Description("Follow page tokens and return every matching event"),
		),
	)
	addTool(s, sc, listEventsTool, handleListEvents)

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		calendarIDOption(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	)
	addTool(s, sc, getEventTool, handleGetEvent)

	getEventsTool := mcp.NewTool("calendar_get_events",
		mcp.WithDescription("Get several calendar events at once. Returns a JSON summary with one result per event"),
		calendarIDOption(),
		mcp.WithString("eventIds",
			mcp.Required(),
			mcp.Description("Event ID (string) or array of event IDs to retrieve"),
		),
	)
	addTool(s, sc, getEventsTool, handleGetEvents)

	listInstancesTool := mcp.NewTool("calendar_list_instances",
		mcp.WithDescription("List the occurrences of a recurring event"),
		calendarIDOption(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the recurring event"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Lower bound (exclusive) for an instance's end time (RFC3339 with offset)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("Upper bound (exclusive) for an instance's start time (RFC3339 with offset)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of instances per page"),
		),
		mcp.WithString("pageToken",
			mcp.Description("Token of the page to fetch, as returned by a previous call"),
		),
	)
	addTool(s, sc, listInstancesTool, handleListInstances)

	getMeetLinkTool := mcp.NewTool("calendar_get_meet_link",
		mcp.WithDescription("Get the Google Meet link of a calendar event"),
		calendarIDOption(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
	)
	addTool(s, sc, getMeetLinkTool, handleGetMeetLink)

	exportTool := mcp.NewTool("calendar_export_ics",
		mcp.WithDescription("Export the events of a time range as an iCalendar (.ics) document"),
		calendarIDOption(),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339 with offset)"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339 with offset)"),
		),
		mcp.WithString("query",
			mcp.Description("Free text search terms"),
		),
	)
	addTool(s, sc, exportTool, handleExportICS)

	if readOnly {
		return nil
	}

	createEventTool := mcp.NewTool("calendar_create_event",
		append(eventInputOptions(true),
			mcp.WithDescription("Create a new calendar event (supports all-day, recurring, out-of-office, and Google Meet)"),
		)...,
	)
	addTool(s, sc, createEventTool, handleCreateEvent)

	updateEventTool := mcp.NewTool("calendar_update_event",
		append(eventInputOptions(false),
			mcp.WithDescription("Replace a calendar event. Fields that are not given are cleared; use calendar_patch_event to change single fields"),
			mcp.WithString("eventId",
				mcp.Required(),
				mcp.Description("The ID of the event to replace"),
			),
			mcp.WithBoolean("merge",
				mcp.Description("Keep the fields that are not given instead of clearing them (default: false)"),
			),
		)...,
	)
	addTool(s, sc, updateEventTool, handleUpdateEvent)

	patchEventTool := mcp.NewTool("calendar_patch_event",
		append(eventInputOptions(false),
			mcp.WithDescription("Change only the given fields of a calendar event"),
			mcp.WithString("eventId",
				mcp.Required(),
				mcp.Description("The ID of the event to change"),
			),
		)...,
	)
	addTool(s, sc, patchEventTool, handlePatchEvent)

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		calendarIDOption(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
		sendUpdatesOption(),
	)
	addTool(s, sc, deleteEventTool, handleDeleteEvent)

	deleteEventsTool := mcp.NewTool("calendar_delete_events",
		mcp.WithDescription("Delete several calendar events. Events that no longer exist are reported as not_found"),
		calendarIDOption(),
		mcp.WithString("eventIds",
			mcp.Required(),
			mcp.Description("Event ID (string) or array of event IDs to delete"),
		),
		sendUpdatesOption(),
	)
	addTool(s, sc, deleteEventsTool, handleDeleteEvents)

	moveEventTool := mcp.NewTool("calendar_move_event",
		mcp.WithDescription("Move an event to another calendar"),
		calendarIDOption(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to move"),
		),
		mcp.WithString("destination",
			mcp.Required(),
			mcp.Description("ID of the calendar to move the event to"),
		),
	)
	addTool(s, sc, moveEventTool, handleMoveEvent)

	quickAddTool := mcp.NewTool("calendar_quick_add",
		mcp.WithDescription("Create an event from a short text such as 'Lunch with Ana tomorrow 12pm'"),
		calendarIDOption(),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text describing the event"),
		),
	)
	addTool(s, sc, quickAddTool, handleQuickAdd)

	return nil
}

func sendUpdatesOption() mcp.ToolOption {
	return mcp.WithString("sendUpdates",
		mcp.Description("Who is notified: 'all', 'externalOnly' or 'none'"),
	)
}

// eventInputOptions lists the arguments shared by create, update and patch.
func eventInputOptions(create bool) []mcp.ToolOption {
	props := func(desc string) []mcp.PropertyOption {
		if create {
			return []mcp.PropertyOption{mcp.Required(), mcp.Description(desc)}
		}
		return []mcp.PropertyOption{mcp.Description(desc)}
	}

	return []mcp.ToolOption{
		calendarIDOption(),
		mcp.WithString("summary", props("Event title/summary")...),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("start",
			props("Start: RFC3339 with offset (e.g., '2025-01-15T14:00:00Z') or YYYY-MM-DD for all-day events")...,
		),
		mcp.WithString("end",
			props("End: RFC3339 with offset or YYYY-MM-DD (exclusive) for all-day events")...,
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone applied to start and end (e.g., 'Europe/Berlin')"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("recurrence",
			mcp.Description("Recurrence lines separated by newlines (e.g., 'RRULE:FREQ=WEEKLY;BYDAY=MO,WE,FR')"),
		),
		mcp.WithString("eventType",
			mcp.Description("Event type: 'default', 'outOfOffice', 'focusTime', 'workingLocation'"),
		),
		mcp.WithBoolean("addGoogleMeet",
			mcp.Description("Automatically add a Google Meet link to the event"),
		),
		sendUpdatesOption(),
		mcp.WithString("body",
			mcp.Description("Complete event resource as JSON. When given it is sent as is and the other event fields are ignored"),
		),
	}
}

// eventInputFromArgs reads the shared event arguments.
func eventInputFromArgs(args map[string]any) (calendar.EventInput, error) {
	input := calendar.EventInput{
		SendUpdates: common.StringArg(args, "sendUpdates"),
	}

	if raw := common.StringArg(args, "body"); raw != "" {
		var body calendarapi.Event
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return input, fmt.Errorf("invalid body: %w", err)
		}
		input.Body = &body
		return input, nil
	}

	var err error
	if input.Start, err = common.EventDateTimeArg(args, "start"); err != nil {
		return input, err
	}
	if input.End, err = common.EventDateTimeArg(args, "end"); err != nil {
		return input, err
	}

	input.Summary = common.StringArg(args, "summary")
	input.Description = common.StringArg(args, "description")
	input.Location = common.StringArg(args, "location")
	input.TimeZone = common.StringArg(args, "timeZone")
	input.EventType = common.StringArg(args, "eventType")
	input.AddMeet = common.BoolArg(args, "addGoogleMeet")
	input.Attendees = calendar.ParseAttendees(common.StringListArg(args, "attendees"))

	// Recurrence rules contain commas, so lines are split on newlines.
	for _, line := range strings.Split(common.StringArg(args, "recurrence"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			input.Recurrence = append(input.Recurrence, line)
		}
	}

	return input, nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	calendarID := common.StringArg(args, "calendarId")

	timeMin, err := common.TimeArg(args, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := common.TimeArg(args, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	opts := calendar.ListEventsOptions{
		TimeMin:           timeMin,
		TimeMax:           timeMax,
		Query:             common.StringArg(args, "query"),
		MaxResults:        common.IntArg(args, "maxResults", 0),
		PageToken:         common.StringArg(args, "pageToken"),
		CollapseRecurring: common.BoolArg(args, "collapseRecurring"),
		OrderBy:           common.StringArg(args, "orderBy"),
		ShowDeleted:       common.BoolArg(args, "showDeleted"),
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if common.BoolArg(args, "all") {
		events, err := client.Events.ListAll(ctx, calendarID, opts)
		if err != nil {
			return toolError(sc, "Failed to list events", err), nil
		}
		return mcp.NewToolResultText(formatEvents(events, "")), nil
	}

	page, err := client.Events.List(ctx, calendarID, opts)
	if err != nil {
		return toolError(sc, "Failed to list events", err), nil
	}
	return mcp.NewToolResultText(formatEvents(page.Items, page.NextPageToken)), nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequiredStringArg(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.Events.Get(ctx, common.StringArg(args, "calendarId"), eventID)
	if err != nil {
		return toolError(sc, "Failed to get event", err), nil
	}

	return mcp.NewToolResultText(formatEvent(*event)), nil
}

func handleGetEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventIDs, err := batch.ParseIDs(args["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarID := common.StringArg(args, "calendarId")
	results := batch.Run(ctx, eventIDs, func(ctx context.Context, id string) (string, error) {
		event, err := client.Events.Get(ctx, calendarID, id)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s: %s (%s)", event.Summary, formatWhen(event.Start), event.Status), nil
	}, calendar.IsNotFound)

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleListInstances(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequiredStringArg(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMin, err := common.TimeArg(args, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := common.TimeArg(args, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := client.Events.Instances(ctx, common.StringArg(args, "calendarId"), eventID, calendar.InstancesOptions{
		TimeMin:    timeMin,
		TimeMax:    timeMax,
		MaxResults: common.IntArg(args, "maxResults", 0),
		PageToken:  common.StringArg(args, "pageToken"),
	})
	if err != nil {
		return toolError(sc, "Failed to list instances", err), nil
	}

	return mcp.NewToolResultText(formatEvents(page.Items, page.NextPageToken)), nil
}

func handleGetMeetLink(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequiredStringArg(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.Events.Get(ctx, common.StringArg(args, "calendarId"), eventID)
	if err != nil {
		return toolError(sc, "Failed to get event", err), nil
	}

	link := event.MeetLink
	if link == "" {
		link = event.HangoutLink
	}
	if link == "" {
		return mcp.NewToolResultText(fmt.Sprintf("Event %q has no Google Meet link", event.Summary)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Google Meet link for %q: %s", event.Summary, link)), nil
}

func handleExportICS(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	timeMin, err := common.RequiredTimeArg(args, "timeMin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	timeMax, err := common.RequiredTimeArg(args, "timeMax")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarID := common.StringArg(args, "calendarId")
	events, err := client.Events.ListAll(ctx, calendarID, calendar.ListEventsOptions{
		TimeMin: timeMin,
		TimeMax: timeMax,
		Query:   common.StringArg(args, "query"),
	})
	if err != nil {
		return toolError(sc, "Failed to list events", err), nil
	}

	if calendarID == "" {
		calendarID = calendar.PrimaryCalendar
	}
	var b strings.Builder
	if err := export.WriteICS(&b, calendarID, events, time.Now()); err != nil {
		return toolError(sc, "Failed to render calendar", err), nil
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	input, err := eventInputFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if input.Body == nil && (input.Start == nil || input.End == nil) {
		return mcp.NewToolResultError("start and end are required"), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.Events.Create(ctx, common.StringArg(args, "calendarId"), input)
	if err != nil {
		return toolError(sc, "Failed to create event", err), nil
	}

	return mcp.NewToolResultText("Event created successfully.\n\n" + formatEvent(*event)), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return handleModifyEvent(ctx, request, sc, false)
}

func handlePatchEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return handleModifyEvent(ctx, request, sc, true)
}

func handleModifyEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext, patch bool) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequiredStringArg(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input, err := eventInputFromArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarID := common.StringArg(args, "calendarId")
	var event *calendar.Event
	switch {
	case patch:
		event, err = client.Events.Patch(ctx, calendarID, eventID, input)
	case common.BoolArg(args, "merge"):
		event, err = client.Events.UpdateMerged(ctx, calendarID, eventID, input)
	default:
		event, err = client.Events.Update(ctx, calendarID, eventID, input)
	}
	if err != nil {
		return toolError(sc, "Failed to update event", err), nil
	}

	return mcp.NewToolResultText("Event updated successfully.\n\n" + formatEvent(*event)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequiredStringArg(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.Events.Delete(ctx, common.StringArg(args, "calendarId"), eventID, common.StringArg(args, "sendUpdates")); err != nil {
		return toolError(sc, "Failed to delete event", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted successfully", eventID)), nil
}

func handleDeleteEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventIDs, err := batch.ParseIDs(args["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	calendarID := common.StringArg(args, "calendarId")
	sendUpdates := common.StringArg(args, "sendUpdates")
	results := batch.Run(ctx, eventIDs, func(ctx context.Context, id string) (string, error) {
		if err := client.Events.Delete(ctx, calendarID, id, sendUpdates); err != nil {
			return "", err
		}
		return "deleted", nil
	}, calendar.IsNotFound)

	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleMoveEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID, err := common.RequiredStringArg(args, "eventId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	destination, err := common.RequiredStringArg(args, "destination")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.Events.Move(ctx, common.StringArg(args, "calendarId"), eventID, destination)
	if err != nil {
		return toolError(sc, "Failed to move event", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event moved to %s.\n\n%s", destination, formatEvent(*event))), nil
}

func handleQuickAdd(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text, err := common.RequiredStringArg(args, "text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := getCalendarClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.Events.QuickAdd(ctx, common.StringArg(args, "calendarId"), text)
	if err != nil {
		return toolError(sc, "Failed to add event", err), nil
	}

	return mcp.NewToolResultText("Event created successfully.\n\n" + formatEvent(*event)), nil
}
