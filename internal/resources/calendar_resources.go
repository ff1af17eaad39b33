package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/server"
)

// Resource URIs.
const (
	CalendarsURI      = "calendar://calendars"
	UpcomingEventsURI = "calendar://events/upcoming"
)

// UpcomingWindow is how far ahead the upcoming events resource looks.
const UpcomingWindow = 24 * time.Hour

// RegisterCalendarResources registers the calendar list and the upcoming
// events of the primary calendar.
func RegisterCalendarResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	calendarsResource := mcp.NewResource(
		CalendarsURI,
		"Calendars",
		mcp.WithResourceDescription("Every calendar on the user's calendar list"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendars(ctx, request, sc)
	})

	upcomingResource := mcp.NewResource(
		UpcomingEventsURI,
		"Upcoming Events",
		mcp.WithResourceDescription("Events of the primary calendar in the next 24 hours, recurring events expanded"),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(upcomingResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleUpcomingEvents(ctx, request, sc, time.Now())
	})

	return nil
}

func handleCalendars(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return nil, err
	}

	calendars, err := client.Calendars.ListAll(ctx, calendar.ListCalendarsOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	return jsonContents(request.Params.URI, map[string]any{
		"count":     len(calendars),
		"calendars": calendars,
	})
}

func handleUpcomingEvents(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext, now time.Time) ([]mcp.ResourceContents, error) {
	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return nil, err
	}

	until := now.Add(UpcomingWindow)
	events, err := client.Events.ListAll(ctx, calendar.PrimaryCalendar, calendar.ListEventsOptions{
		TimeMin: now,
		TimeMax: until,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}

	return jsonContents(request.Params.URI, map[string]any{
		"from":   now.UTC().Format(time.RFC3339),
		"to":     until.UTC().Format(time.RFC3339),
		"count":  len(events),
		"events": events,
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
