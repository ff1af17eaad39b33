package calendar_tools

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/gcal/internal/calendar"
)

func formatWhen(d *calendar.EventDateTime) string {
	switch {
	case d == nil:
		return "-"
	case d.AllDay():
		return d.Date.Format(time.DateOnly)
	default:
		return d.DateTime.Format(time.RFC3339)
	}
}

func formatEvents(events []calendar.Event, nextPageToken string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n\n", len(events))
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, event.Summary)
		writeEventDetails(&b, event, "   ")
		b.WriteString("\n")
	}
	if nextPageToken != "" {
		fmt.Fprintf(&b, "More events available. Pass pageToken %q to continue.\n", nextPageToken)
	}
	return b.String()
}

func formatEvent(event calendar.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", event.Summary)
	writeEventDetails(&b, event, "")
	if event.Description != "" {
		fmt.Fprintf(&b, "\nDescription:\n%s\n", event.Description)
	}
	return b.String()
}

func writeEventDetails(b *strings.Builder, event calendar.Event, indent string) {
	fmt.Fprintf(b, "%sID: %s\n", indent, event.ID)
	fmt.Fprintf(b, "%sStart: %s\n", indent, formatWhen(event.Start))
	fmt.Fprintf(b, "%sEnd: %s\n", indent, formatWhen(event.End))
	if event.Status != "" {
		fmt.Fprintf(b, "%sStatus: %s\n", indent, event.Status)
	}
	if event.Location != "" {
		fmt.Fprintf(b, "%sLocation: %s\n", indent, event.Location)
	}
	if event.MeetLink != "" {
		fmt.Fprintf(b, "%sMeet: %s\n", indent, event.MeetLink)
	}
	if event.EventType != "" && event.EventType != "default" {
		fmt.Fprintf(b, "%sType: %s\n", indent, event.EventType)
	}
	if len(event.Recurrence) > 0 {
		fmt.Fprintf(b, "%sRecurrence: %s\n", indent, strings.Join(event.Recurrence, "; "))
	}
	if event.IsRecurringInstance() {
		fmt.Fprintf(b, "%sRecurring event: %s\n", indent, event.RecurringEventID)
	}
	if len(event.Attendees) > 0 {
		fmt.Fprintf(b, "%sAttendees:\n", indent)
		for _, a := range event.Attendees {
			status := a.ResponseStatus
			if status == "" {
				status = "needsAction"
			}
			fmt.Fprintf(b, "%s  - %s (%s)\n", indent, a.Email, status)
		}
	}
	if event.HTMLLink != "" {
		fmt.Fprintf(b, "%sLink: %s\n", indent, event.HTMLLink)
	}
}

func formatCalendars(calendars []calendar.Calendar, nextPageToken string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendars:\n\n", len(calendars))
	for i, cal := range calendars {
		name := cal.DisplayName()
		if cal.Primary {
			name += " (primary)"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
		writeCalendarDetails(&b, cal, "   ")
		b.WriteString("\n")
	}
	if nextPageToken != "" {
		fmt.Fprintf(&b, "More calendars available. Pass pageToken %q to continue.\n", nextPageToken)
	}
	return b.String()
}

func formatCalendar(cal calendar.Calendar) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Calendar: %s\n", cal.DisplayName())
	writeCalendarDetails(&b, cal, "")
	return b.String()
}

func writeCalendarDetails(b *strings.Builder, cal calendar.Calendar, indent string) {
	fmt.Fprintf(b, "%sID: %s\n", indent, cal.ID)
	if cal.TimeZone != "" {
		fmt.Fprintf(b, "%sTime Zone: %s\n", indent, cal.TimeZone)
	}
	if cal.AccessRole != "" {
		fmt.Fprintf(b, "%sAccess Role: %s\n", indent, cal.AccessRole)
	}
	if cal.Description != "" {
		fmt.Fprintf(b, "%sDescription: %s\n", indent, cal.Description)
	}
	if cal.Location != "" {
		fmt.Fprintf(b, "%sLocation: %s\n", indent, cal.Location)
	}
}

func formatPeriods(periods []calendar.BusyPeriod) string {
	var b strings.Builder
	for _, p := range periods {
		fmt.Fprintf(&b, "  - %s to %s (%s)\n",
			p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), p.Duration())
	}
	return b.String()
}
