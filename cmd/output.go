package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/export"
)

// Output formats.
const (
	formatJSON = "json"
	formatText = "text"
	formatICS  = "ics"
)

func checkFormat(format string, allowed ...string) error {
	if slices.Contains(allowed, format) {
		return nil
	}
	return fmt.Errorf("unsupported format %q, must be one of: %s", format, strings.Join(allowed, ", "))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

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

func writeEventLine(w io.Writer, e calendar.Event) {
	summary := e.Summary
	if summary == "" {
		summary = "(no title)"
	}
	fmt.Fprintf(w, "%s  %s  %s  %s\n", formatWhen(e.Start), formatWhen(e.End), e.ID, summary)
}

func writeEvent(w io.Writer, e calendar.Event) {
	fmt.Fprintf(w, "ID:       %s\n", e.ID)
	fmt.Fprintf(w, "Summary:  %s\n", e.Summary)
	fmt.Fprintf(w, "Start:    %s\n", formatWhen(e.Start))
	fmt.Fprintf(w, "End:      %s\n", formatWhen(e.End))
	if e.Status != "" {
		fmt.Fprintf(w, "Status:   %s\n", e.Status)
	}
	if e.Location != "" {
		fmt.Fprintf(w, "Location: %s\n", e.Location)
	}
	if e.MeetLink != "" {
		fmt.Fprintf(w, "Meet:     %s\n", e.MeetLink)
	}
	for _, line := range e.Recurrence {
		fmt.Fprintf(w, "Repeats:  %s\n", line)
	}
	for _, a := range e.Attendees {
		fmt.Fprintf(w, "Attendee: %s (%s)\n", a.Email, a.ResponseStatus)
	}
	if e.HTMLLink != "" {
		fmt.Fprintf(w, "Link:     %s\n", e.HTMLLink)
	}
	if e.Description != "" {
		fmt.Fprintf(w, "\n%s\n", e.Description)
	}
}

// writeEvents renders a listing. nextPageToken is printed for text output
// and included in the JSON object; ICS output carries events only.
func writeEvents(w io.Writer, format, calendarName string, events []calendar.Event, nextPageToken string) error {
	switch format {
	case formatJSON:
		return writeJSON(w, calendar.Page[calendar.Event]{Items: events, NextPageToken: nextPageToken})
	case formatICS:
		return export.WriteICS(w, calendarName, events, time.Now())
	default:
		for _, e := range events {
			writeEventLine(w, e)
		}
		if nextPageToken != "" {
			fmt.Fprintf(w, "next page: --page-token %s\n", nextPageToken)
		}
		return nil
	}
}

func writeSingleEvent(w io.Writer, format string, e *calendar.Event) error {
	if format == formatJSON {
		return writeJSON(w, e)
	}
	writeEvent(w, *e)
	return nil
}

func writeCalendarLine(w io.Writer, c calendar.Calendar) {
	name := c.DisplayName()
	if c.Primary {
		name += " (primary)"
	}
	fmt.Fprintf(w, "%s  %s  %s\n", c.ID, c.AccessRole, name)
}

func writeCalendars(w io.Writer, format string, calendars []calendar.Calendar, nextPageToken string) error {
	if format == formatJSON {
		return writeJSON(w, calendar.Page[calendar.Calendar]{Items: calendars, NextPageToken: nextPageToken})
	}
	for _, c := range calendars {
		writeCalendarLine(w, c)
	}
	if nextPageToken != "" {
		fmt.Fprintf(w, "next page: --page-token %s\n", nextPageToken)
	}
	return nil
}

func writeSingleCalendar(w io.Writer, format string, c *calendar.Calendar) error {
	if format == formatJSON {
		return writeJSON(w, c)
	}
	fmt.Fprintf(w, "ID:          %s\n", c.ID)
	fmt.Fprintf(w, "Summary:     %s\n", c.DisplayName())
	if c.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", c.Description)
	}
	if c.TimeZone != "" {
		fmt.Fprintf(w, "Time zone:   %s\n", c.TimeZone)
	}
	if c.AccessRole != "" {
		fmt.Fprintf(w, "Access role: %s\n", c.AccessRole)
	}
	return nil
}

func writePeriods(w io.Writer, periods []calendar.BusyPeriod) {
	for _, p := range periods {
		fmt.Fprintf(w, "  %s  %s  %s\n", p.Start.Format(time.RFC3339), p.End.Format(time.RFC3339), p.Duration())
	}
}

func writeFreeBusy(w io.Writer, format string, resp *calendar.FreeBusyResponse) error {
	if format == formatJSON {
		return writeJSON(w, resp)
	}

	ids := make([]string, 0, len(resp.Calendars))
	for id := range resp.Calendars {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		cal := resp.Calendars[id]
		fmt.Fprintf(w, "%s\n", id)
		switch {
		case cal.HasErrors():
			for _, e := range cal.Errors {
				fmt.Fprintf(w, "  error: %s\n", e.Reason)
			}
		case len(cal.Busy) == 0:
			fmt.Fprintln(w, "  free")
		default:
			writePeriods(w, cal.Busy)
		}
	}
	return nil
}
