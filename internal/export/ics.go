// Package export renders calendar events in exchange formats.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/teemow/gcal/internal/calendar"
)

// ProductID identifies gcal as the producer of exported documents.
const ProductID = "-//teemow//gcal//EN"

// ICS builds an iCalendar document publishing events. name becomes the
// calendar's display name when set; stamp is written as DTSTAMP.
func ICS(name string, events []calendar.Event, stamp time.Time) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ics.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	for _, ev := range events {
		if ev.Start == nil {
			continue
		}
		addEvent(cal, ev, stamp)
	}
	return cal
}

// WriteICS writes events to w as an iCalendar document.
func WriteICS(w io.Writer, name string, events []calendar.Event, stamp time.Time) error {
	if _, err := io.WriteString(w, ICS(name, events, stamp).Serialize()); err != nil {
		return fmt.Errorf("failed to write iCalendar: %w", err)
	}
	return nil
}

func addEvent(cal *ics.Calendar, ev calendar.Event, stamp time.Time) {
	vevent := cal.AddEvent(uid(ev))
	vevent.SetDtStampTime(stamp)
	if !ev.Created.IsZero() {
		vevent.SetCreatedTime(ev.Created)
	}
	if !ev.Updated.IsZero() {
		vevent.SetModifiedAt(ev.Updated)
	}

	if ev.Start.AllDay() {
		vevent.SetAllDayStartAt(ev.Start.Date)
		if ev.End != nil && ev.End.AllDay() {
			vevent.SetAllDayEndAt(ev.End.Date)
		}
	} else {
		vevent.SetStartAt(ev.Start.DateTime)
		if ev.End != nil && !ev.End.AllDay() {
			vevent.SetEndAt(ev.End.DateTime)
		}
	}

	if ev.Summary != "" {
		vevent.SetSummary(ev.Summary)
	}
	if ev.Description != "" {
		vevent.SetDescription(ev.Description)
	}
	if ev.Location != "" {
		vevent.SetLocation(ev.Location)
	}
	if ev.HTMLLink != "" {
		vevent.SetURL(ev.HTMLLink)
	}
	if status, ok := objectStatus(ev.Status); ok {
		vevent.SetStatus(status)
	}

	if ev.Organizer != nil && ev.Organizer.Email != "" {
		if ev.Organizer.DisplayName != "" {
			vevent.SetOrganizer("mailto:"+ev.Organizer.Email, ics.WithCN(ev.Organizer.DisplayName))
		} else {
			vevent.SetOrganizer("mailto:" + ev.Organizer.Email)
		}
	}
	for _, a := range ev.Attendees {
		if a.DisplayName != "" {
			vevent.AddAttendee(a.Email, ics.WithCN(a.DisplayName))
		} else {
			vevent.AddAttendee(a.Email)
		}
	}

	for _, rule := range ev.Recurrence {
		if prop, value, params, ok := recurrenceProperty(rule); ok {
			vevent.AddProperty(prop, value, params...)
		}
	}

	if ev.Reminders != nil {
		for _, r := range ev.Reminders.Overrides {
			if r.Method != "popup" {
				continue
			}
			alarm := vevent.AddAlarm()
			alarm.SetAction(ics.ActionDisplay)
			alarm.SetTrigger(fmt.Sprintf("-PT%dM", r.Minutes))
		}
	}
}

// uid prefers the event's iCalendar UID so that exports of the same event
// from different calendars collapse in the importing client.
func uid(ev calendar.Event) string {
	if ev.ICalUID != "" {
		return ev.ICalUID
	}
	return ev.ID + "@google.com"
}

func objectStatus(status string) (ics.ObjectStatus, bool) {
	switch status {
	case "confirmed":
		return ics.ObjectStatusConfirmed, true
	case "tentative":
		return ics.ObjectStatusTentative, true
	case "cancelled":
		return ics.ObjectStatusCancelled, true
	}
	return "", false
}

// recurrenceProperty splits a recurrence line such as
// "EXDATE;TZID=Europe/Berlin:20240503T100000" into its property, value and
// parameters. Parameters such as TZID and VALUE stay attached to the value.
func recurrenceProperty(line string) (ics.ComponentProperty, string, []ics.PropertyParameter, bool) {
	head, value, ok := strings.Cut(line, ":")
	if !ok || value == "" {
		return "", "", nil, false
	}
	parts := strings.Split(head, ";")

	var prop ics.ComponentProperty
	switch strings.ToUpper(parts[0]) {
	case "RRULE":
		prop = ics.ComponentPropertyRrule
	case "EXDATE":
		prop = ics.ComponentPropertyExdate
	case "RDATE":
		prop = ics.ComponentPropertyRdate
	default:
		return "", "", nil, false
	}

	var params []ics.PropertyParameter
	for _, part := range parts[1:] {
		key, val, ok := strings.Cut(part, "=")
		if !ok || key == "" || val == "" {
			continue
		}
		params = append(params, &ics.KeyValues{
			Key:   strings.ToUpper(key),
			Value: []string{strings.Trim(val, `"`)},
		})
	}
	return prop, value, params, true
}
