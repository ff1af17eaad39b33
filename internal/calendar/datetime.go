package calendar

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

const dateLayout = "2006-01-02"

// naiveLayout matches timestamps that carry no UTC offset.
const naiveLayout = "2006-01-02T15:04:05"

// EventDateTime is the start or end of an event: a calendar date for an
// all-day event, or an instant. Exactly one of Date and DateTime is set.
type EventDateTime struct {
	Date     time.Time
	DateTime time.Time
	// TimeZone is an IANA zone name, used by the service to expand
	// recurrences of timed events.
	TimeZone string
}

// At returns a timed EventDateTime. A zero t is ErrInvalidTimeValue.
func At(t time.Time) (*EventDateTime, error) {
	if t.IsZero() {
		return nil, fmt.Errorf("%w: zero timestamp", ErrInvalidTimeValue)
	}
	return &EventDateTime{DateTime: t}, nil
}

// On returns an all-day EventDateTime.
func On(year int, month time.Month, day int) *EventDateTime {
	return &EventDateTime{Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// AllDay reports whether d is a calendar date.
func (d EventDateTime) AllDay() bool {
	return !d.Date.IsZero()
}

// Time returns the instant, or midnight UTC of the date.
func (d EventDateTime) Time() time.Time {
	if d.AllDay() {
		return d.Date
	}
	return d.DateTime
}

// Validate checks that exactly one of Date and DateTime is set.
func (d EventDateTime) Validate() error {
	switch {
	case d.Date.IsZero() && d.DateTime.IsZero():
		return invalid("EventDateTime", "", "one of date or dateTime is required")
	case !d.Date.IsZero() && !d.DateTime.IsZero():
		return invalid("EventDateTime", "", "date and dateTime are mutually exclusive")
	}
	return nil
}

func (d EventDateTime) wire() *calendar.EventDateTime {
	out := &calendar.EventDateTime{TimeZone: d.TimeZone}
	if d.AllDay() {
		out.Date = d.Date.Format(dateLayout)
	} else if !d.DateTime.IsZero() {
		out.DateTime = d.DateTime.Format(time.RFC3339)
	}
	return out
}

func (d EventDateTime) toAPI() (*calendar.EventDateTime, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d.wire(), nil
}

// MarshalJSON encodes d in the service's {date|dateTime, timeZone} shape.
func (d EventDateTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.wire())
}

// UnmarshalJSON decodes the service's {date|dateTime, timeZone} shape.
func (d *EventDateTime) UnmarshalJSON(data []byte) error {
	var raw calendar.EventDateTime
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := eventDateTimeFromAPI("EventDateTime", "", &raw)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

func eventDateTimeFromAPI(record, field string, v *calendar.EventDateTime) (*EventDateTime, error) {
	if v == nil {
		return nil, nil
	}

	out := &EventDateTime{TimeZone: v.TimeZone}
	switch {
	case v.Date != "" && v.DateTime != "":
		return nil, invalid(record, field, "date and dateTime are mutually exclusive")
	case v.Date != "":
		t, err := time.Parse(dateLayout, v.Date)
		if err != nil {
			return nil, &ValidationError{Record: record, Field: field, Reason: "malformed date", Err: err}
		}
		out.Date = t
	case v.DateTime != "":
		t, err := time.Parse(time.RFC3339, v.DateTime)
		if err != nil {
			return nil, &ValidationError{Record: record, Field: field, Reason: "malformed dateTime", Err: err}
		}
		out.DateTime = t
	default:
		return nil, invalid(record, field, "one of date or dateTime is required")
	}

	return out, nil
}

// ParseTime parses an RFC 3339 timestamp. Timestamps without a UTC offset
// are rejected rather than guessed.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	if _, naiveErr := time.Parse(naiveLayout, s); naiveErr == nil {
		return time.Time{}, fmt.Errorf("%w: %q has no UTC offset", ErrInvalidTimeValue, s)
	}
	return time.Time{}, fmt.Errorf("%w: %q is not an RFC 3339 timestamp", ErrInvalidTimeValue, s)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q is not a YYYY-MM-DD date", ErrInvalidTimeValue, s)
	}
	return t, nil
}

// ParseEventDateTime accepts either a YYYY-MM-DD date or an RFC 3339
// timestamp.
func ParseEventDateTime(s string) (*EventDateTime, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(dateLayout) {
		t, err := ParseDate(s)
		if err != nil {
			return nil, err
		}
		return &EventDateTime{Date: t}, nil
	}

	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &EventDateTime{DateTime: t}, nil
}

// formatTime renders a required timestamp for the wire.
func formatTime(name string, t time.Time) (string, error) {
	if t.IsZero() {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidTimeValue, name)
	}
	return t.Format(time.RFC3339), nil
}

// formatOptionalTime renders a filter bound; zero means unbounded.
func formatOptionalTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func parseOptionalTime(record, field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, &ValidationError{Record: record, Field: field, Reason: "malformed timestamp", Err: err}
	}
	return t, nil
}
