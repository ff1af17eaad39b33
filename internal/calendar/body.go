package calendar

import (
	"fmt"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"
)

// Values of the sendUpdates parameter of mutating event calls.
const (
	SendUpdatesAll          = "all"
	SendUpdatesExternalOnly = "externalOnly"
	SendUpdatesNone         = "none"
)

// EventInput describes an event to create, replace or patch.
//
// When Body is set it is sent exactly as given and every convenience field
// is ignored. Otherwise the request body carries only the convenience fields
// that are set.
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       *EventDateTime
	End         *EventDateTime
	// TimeZone applies to Start and End when they carry no zone of their own.
	TimeZone   string
	Attendees  []Attendee
	Recurrence []string
	EventType  string
	// AddMeet requests a new Google Meet conference for the event.
	AddMeet bool

	// SendUpdates selects who is notified of the change. Empty leaves the
	// service default. It is a request parameter, so it also applies with Body.
	SendUpdates string

	Body *calendar.Event
}

// Build returns the request body for in.
func (in EventInput) Build() (*calendar.Event, error) {
	if in.Body != nil {
		return in.Body, nil
	}

	body := &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Recurrence:  in.Recurrence,
		EventType:   in.EventType,
	}

	var err error
	if body.Start, err = in.dateTime("start", in.Start); err != nil {
		return nil, err
	}
	if body.End, err = in.dateTime("end", in.End); err != nil {
		return nil, err
	}

	for _, a := range in.Attendees {
		if a.Email == "" {
			return nil, invalid("Attendee", "email", "is required")
		}
		body.Attendees = append(body.Attendees, a.toAPI())
	}

	if in.AddMeet {
		body.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{
					Type: "hangoutsMeet",
				},
			},
		}
	}

	return body, nil
}

// Merge returns base as a request body with the convenience fields set in
// in laid over it. A set Body wins outright, as with Build.
func (in EventInput) Merge(base Event) (*calendar.Event, error) {
	if in.Body != nil {
		return in.Body, nil
	}
	set, err := in.Build()
	if err != nil {
		return nil, err
	}
	body, err := base.ToAPI()
	if err != nil {
		return nil, err
	}

	if set.Summary != "" {
		body.Summary = set.Summary
	}
	if set.Description != "" {
		body.Description = set.Description
	}
	if set.Location != "" {
		body.Location = set.Location
	}
	if set.EventType != "" {
		body.EventType = set.EventType
	}
	if set.Start != nil {
		body.Start = set.Start
	}
	if set.End != nil {
		body.End = set.End
	}
	if len(set.Recurrence) > 0 {
		body.Recurrence = set.Recurrence
	}
	if len(set.Attendees) > 0 {
		body.Attendees = set.Attendees
	}
	if set.ConferenceData != nil {
		body.ConferenceData = set.ConferenceData
	}
	return body, nil
}

func (in EventInput) dateTime(field string, d *EventDateTime) (*calendar.EventDateTime, error) {
	if d == nil {
		return nil, nil
	}
	if d.Date.IsZero() && d.DateTime.IsZero() {
		return nil, fmt.Errorf("%w: %s is a zero timestamp", ErrInvalidTimeValue, field)
	}
	if err := d.Validate(); err != nil {
		return nil, &ValidationError{Record: "Event", Field: field, Reason: "invalid time", Err: err}
	}
	out := d.wire()
	if out.TimeZone == "" {
		out.TimeZone = in.TimeZone
	}
	return out, nil
}
