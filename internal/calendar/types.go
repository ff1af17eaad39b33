package calendar

import (
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// Attendee is a guest of an event.
type Attendee struct {
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ResponseStatus string `json:"responseStatus,omitempty"` // "needsAction", "declined", "tentative", "accepted"
	Optional       bool   `json:"optional,omitempty"`
	Organizer      bool   `json:"organizer,omitempty"`
	Self           bool   `json:"self,omitempty"`
	Resource       bool   `json:"resource,omitempty"`
	Comment        string `json:"comment,omitempty"`
}

// ParseAttendee turns a bare address into an Attendee.
func ParseAttendee(s string) Attendee {
	return Attendee{Email: strings.TrimSpace(s)}
}

// ParseAttendees applies ParseAttendee to each address, skipping blanks.
func ParseAttendees(list []string) []Attendee {
	var out []Attendee
	for _, s := range list {
		if a := ParseAttendee(s); a.Email != "" {
			out = append(out, a)
		}
	}
	return out
}

func (a Attendee) toAPI() *calendar.EventAttendee {
	return &calendar.EventAttendee{
		Email:          a.Email,
		DisplayName:    a.DisplayName,
		ResponseStatus: a.ResponseStatus,
		Optional:       a.Optional,
		Comment:        a.Comment,
	}
}

func attendeeFromAPI(a *calendar.EventAttendee) (Attendee, error) {
	if a.Email == "" {
		return Attendee{}, invalid("Attendee", "email", "is required")
	}
	return Attendee{
		Email:          a.Email,
		DisplayName:    a.DisplayName,
		ResponseStatus: a.ResponseStatus,
		Optional:       a.Optional,
		Organizer:      a.Organizer,
		Self:           a.Self,
		Resource:       a.Resource,
		Comment:        a.Comment,
	}, nil
}

// Person is the creator or organizer of an event.
type Person struct {
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Self        bool   `json:"self,omitempty"`
}

// Reminder is a single notification override.
type Reminder struct {
	Method  string `json:"method"` // "email" or "popup"
	Minutes int64  `json:"minutes"`
}

// Reminders describes how attendees are notified about an event.
type Reminders struct {
	UseDefault bool       `json:"useDefault"`
	Overrides  []Reminder `json:"overrides,omitempty"`
}

// ExtendedProperties are application-defined key/value pairs on an event.
type ExtendedProperties struct {
	Private map[string]string `json:"private,omitempty"`
	Shared  map[string]string `json:"shared,omitempty"`
}

// Source links an event back to where it was created from.
type Source struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Event is a calendar event as returned by the service.
type Event struct {
	ID                 string              `json:"id,omitempty"`
	CalendarID         string              `json:"calendarId,omitempty"`
	Summary            string              `json:"summary,omitempty"`
	Description        string              `json:"description,omitempty"`
	Location           string              `json:"location,omitempty"`
	Start              *EventDateTime      `json:"start,omitempty"`
	End                *EventDateTime      `json:"end,omitempty"`
	Status             string              `json:"status,omitempty"` // "confirmed", "tentative", "cancelled"
	HTMLLink           string              `json:"htmlLink,omitempty"`
	Created            time.Time           `json:"created,omitzero"`
	Updated            time.Time           `json:"updated,omitzero"`
	Creator            *Person             `json:"creator,omitempty"`
	Organizer          *Person             `json:"organizer,omitempty"`
	Attendees          []Attendee          `json:"attendees,omitempty"`
	Recurrence         []string            `json:"recurrence,omitempty"` // RRULE, EXRULE, RDATE, EXDATE
	RecurringEventID   string              `json:"recurringEventId,omitempty"`
	Transparency       string              `json:"transparency,omitempty"`
	Visibility         string              `json:"visibility,omitempty"`
	ICalUID            string              `json:"iCalUID,omitempty"`
	Sequence           int64               `json:"sequence,omitempty"`
	ETag               string              `json:"etag,omitempty"`
	Kind               string              `json:"kind,omitempty"`
	ColorID            string              `json:"colorId,omitempty"`
	EventType          string              `json:"eventType,omitempty"` // "default", "outOfOffice", "focusTime", "workingLocation"
	HangoutLink        string              `json:"hangoutLink,omitempty"`
	MeetLink           string              `json:"meetLink,omitempty"`
	Reminders          *Reminders          `json:"reminders,omitempty"`
	ExtendedProperties *ExtendedProperties `json:"extendedProperties,omitempty"`
	Source             *Source             `json:"source,omitempty"`
}

// IsRecurringInstance reports whether e is one occurrence of a recurring event.
func (e Event) IsRecurringInstance() bool {
	return e.RecurringEventID != ""
}

// eventFromAPI converts a service event. calendarID records which calendar
// the event was read from.
func eventFromAPI(calendarID string, e *calendar.Event) (Event, error) {
	if e == nil {
		return Event{}, invalid("Event", "", "empty record")
	}

	out := Event{
		ID:               e.Id,
		CalendarID:       calendarID,
		Summary:          e.Summary,
		Description:      e.Description,
		Location:         e.Location,
		Status:           e.Status,
		HTMLLink:         e.HtmlLink,
		Recurrence:       e.Recurrence,
		RecurringEventID: e.RecurringEventId,
		Transparency:     e.Transparency,
		Visibility:       e.Visibility,
		ICalUID:          e.ICalUID,
		Sequence:         e.Sequence,
		ETag:             e.Etag,
		Kind:             e.Kind,
		ColorID:          e.ColorId,
		EventType:        e.EventType,
		HangoutLink:      e.HangoutLink,
	}

	var err error
	if out.Start, err = eventDateTimeFromAPI("Event", "start", e.Start); err != nil {
		return Event{}, err
	}
	if out.End, err = eventDateTimeFromAPI("Event", "end", e.End); err != nil {
		return Event{}, err
	}
	if out.Created, err = parseOptionalTime("Event", "created", e.Created); err != nil {
		return Event{}, err
	}
	if out.Updated, err = parseOptionalTime("Event", "updated", e.Updated); err != nil {
		return Event{}, err
	}

	if e.Creator != nil {
		out.Creator = &Person{Email: e.Creator.Email, DisplayName: e.Creator.DisplayName, Self: e.Creator.Self}
	}
	if e.Organizer != nil {
		out.Organizer = &Person{Email: e.Organizer.Email, DisplayName: e.Organizer.DisplayName, Self: e.Organizer.Self}
	}

	for _, a := range e.Attendees {
		if a == nil {
			continue
		}
		attendee, err := attendeeFromAPI(a)
		if err != nil {
			return Event{}, err
		}
		out.Attendees = append(out.Attendees, attendee)
	}

	if e.Reminders != nil {
		out.Reminders = &Reminders{UseDefault: e.Reminders.UseDefault}
		for _, r := range e.Reminders.Overrides {
			if r != nil {
				out.Reminders.Overrides = append(out.Reminders.Overrides, Reminder{Method: r.Method, Minutes: r.Minutes})
			}
		}
	}
	if e.ExtendedProperties != nil {
		out.ExtendedProperties = &ExtendedProperties{
			Private: e.ExtendedProperties.Private,
			Shared:  e.ExtendedProperties.Shared,
		}
	}
	if e.Source != nil {
		out.Source = &Source{Title: e.Source.Title, URL: e.Source.Url}
	}

	if e.ConferenceData != nil {
		for _, ep := range e.ConferenceData.EntryPoints {
			if ep != nil && ep.EntryPointType == "video" {
				out.MeetLink = ep.Uri
				break
			}
		}
	}

	return out, nil
}

// ToAPI converts e back into the request shape, for a full replacement via
// Update. Read-only fields are dropped.
func (e Event) ToAPI() (*calendar.Event, error) {
	out := &calendar.Event{
		Id:           e.ID,
		Summary:      e.Summary,
		Description:  e.Description,
		Location:     e.Location,
		Status:       e.Status,
		Recurrence:   e.Recurrence,
		Transparency: e.Transparency,
		Visibility:   e.Visibility,
		ICalUID:      e.ICalUID,
		Sequence:     e.Sequence,
		ColorId:      e.ColorID,
		EventType:    e.EventType,
	}

	var err error
	if e.Start != nil {
		if out.Start, err = e.Start.toAPI(); err != nil {
			return nil, err
		}
	}
	if e.End != nil {
		if out.End, err = e.End.toAPI(); err != nil {
			return nil, err
		}
	}

	for _, a := range e.Attendees {
		if a.Email == "" {
			return nil, invalid("Attendee", "email", "is required")
		}
		out.Attendees = append(out.Attendees, a.toAPI())
	}

	if e.Reminders != nil {
		out.Reminders = &calendar.EventReminders{
			UseDefault: e.Reminders.UseDefault,
			// false is meaningful here and would otherwise be omitted.
			ForceSendFields: []string{"UseDefault"},
		}
		for _, r := range e.Reminders.Overrides {
			out.Reminders.Overrides = append(out.Reminders.Overrides, &calendar.EventReminder{Method: r.Method, Minutes: r.Minutes})
		}
	}
	if e.ExtendedProperties != nil {
		out.ExtendedProperties = &calendar.EventExtendedProperties{
			Private: e.ExtendedProperties.Private,
			Shared:  e.ExtendedProperties.Shared,
		}
	}
	if e.Source != nil {
		out.Source = &calendar.EventSource{Title: e.Source.Title, Url: e.Source.URL}
	}

	return out, nil
}

// Calendar is an entry of the user's calendar list, or a calendar resource
// (which only fills the shared metadata fields).
type Calendar struct {
	ID               string     `json:"id"`
	Summary          string     `json:"summary,omitempty"`
	SummaryOverride  string     `json:"summaryOverride,omitempty"`
	Description      string     `json:"description,omitempty"`
	Location         string     `json:"location,omitempty"`
	TimeZone         string     `json:"timeZone,omitempty"`
	Primary          bool       `json:"primary,omitempty"`
	AccessRole       string     `json:"accessRole,omitempty"` // "owner", "writer", "reader", "freeBusyReader"
	BackgroundColor  string     `json:"backgroundColor,omitempty"`
	ForegroundColor  string     `json:"foregroundColor,omitempty"`
	ColorID          string     `json:"colorId,omitempty"`
	Selected         bool       `json:"selected,omitempty"`
	Hidden           bool       `json:"hidden,omitempty"`
	Deleted          bool       `json:"deleted,omitempty"`
	ETag             string     `json:"etag,omitempty"`
	Kind             string     `json:"kind,omitempty"`
	DefaultReminders []Reminder `json:"defaultReminders,omitempty"`
}

// DisplayName returns the user's override of the summary if set.
func (c Calendar) DisplayName() string {
	if c.SummaryOverride != "" {
		return c.SummaryOverride
	}
	return c.Summary
}

func calendarFromListEntry(e *calendar.CalendarListEntry) (Calendar, error) {
	if e == nil || e.Id == "" {
		return Calendar{}, invalid("Calendar", "id", "is required")
	}

	out := Calendar{
		ID:              e.Id,
		Summary:         e.Summary,
		SummaryOverride: e.SummaryOverride,
		Description:     e.Description,
		Location:        e.Location,
		TimeZone:        e.TimeZone,
		Primary:         e.Primary,
		AccessRole:      e.AccessRole,
		BackgroundColor: e.BackgroundColor,
		ForegroundColor: e.ForegroundColor,
		ColorID:         e.ColorId,
		Selected:        e.Selected,
		Hidden:          e.Hidden,
		Deleted:         e.Deleted,
		ETag:            e.Etag,
		Kind:            e.Kind,
	}
	for _, r := range e.DefaultReminders {
		if r != nil {
			out.DefaultReminders = append(out.DefaultReminders, Reminder{Method: r.Method, Minutes: r.Minutes})
		}
	}

	return out, nil
}

func calendarFromResource(c *calendar.Calendar) (Calendar, error) {
	if c == nil || c.Id == "" {
		return Calendar{}, invalid("Calendar", "id", "is required")
	}

	return Calendar{
		ID:          c.Id,
		Summary:     c.Summary,
		Description: c.Description,
		Location:    c.Location,
		TimeZone:    c.TimeZone,
		ETag:        c.Etag,
		Kind:        c.Kind,
	}, nil
}

// BusyPeriod is an interval during which a calendar is busy.
type BusyPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the length of the period.
func (p BusyPeriod) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// FreeBusyError is a per-calendar failure reported inside a free/busy response.
type FreeBusyError struct {
	Domain string `json:"domain,omitempty"`
	Reason string `json:"reason,omitempty"` // "notFound", "internalError", ...
}

// CalendarFreeBusy is the availability of one queried calendar.
type CalendarFreeBusy struct {
	Busy   []BusyPeriod    `json:"busy"`
	Errors []FreeBusyError `json:"errors,omitempty"`
}

// HasErrors reports whether the service could not compute availability for
// this calendar. Busy is then not authoritative.
func (c CalendarFreeBusy) HasErrors() bool {
	return len(c.Errors) > 0
}

// FreeBusyGroup is the expansion of a queried group.
type FreeBusyGroup struct {
	Calendars []string        `json:"calendars,omitempty"`
	Errors    []FreeBusyError `json:"errors,omitempty"`
}

// FreeBusyResponse is the result of a free/busy query, keyed by calendar id.
type FreeBusyResponse struct {
	Kind      string                      `json:"kind,omitempty"`
	TimeMin   time.Time                   `json:"timeMin,omitzero"`
	TimeMax   time.Time                   `json:"timeMax,omitzero"`
	Calendars map[string]CalendarFreeBusy `json:"calendars"`
	Groups    map[string]FreeBusyGroup    `json:"groups,omitempty"`
}

func freeBusyErrorsFromAPI(in []*calendar.Error) []FreeBusyError {
	var out []FreeBusyError
	for _, e := range in {
		if e != nil {
			out = append(out, FreeBusyError{Domain: e.Domain, Reason: e.Reason})
		}
	}
	return out
}

func freeBusyFromAPI(r *calendar.FreeBusyResponse) (*FreeBusyResponse, error) {
	out := &FreeBusyResponse{
		Kind:      r.Kind,
		Calendars: make(map[string]CalendarFreeBusy, len(r.Calendars)),
	}

	var err error
	if out.TimeMin, err = parseOptionalTime("FreeBusyResponse", "timeMin", r.TimeMin); err != nil {
		return nil, err
	}
	if out.TimeMax, err = parseOptionalTime("FreeBusyResponse", "timeMax", r.TimeMax); err != nil {
		return nil, err
	}

	for id, cal := range r.Calendars {
		entry := CalendarFreeBusy{
			Busy:   []BusyPeriod{},
			Errors: freeBusyErrorsFromAPI(cal.Errors),
		}
		for _, p := range cal.Busy {
			if p == nil {
				continue
			}
			start, err := time.Parse(time.RFC3339, p.Start)
			if err != nil {
				return nil, &ValidationError{Record: "BusyPeriod", Field: "start", Reason: "malformed timestamp", Err: err}
			}
			end, err := time.Parse(time.RFC3339, p.End)
			if err != nil {
				return nil, &ValidationError{Record: "BusyPeriod", Field: "end", Reason: "malformed timestamp", Err: err}
			}
			entry.Busy = append(entry.Busy, BusyPeriod{Start: start, End: end})
		}
		out.Calendars[id] = entry
	}

	if len(r.Groups) > 0 {
		out.Groups = make(map[string]FreeBusyGroup, len(r.Groups))
		for id, g := range r.Groups {
			out.Groups[id] = FreeBusyGroup{
				Calendars: g.Calendars,
				Errors:    freeBusyErrorsFromAPI(g.Errors),
			}
		}
	}

	return out, nil
}
