package calendar

import (
	"context"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/gcal/internal/instrumentation"
)

// Minimum access roles accepted by ListCalendarsOptions.MinAccessRole.
const (
	AccessRoleFreeBusyReader = "freeBusyReader"
	AccessRoleReader         = "reader"
	AccessRoleWriter         = "writer"
	AccessRoleOwner          = "owner"
)

// ListCalendarsOptions filters the user's calendar list.
type ListCalendarsOptions struct {
	ShowDeleted   bool
	ShowHidden    bool
	MaxResults    int64
	PageToken     string
	MinAccessRole string
}

// CalendarInput holds the metadata of a calendar to create or patch.
type CalendarInput struct {
	Summary     string
	Description string
	Location    string
	TimeZone    string
}

func (in CalendarInput) empty() bool {
	return in == CalendarInput{}
}

func (in CalendarInput) toAPI() *calendar.Calendar {
	return &calendar.Calendar{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		TimeZone:    in.TimeZone,
	}
}

// CalendarsClient reads the user's calendar list and manages calendars.
type CalendarsClient struct {
	*resource
}

// List returns one page of the calendar list.
func (c *CalendarsClient) List(ctx context.Context, opts ListCalendarsOptions) (Page[Calendar], error) {
	var resp *calendar.CalendarList
	err := c.call(ctx, "calendarList.list", retryable, func(ctx context.Context) error {
		call := c.api.CalendarList.List().
			MaxResults(c.size(opts.MaxResults, maxCalendarListPageSize)).
			Context(ctx)
		if opts.ShowDeleted {
			call = call.ShowDeleted(true)
		}
		if opts.ShowHidden {
			call = call.ShowHidden(true)
		}
		if opts.MinAccessRole != "" {
			call = call.MinAccessRole(opts.MinAccessRole)
		}
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}

		var err error
		resp, err = call.Do()
		return err
	})
	if err != nil {
		return Page[Calendar]{}, err
	}
	if resp == nil {
		return Page[Calendar]{Items: []Calendar{}}, nil
	}

	items, err := decodeItems(resp.Items, calendarFromListEntry)
	if err != nil {
		return Page[Calendar]{}, err
	}

	c.listed(ctx, "calendarList.list", "", len(items), resp.NextPageToken)
	return Page[Calendar]{Items: items, NextPageToken: resp.NextPageToken}, nil
}

// ListAll returns the entries of every page. opts.PageToken is ignored.
func (c *CalendarsClient) ListAll(ctx context.Context, opts ListCalendarsOptions) ([]Calendar, error) {
	return collect(ctx, func(ctx context.Context, token string) (Page[Calendar], error) {
		opts.PageToken = token
		return c.List(ctx, opts)
	})
}

// Get returns the calendar list entry of a calendar.
func (c *CalendarsClient) Get(ctx context.Context, calendarID string) (*Calendar, error) {
	calendarID = calendarOrPrimary(calendarID)

	var raw *calendar.CalendarListEntry
	err := c.call(ctx, "calendarList.get", retryable, func(ctx context.Context) error {
		var err error
		raw, err = c.api.CalendarList.Get(calendarID).Context(ctx).Do()
		return err
	}, instrumentation.CalendarID(calendarID))
	if err != nil {
		return nil, err
	}

	cal, err := calendarFromListEntry(raw)
	if err != nil {
		return nil, err
	}
	return &cal, nil
}

// Create creates a secondary calendar owned by the user.
func (c *CalendarsClient) Create(ctx context.Context, input CalendarInput) (*Calendar, error) {
	if input.Summary == "" {
		return nil, invalid("Calendar", "summary", "is required")
	}

	var raw *calendar.Calendar
	err := c.call(ctx, "calendars.insert", once, func(ctx context.Context) error {
		var err error
		raw, err = c.api.Calendars.Insert(input.toAPI()).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	return decodeCalendar(raw)
}

// Patch updates the metadata fields set in input.
func (c *CalendarsClient) Patch(ctx context.Context, calendarID string, input CalendarInput) (*Calendar, error) {
	if input.empty() {
		return nil, invalid("Calendar", "", "no fields to update")
	}
	calendarID = calendarOrPrimary(calendarID)

	var raw *calendar.Calendar
	err := c.call(ctx, "calendars.patch", retryable, func(ctx context.Context) error {
		var err error
		raw, err = c.api.Calendars.Patch(calendarID, input.toAPI()).Context(ctx).Do()
		return err
	}, instrumentation.CalendarID(calendarID))
	if err != nil {
		return nil, err
	}
	return decodeCalendar(raw)
}

// Delete deletes a secondary calendar. The primary calendar cannot be
// deleted; use Clear.
func (c *CalendarsClient) Delete(ctx context.Context, calendarID string) error {
	if calendarID == "" {
		return invalid("Calendar", "id", "is required")
	}

	return c.call(ctx, "calendars.delete", retryable, func(ctx context.Context) error {
		return c.api.Calendars.Delete(calendarID).Context(ctx).Do()
	}, instrumentation.CalendarID(calendarID))
}

// Clear deletes every event of a calendar.
func (c *CalendarsClient) Clear(ctx context.Context, calendarID string) error {
	calendarID = calendarOrPrimary(calendarID)

	return c.call(ctx, "calendars.clear", retryable, func(ctx context.Context) error {
		return c.api.Calendars.Clear(calendarID).Context(ctx).Do()
	}, instrumentation.CalendarID(calendarID))
}

func decodeCalendar(raw *calendar.Calendar) (*Calendar, error) {
	cal, err := calendarFromResource(raw)
	if err != nil {
		return nil, err
	}
	return &cal, nil
}
