package calendar

import (
	"context"
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
)

// Sort orders accepted by ListEventsOptions.OrderBy.
const (
	OrderByStartTime = "startTime"
	OrderByUpdated   = "updated"
)

// ListEventsOptions filters an event listing. Zero bounds are unbounded.
type ListEventsOptions struct {
	TimeMin time.Time
	TimeMax time.Time
	// MaxResults is the page size; ListAll uses it per page.
	MaxResults int64
	// CollapseRecurring lists recurring events as their master record
	// instead of expanding them into single instances.
	CollapseRecurring bool
	// OrderBy defaults to OrderByStartTime while recurring events are
	// expanded. A set value is always sent.
	OrderBy     string
	Query       string
	PageToken   string
	ShowDeleted bool
	TimeZone    string
	UpdatedMin  time.Time
}

// InstancesOptions filters the instances of a recurring event.
type InstancesOptions struct {
	TimeMin     time.Time
	TimeMax     time.Time
	MaxResults  int64
	PageToken   string
	ShowDeleted bool
	TimeZone    string
}

// EventsClient operates on the events of a calendar. An empty calendar id
// addresses the primary calendar.
type EventsClient struct {
	*resource
}

// List returns one page of events.
func (c *EventsClient) List(ctx context.Context, calendarID string, opts ListEventsOptions) (Page[Event], error) {
	calendarID = calendarOrPrimary(calendarID)

	var resp *calendar.Events
	err := c.call(ctx, "events.list", retryable, func(ctx context.Context) error {
		call := c.api.Events.List(calendarID).
			SingleEvents(!opts.CollapseRecurring).
			MaxResults(c.size(opts.MaxResults, maxEventsPageSize)).
			Context(ctx)
		if orderBy := opts.orderBy(); orderBy != "" {
			call = call.OrderBy(orderBy)
		}
		if v := formatOptionalTime(opts.TimeMin); v != "" {
			call = call.TimeMin(v)
		}
		if v := formatOptionalTime(opts.TimeMax); v != "" {
			call = call.TimeMax(v)
		}
		if v := formatOptionalTime(opts.UpdatedMin); v != "" {
			call = call.UpdatedMin(v)
		}
		if opts.Query != "" {
			call = call.Q(opts.Query)
		}
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}
		if opts.ShowDeleted {
			call = call.ShowDeleted(true)
		}
		if opts.TimeZone != "" {
			call = call.TimeZone(opts.TimeZone)
		}

		var err error
		resp, err = call.Do()
		return err
	}, instrumentation.CalendarID(calendarID))
	if err != nil {
		return Page[Event]{}, err
	}

	return c.eventsPage(ctx, "events.list", calendarID, resp)
}

// ListAll returns the events of every page, in the order received.
// opts.PageToken is ignored.
func (c *EventsClient) ListAll(ctx context.Context, calendarID string, opts ListEventsOptions) ([]Event, error) {
	return collect(ctx, func(ctx context.Context, token string) (Page[Event], error) {
		opts.PageToken = token
		return c.List(ctx, calendarID, opts)
	})
}

func (o ListEventsOptions) orderBy() string {
	if o.OrderBy != "" {
		return o.OrderBy
	}
	if !o.CollapseRecurring {
		return OrderByStartTime
	}
	return ""
}

// Get returns a single event.
func (c *EventsClient) Get(ctx context.Context, calendarID, eventID string) (*Event, error) {
	calendarID = calendarOrPrimary(calendarID)

	var raw *calendar.Event
	err := c.call(ctx, "events.get", retryable, func(ctx context.Context) error {
		var err error
		raw, err = c.api.Events.Get(calendarID, eventID).Context(ctx).Do()
		return err
	}, instrumentation.CalendarID(calendarID), instrumentation.EventID(eventID))
	if err != nil {
		return nil, err
	}
	return decodeEvent(calendarID, raw)
}

// Create inserts a new event.
func (c *EventsClient) Create(ctx context.Context, calendarID string, input EventInput) (*Event, error) {
	body, err := input.Build()
	if err != nil {
		return nil, err
	}
	calendarID = calendarOrPrimary(calendarID)

	var raw *calendar.Event
	err = c.call(ctx, "events.insert", once, func(ctx context.Context) error {
		call := c.api.Events.Insert(calendarID, body).Context(ctx)
		if body.ConferenceData != nil {
			call = call.ConferenceDataVersion(1)
		}
		if input.SendUpdates != "" {
			call = call.SendUpdates(input.SendUpdates)
		}
		var err error
		raw, err = call.Do()
		return err
	}, instrumentation.CalendarID(calendarID))
	if err != nil {
		return nil, err
	}
	for _, a := range body.Attendees {
		c.logger.Debug("attendee invited", logging.Calendar(calendarID), logging.UserHash(a.Email))
	}
	return decodeEvent(calendarID, raw)
}

// Update replaces an event with the body built from input.
func (c *EventsClient) Update(ctx context.Context, calendarID, eventID string, input EventInput) (*Event, error) {
	body, err := input.Build()
	if err != nil {
		return nil, err
	}
	return c.replace(ctx, calendarOrPrimary(calendarID), eventID, body, input.SendUpdates, "")
}

// UpdateMerged reads the event, overlays the fields set in input and
// replaces the event with the result, so fields input leaves unset are kept.
// The replacement is conditional on the etag that was read: a concurrent
// change fails with a 412 RemoteError.
func (c *EventsClient) UpdateMerged(ctx context.Context, calendarID, eventID string, input EventInput) (*Event, error) {
	calendarID = calendarOrPrimary(calendarID)

	current, err := c.Get(ctx, calendarID, eventID)
	if err != nil {
		return nil, err
	}
	body, err := input.Merge(*current)
	if err != nil {
		return nil, err
	}
	return c.replace(ctx, calendarID, eventID, body, input.SendUpdates, current.ETag)
}

func (c *EventsClient) replace(ctx context.Context, calendarID, eventID string, body *calendar.Event, sendUpdates, etag string) (*Event, error) {
	var raw *calendar.Event
	err := c.call(ctx, "events.update", retryable, func(ctx context.Context) error {
		call := c.api.Events.Update(calendarID, eventID, body).Context(ctx)
		if body.ConferenceData != nil {
			call = call.ConferenceDataVersion(1)
		}
		if sendUpdates != "" {
			call = call.SendUpdates(sendUpdates)
		}
		if etag != "" {
			call.Header().Set("If-Match", etag)
		}
		var err error
		raw, err = call.Do()
		return err
	}, instrumentation.CalendarID(calendarID), instrumentation.EventID(eventID))
	if err != nil {
		return nil, err
	}
	return decodeEvent(calendarID, raw)
}

// Patch changes only the fields present in the body built from input.
func (c *EventsClient) Patch(ctx context.Context, calendarID, eventID string, input EventInput) (*Event, error) {
	body, err := input.Build()
	if err != nil {
		return nil, err
	}
	calendarID = calendarOrPrimary(calendarID)

	var raw *calendar.Event
	err = c.call(ctx, "events.patch", retryable, func(ctx context.Context) error {
		call := c.api.Events.Patch(calendarID, eventID, body).Context(ctx)
		if body.ConferenceData != nil {
			call = call.ConferenceDataVersion(1)
		}
		if input.SendUpdates != "" {
			call = call.SendUpdates(input.SendUpdates)
		}
		var err error
		raw, err = call.Do()
		return err
	}, instrumentation.CalendarID(calendarID), instrumentation.EventID(eventID))
	if err != nil {
		return nil, err
	}
	return decodeEvent(calendarID, raw)
}

// Delete removes an event. sendUpdates may be empty.
func (c *EventsClient) Delete(ctx context.Context, calendarID, eventID, sendUpdates string) error {
	calendarID = calendarOrPrimary(calendarID)

	return c.call(ctx, "events.delete", retryable, func(ctx context.Context) error {
		call := c.api.Events.Delete(calendarID, eventID).Context(ctx)
		if sendUpdates != "" {
			call = call.SendUpdates(sendUpdates)
		}
		return call.Do()
	}, instrumentation.CalendarID(calendarID), instrumentation.EventID(eventID))
}

// Move transfers an event to another calendar and returns it as stored there.
func (c *EventsClient) Move(ctx context.Context, calendarID, eventID, destinationID string) (*Event, error) {
	if destinationID == "" {
		return nil, invalid("Move", "destination", "is required")
	}
	calendarID = calendarOrPrimary(calendarID)

	var raw *calendar.Event
	err := c.call(ctx, "events.move", once, func(ctx context.Context) error {
		var err error
		raw, err = c.api.Events.Move(calendarID, eventID, destinationID).Context(ctx).Do()
		return err
	}, instrumentation.CalendarID(calendarID), instrumentation.EventID(eventID))
	if err != nil {
		return nil, err
	}
	return decodeEvent(destinationID, raw)
}

// QuickAdd creates an event from a free text description such as
// "Lunch with Ana tomorrow 12pm".
func (c *EventsClient) QuickAdd(ctx context.Context, calendarID, text string) (*Event, error) {
	if text == "" {
		return nil, invalid("QuickAdd", "text", "is required")
	}
	calendarID = calendarOrPrimary(calendarID)

	var raw *calendar.Event
	err := c.call(ctx, "events.quickAdd", once, func(ctx context.Context) error {
		var err error
		raw, err = c.api.Events.QuickAdd(calendarID, text).Context(ctx).Do()
		return err
	}, instrumentation.CalendarID(calendarID))
	if err != nil {
		return nil, err
	}
	return decodeEvent(calendarID, raw)
}

// Instances returns one page of the occurrences of a recurring event.
func (c *EventsClient) Instances(ctx context.Context, calendarID, eventID string, opts InstancesOptions) (Page[Event], error) {
	calendarID = calendarOrPrimary(calendarID)

	var resp *calendar.Events
	err := c.call(ctx, "events.instances", retryable, func(ctx context.Context) error {
		call := c.api.Events.Instances(calendarID, eventID).
			MaxResults(c.size(opts.MaxResults, maxEventsPageSize)).
			Context(ctx)
		if v := formatOptionalTime(opts.TimeMin); v != "" {
			call = call.TimeMin(v)
		}
		if v := formatOptionalTime(opts.TimeMax); v != "" {
			call = call.TimeMax(v)
		}
		if opts.PageToken != "" {
			call = call.PageToken(opts.PageToken)
		}
		if opts.ShowDeleted {
			call = call.ShowDeleted(true)
		}
		if opts.TimeZone != "" {
			call = call.TimeZone(opts.TimeZone)
		}

		var err error
		resp, err = call.Do()
		return err
	}, instrumentation.CalendarID(calendarID), instrumentation.EventID(eventID))
	if err != nil {
		return Page[Event]{}, err
	}

	return c.eventsPage(ctx, "events.instances", calendarID, resp)
}

// InstancesAll returns the occurrences of every page. opts.PageToken is
// ignored.
func (c *EventsClient) InstancesAll(ctx context.Context, calendarID, eventID string, opts InstancesOptions) ([]Event, error) {
	return collect(ctx, func(ctx context.Context, token string) (Page[Event], error) {
		opts.PageToken = token
		return c.Instances(ctx, calendarID, eventID, opts)
	})
}

func (c *EventsClient) eventsPage(ctx context.Context, op, calendarID string, resp *calendar.Events) (Page[Event], error) {
	if resp == nil {
		return Page[Event]{Items: []Event{}}, nil
	}

	items, err := decodeItems(resp.Items, func(e *calendar.Event) (Event, error) {
		return eventFromAPI(calendarID, e)
	})
	if err != nil {
		return Page[Event]{}, err
	}

	c.listed(ctx, op, calendarID, len(items), resp.NextPageToken)
	return Page[Event]{Items: items, NextPageToken: resp.NextPageToken}, nil
}

func decodeEvent(calendarID string, raw *calendar.Event) (*Event, error) {
	ev, err := eventFromAPI(calendarID, raw)
	if err != nil {
		return nil, err
	}
	return &ev, nil
}
