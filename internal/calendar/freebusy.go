package calendar

import (
	"context"
	"slices"
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// FreeBusyQuery asks for the busy periods of calendars within [TimeMin, TimeMax).
type FreeBusyQuery struct {
	CalendarIDs []string
	TimeMin     time.Time
	TimeMax     time.Time
	TimeZone    string

	// Expansion limits for group ids; zero leaves the service default.
	GroupExpansionMax    int64
	CalendarExpansionMax int64
}

// FreeBusyClient queries availability.
type FreeBusyClient struct {
	*resource
}

// Query returns the busy periods of every queried calendar. A calendar the
// service could not evaluate is reported through its Errors, not as a
// returned error.
func (c *FreeBusyClient) Query(ctx context.Context, q FreeBusyQuery) (*FreeBusyResponse, error) {
	req, err := q.request()
	if err != nil {
		return nil, err
	}

	var raw *calendar.FreeBusyResponse
	err = c.call(ctx, "freebusy.query", retryable, func(ctx context.Context) error {
		var err error
		raw, err = c.api.Freebusy.Query(req).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return &FreeBusyResponse{Calendars: map[string]CalendarFreeBusy{}}, nil
	}
	return freeBusyFromAPI(raw)
}

func (q FreeBusyQuery) request() (*calendar.FreeBusyRequest, error) {
	var ids []string
	for _, id := range q.CalendarIDs {
		if id != "" && !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, invalid("FreeBusyQuery", "calendarIds", "at least one calendar is required")
	}

	timeMin, err := formatTime("timeMin", q.TimeMin)
	if err != nil {
		return nil, err
	}
	timeMax, err := formatTime("timeMax", q.TimeMax)
	if err != nil {
		return nil, err
	}
	if !q.TimeMax.After(q.TimeMin) {
		return nil, invalid("FreeBusyQuery", "timeMax", "must be after timeMin")
	}

	req := &calendar.FreeBusyRequest{
		TimeMin:              timeMin,
		TimeMax:              timeMax,
		TimeZone:             q.TimeZone,
		GroupExpansionMax:    q.GroupExpansionMax,
		CalendarExpansionMax: q.CalendarExpansionMax,
	}
	for _, id := range ids {
		req.Items = append(req.Items, &calendar.FreeBusyRequestItem{Id: id})
	}
	return req, nil
}

// FreeSlots returns the gaps of at least minDuration within [from, to) during
// which none of the calendars in resp is busy. Calendars with errors are
// skipped since their busy list is not authoritative.
func FreeSlots(resp *FreeBusyResponse, from, to time.Time, minDuration time.Duration) []BusyPeriod {
	var busy []BusyPeriod
	for _, cal := range resp.Calendars {
		if !cal.HasErrors() {
			busy = append(busy, cal.Busy...)
		}
	}
	slices.SortFunc(busy, func(a, b BusyPeriod) int {
		return a.Start.Compare(b.Start)
	})

	free := []BusyPeriod{}
	cursor := from
	for _, p := range busy {
		if p.Start.After(cursor) {
			end := p.Start
			if end.After(to) {
				end = to
			}
			if end.Sub(cursor) >= minDuration && end.After(cursor) {
				free = append(free, BusyPeriod{Start: cursor, End: end})
			}
		}
		if p.End.After(cursor) {
			cursor = p.End
		}
		if !cursor.Before(to) {
			return free
		}
	}
	if to.Sub(cursor) >= minDuration && to.After(cursor) {
		free = append(free, BusyPeriod{Start: cursor, End: to})
	}
	return free
}
