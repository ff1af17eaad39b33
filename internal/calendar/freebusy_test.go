package calendar

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFreeBusyClient_Query_PartialFailureIsInBand(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{
			"kind":    "calendar#freeBusy",
			"timeMin": "2024-05-01T00:00:00Z",
			"timeMax": "2024-05-02T00:00:00Z",
			"calendars": map[string]any{
				"cal1": map[string]any{
					"busy": []any{
						map[string]any{"start": "2024-05-01T09:00:00Z", "end": "2024-05-01T10:00:00Z"},
					},
				},
				"cal2": map[string]any{
					"errors": []any{map[string]any{"domain": "global", "reason": "notFound"}},
				},
			},
		})
	})

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	resp, err := client.FreeBusy.Query(context.Background(), FreeBusyQuery{
		CalendarIDs: []string{"cal1", "cal2", "cal1"},
		TimeMin:     from,
		TimeMax:     from.Add(24 * time.Hour),
		TimeZone:    "UTC",
	})
	require.NoError(t, err)

	cal1 := resp.Calendars["cal1"]
	assert.False(t, cal1.HasErrors())
	require.Len(t, cal1.Busy, 1)
	assert.Equal(t, time.Hour, cal1.Busy[0].Duration())

	cal2 := resp.Calendars["cal2"]
	assert.True(t, cal2.HasErrors())
	assert.Equal(t, []FreeBusyError{{Domain: "global", Reason: "notFound"}}, cal2.Errors)
	assert.NotNil(t, cal2.Busy)
	assert.Empty(t, cal2.Busy)

	assert.Equal(t, from, resp.TimeMin)

	req := fake.calls()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/freeBusy", req.Path)
	assert.Equal(t, "2024-05-01T00:00:00Z", req.Body["timeMin"])
	assert.Equal(t, "2024-05-02T00:00:00Z", req.Body["timeMax"])
	assert.Equal(t, "UTC", req.Body["timeZone"])
	assert.Equal(t, []any{
		map[string]any{"id": "cal1"},
		map[string]any{"id": "cal2"},
	}, req.Body["items"])
}

func TestFreeBusyClient_Query_Groups(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{
			"calendars": map[string]any{},
			"groups": map[string]any{
				"team@example.com": map[string]any{"calendars": []any{"ana@example.com", "bo@example.com"}},
			},
		})
	})

	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	resp, err := client.FreeBusy.Query(context.Background(), FreeBusyQuery{
		CalendarIDs:       []string{"team@example.com"},
		TimeMin:           from,
		TimeMax:           from.Add(time.Hour),
		GroupExpansionMax: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com", "bo@example.com"}, resp.Groups["team@example.com"].Calendars)
}

func TestFreeBusyClient_Query_RejectsBadInput(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		query   FreeBusyQuery
		wantErr error
	}{
		{
			name:    "no calendars",
			query:   FreeBusyQuery{TimeMin: from, TimeMax: from.Add(time.Hour)},
			wantErr: ErrValidation,
		},
		{
			name:    "blank calendar ids",
			query:   FreeBusyQuery{CalendarIDs: []string{""}, TimeMin: from, TimeMax: from.Add(time.Hour)},
			wantErr: ErrValidation,
		},
		{
			name:    "zero lower bound",
			query:   FreeBusyQuery{CalendarIDs: []string{"cal1"}, TimeMax: from},
			wantErr: ErrInvalidTimeValue,
		},
		{
			name:    "zero upper bound",
			query:   FreeBusyQuery{CalendarIDs: []string{"cal1"}, TimeMin: from},
			wantErr: ErrInvalidTimeValue,
		},
		{
			name:    "inverted window",
			query:   FreeBusyQuery{CalendarIDs: []string{"cal1"}, TimeMin: from, TimeMax: from.Add(-time.Hour)},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {})

			_, err := client.FreeBusy.Query(context.Background(), tt.query)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, fake.calls())
		})
	}
}

func TestFreeSlots(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	resp := &FreeBusyResponse{Calendars: map[string]CalendarFreeBusy{
		"ana": {Busy: []BusyPeriod{{Start: at(9, 0), End: at(10, 0)}, {Start: at(13, 0), End: at(14, 0)}}},
		"bo":  {Busy: []BusyPeriod{{Start: at(9, 30), End: at(11, 0)}, {Start: at(11, 15), End: at(12, 0)}}},
		// Errors make the busy list unreliable, so it is ignored.
		"cy": {Busy: []BusyPeriod{{Start: at(15, 0), End: at(16, 0)}}, Errors: []FreeBusyError{{Reason: "notFound"}}},
	}}

	slots := FreeSlots(resp, at(8, 0), at(17, 0), 30*time.Minute)
	assert.Equal(t, []BusyPeriod{
		{Start: at(8, 0), End: at(9, 0)},
		{Start: at(12, 0), End: at(13, 0)},
		{Start: at(14, 0), End: at(17, 0)},
	}, slots)

	assert.Empty(t, FreeSlots(resp, at(9, 0), at(11, 0), time.Minute))
}
