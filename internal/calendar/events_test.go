package calendar

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
)

func fakeEvents(prefix string, n int) []map[string]any {
	items := make([]map[string]any, 0, n)
	for i := range n {
		items = append(items, map[string]any{
			"id":      fmt.Sprintf("%s-%d", prefix, i),
			"summary": fmt.Sprintf("event %d", i),
			"start":   map[string]any{"dateTime": "2024-05-01T10:00:00Z"},
			"end":     map[string]any{"dateTime": "2024-05-01T11:00:00Z"},
		})
	}
	return items
}

// pagedEvents serves 250, 250 and 10 events behind the cursors p2 and p3.
func pagedEvents(w http.ResponseWriter, r *http.Request, _ recorded) {
	switch r.URL.Query().Get("pageToken") {
	case "":
		writeJSON(w, http.StatusOK, map[string]any{"items": fakeEvents("a", 250), "nextPageToken": "p2"})
	case "p2":
		writeJSON(w, http.StatusOK, map[string]any{"items": fakeEvents("b", 250), "nextPageToken": "p3"})
	case "p3":
		writeJSON(w, http.StatusOK, map[string]any{"items": fakeEvents("c", 10)})
	default:
		writeAPIError(w, http.StatusBadRequest, "invalid", "unknown page token")
	}
}

func TestEventsClient_ListAll_FollowsPageTokens(t *testing.T) {
	client, fake := newTestClient(t, pagedEvents)

	events, err := client.Events.ListAll(context.Background(), "", ListEventsOptions{PageToken: "ignored"})
	require.NoError(t, err)
	require.Len(t, events, 510)

	assert.Equal(t, "a-0", events[0].ID)
	assert.Equal(t, "b-0", events[250].ID)
	assert.Equal(t, "c-9", events[509].ID)
	assert.Equal(t, PrimaryCalendar, events[0].CalendarID)

	calls := fake.calls()
	require.Len(t, calls, 3)
	var tokens []string
	for _, c := range calls {
		tokens = append(tokens, firstValue(c.Query, "pageToken"))
	}
	assert.Equal(t, []string{"", "p2", "p3"}, tokens)
}

func TestEventsClient_List_SinglePage(t *testing.T) {
	client, _ := newTestClient(t, pagedEvents)

	page, err := client.Events.List(context.Background(), "", ListEventsOptions{PageToken: "p2"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 250)
	assert.Equal(t, "p3", page.NextPageToken)
	assert.True(t, page.HasMore())

	page, err = client.Events.List(context.Background(), "", ListEventsOptions{PageToken: "p3"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.False(t, page.HasMore())
}

func TestEventsClient_List_QueryParameters(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	tests := []struct {
		name  string
		opts  ListEventsOptions
		check func(t *testing.T, q map[string][]string)
	}{
		{
			name: "defaults",
			opts: ListEventsOptions{},
			check: func(t *testing.T, q map[string][]string) {
				assert.Equal(t, "250", firstValue(q, "maxResults"))
				assert.Equal(t, "true", firstValue(q, "singleEvents"))
				assert.Equal(t, "startTime", firstValue(q, "orderBy"))
				assert.NotContains(t, q, "timeMin")
				assert.NotContains(t, q, "timeMax")
				assert.NotContains(t, q, "pageToken")
			},
		},
		{
			name: "bounds and filters",
			opts: ListEventsOptions{TimeMin: from, TimeMax: to, Query: "standup", ShowDeleted: true, TimeZone: "Europe/Berlin"},
			check: func(t *testing.T, q map[string][]string) {
				assert.Equal(t, "2024-05-01T00:00:00Z", firstValue(q, "timeMin"))
				assert.Equal(t, "2024-05-08T00:00:00Z", firstValue(q, "timeMax"))
				assert.Equal(t, "standup", firstValue(q, "q"))
				assert.Equal(t, "true", firstValue(q, "showDeleted"))
				assert.Equal(t, "Europe/Berlin", firstValue(q, "timeZone"))
			},
		},
		{
			name: "page size capped",
			opts: ListEventsOptions{MaxResults: 10000},
			check: func(t *testing.T, q map[string][]string) {
				assert.Equal(t, "2500", firstValue(q, "maxResults"))
			},
		},
		{
			name: "collapsed recurring events",
			opts: ListEventsOptions{CollapseRecurring: true},
			check: func(t *testing.T, q map[string][]string) {
				assert.Equal(t, "false", firstValue(q, "singleEvents"))
				assert.NotContains(t, q, "orderBy")
			},
		},
		{
			name: "explicit order is sent as given",
			opts: ListEventsOptions{CollapseRecurring: true, OrderBy: OrderByUpdated},
			check: func(t *testing.T, q map[string][]string) {
				assert.Equal(t, "updated", firstValue(q, "orderBy"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
				writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
			})

			_, err := client.Events.List(context.Background(), "", tt.opts)
			require.NoError(t, err)

			calls := fake.calls()
			require.Len(t, calls, 1)
			assert.Equal(t, http.MethodGet, calls[0].Method)
			assert.Equal(t, "/calendars/primary/events", calls[0].Path)
			tt.check(t, calls[0].Query)
		})
	}
}

func TestEventsClient_List_PageSizeFromOptions(t *testing.T) {
	client, fake := newTestClientWithOptions(t, Options{PageSize: 50}, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{})
	})

	_, err := client.Events.List(context.Background(), "", ListEventsOptions{})
	require.NoError(t, err)
	assert.Equal(t, "50", firstValue(fake.calls()[0].Query, "maxResults"))
}

func TestEventsClient_List_MissingItemsIsEmptyPage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"kind": "calendar#events"})
	})

	page, err := client.Events.List(context.Background(), "", ListEventsOptions{})
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
	assert.False(t, page.HasMore())

	all, err := client.Events.ListAll(context.Background(), "", ListEventsOptions{})
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestEventsClient_List_MalformedRecord(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{
			map[string]any{
				"id":        "ev1",
				"start":     map[string]any{"dateTime": "2024-05-01T10:00:00Z"},
				"attendees": []any{map[string]any{"displayName": "No Address"}},
			},
		}})
	})

	_, err := client.Events.List(context.Background(), "", ListEventsOptions{})
	require.ErrorIs(t, err, ErrValidation)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Attendee", verr.Record)
	assert.Equal(t, "email", verr.Field)
}

func TestEventsClient_Get_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeAPIError(w, http.StatusNotFound, "notFound", "Not Found")
	})

	_, err := client.Events.Get(context.Background(), "", "missing")
	require.ErrorIs(t, err, ErrRemoteRequest)
	assert.True(t, IsNotFound(err))

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "events.get", remote.Op)
	assert.Equal(t, http.StatusNotFound, remote.HTTPStatus())
	assert.Equal(t, "Not Found", remote.Message)
	assert.True(t, remote.HasReason("notFound"))
}

func TestEventsClient_Get(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      "ev1",
			"summary": "Offsite",
			"start":   map[string]any{"date": "2024-06-03"},
			"end":     map[string]any{"date": "2024-06-05"},
			"conferenceData": map[string]any{
				"entryPoints": []any{
					map[string]any{"entryPointType": "phone", "uri": "tel:+1-555"},
					map[string]any{"entryPointType": "video", "uri": "https://meet.google.com/abc"},
				},
			},
		})
	})

	ev, err := client.Events.Get(context.Background(), "team@example.com", "ev1")
	require.NoError(t, err)
	assert.Equal(t, "/calendars/team@example.com/events/ev1", fake.calls()[0].Path)
	assert.Equal(t, "team@example.com", ev.CalendarID)
	assert.True(t, ev.Start.AllDay())
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), ev.Start.Date)
	assert.Equal(t, "https://meet.google.com/abc", ev.MeetLink)
	assert.False(t, ev.IsRecurringInstance())
}

func TestEventsClient_Create_SendsOnlySetFields(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{
			"id":      "new",
			"summary": "Standup",
			"start":   map[string]any{"dateTime": "2024-05-01T10:00:00+02:00"},
			"end":     map[string]any{"dateTime": "2024-05-01T10:15:00+02:00"},
		})
	})

	zone := time.FixedZone("CEST", 2*60*60)
	start, err := At(time.Date(2024, 5, 1, 10, 0, 0, 0, zone))
	require.NoError(t, err)
	end, err := At(time.Date(2024, 5, 1, 10, 15, 0, 0, zone))
	require.NoError(t, err)

	ev, err := client.Events.Create(context.Background(), "", EventInput{
		Summary:     "Standup",
		Start:       start,
		End:         end,
		TimeZone:    "Europe/Berlin",
		Attendees:   ParseAttendees([]string{"ana@example.com", " ", "bo@example.com"}),
		SendUpdates: SendUpdatesAll,
	})
	require.NoError(t, err)
	assert.Equal(t, "new", ev.ID)

	calls := fake.calls()
	require.Len(t, calls, 1)
	req := calls[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/calendars/primary/events", req.Path)
	assert.Equal(t, "all", firstValue(req.Query, "sendUpdates"))
	assert.NotContains(t, req.Query, "conferenceDataVersion")

	assert.Equal(t, "Standup", req.Body["summary"])
	assert.NotContains(t, req.Body, "description")
	assert.NotContains(t, req.Body, "location")
	assert.NotContains(t, req.Body, "recurrence")
	assert.Equal(t, map[string]any{"dateTime": "2024-05-01T10:00:00+02:00", "timeZone": "Europe/Berlin"}, req.Body["start"])
	assert.Equal(t, []any{
		map[string]any{"email": "ana@example.com"},
		map[string]any{"email": "bo@example.com"},
	}, req.Body["attendees"])
}

func TestEventsClient_Create_LogsAnonymizedAttendees(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, _ := newTestClientWithOptions(t, Options{Logger: logger}, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "new"})
	})

	_, err := client.Events.Create(context.Background(), "", EventInput{
		Summary:   "Sync",
		Attendees: []Attendee{{Email: "ana@example.com"}},
	})
	require.NoError(t, err)

	assert.Contains(t, logs.String(), `"msg":"attendee invited"`)
	assert.Contains(t, logs.String(), `"user_hash":"`)
	assert.NotContains(t, logs.String(), "ana@example.com")
}

func TestEventsClient_Create_WithMeet(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "new"})
	})

	_, err := client.Events.Create(context.Background(), "", EventInput{Summary: "Sync", AddMeet: true})
	require.NoError(t, err)

	req := fake.calls()[0]
	assert.Equal(t, "1", firstValue(req.Query, "conferenceDataVersion"))

	conference, ok := req.Body["conferenceData"].(map[string]any)
	require.True(t, ok)
	create, ok := conference["createRequest"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, create["requestId"])
	assert.Equal(t, map[string]any{"type": "hangoutsMeet"}, create["conferenceSolutionKey"])
}

func TestEventsClient_Create_BodyWinsOutright(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "new", "summary": "From body"})
	})

	start, err := At(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	ev, err := client.Events.Create(context.Background(), "", EventInput{
		Summary:  "Ignored",
		Location: "Ignored",
		Start:    start,
		Body:     &calendar.Event{Summary: "From body"},
	})
	require.NoError(t, err)
	assert.Equal(t, "From body", ev.Summary)

	req := fake.calls()[0]
	assert.Equal(t, map[string]any{"summary": "From body"}, req.Body)
}

func TestEventsClient_Create_InvalidTimeFailsBeforeRequest(t *testing.T) {
	tests := []struct {
		name  string
		input EventInput
	}{
		{name: "zero start", input: EventInput{Summary: "x", Start: &EventDateTime{}}},
		{name: "zero end", input: EventInput{Summary: "x", Start: On(2024, 5, 1), End: &EventDateTime{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
				writeJSON(w, http.StatusOK, map[string]any{"id": "new"})
			})

			_, err := client.Events.Create(context.Background(), "", tt.input)
			require.ErrorIs(t, err, ErrInvalidTimeValue)
			assert.Empty(t, fake.calls())
		})
	}
}

func TestEventsClient_Create_AttendeeWithoutEmail(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {})

	_, err := client.Events.Create(context.Background(), "", EventInput{
		Summary:   "x",
		Attendees: []Attendee{{DisplayName: "Nobody"}},
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, fake.calls())
}

func TestEventsClient_UpdateAndPatch(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "ev1", "summary": "Renamed"})
	})

	_, err := client.Events.Update(context.Background(), "", "ev1", EventInput{Summary: "Renamed"})
	require.NoError(t, err)
	_, err = client.Events.Patch(context.Background(), "", "ev1", EventInput{Location: "Room 2", SendUpdates: SendUpdatesNone})
	require.NoError(t, err)

	calls := fake.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPut, calls[0].Method)
	assert.Equal(t, "/calendars/primary/events/ev1", calls[0].Path)
	assert.Equal(t, map[string]any{"summary": "Renamed"}, calls[0].Body)

	assert.Equal(t, http.MethodPatch, calls[1].Method)
	assert.Equal(t, map[string]any{"location": "Room 2"}, calls[1].Body)
	assert.Equal(t, "none", firstValue(calls[1].Query, "sendUpdates"))
}

func TestEventsClient_UpdateMerged_KeepsUnsetFields(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{
				"id":          "ev1",
				"etag":        `"3"`,
				"summary":     "Planning",
				"location":    "Room 1",
				"description": "Quarterly",
				"sequence":    2,
				"htmlLink":    "https://calendar.google.com/event?eid=ev1",
				"start":       map[string]any{"dateTime": "2024-05-01T10:00:00Z"},
				"end":         map[string]any{"dateTime": "2024-05-01T11:00:00Z"},
				"attendees":   []any{map[string]any{"email": "ana@example.com", "responseStatus": "accepted"}},
				"reminders":   map[string]any{"useDefault": false},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": "ev1", "summary": "Renamed"})
	})

	ev, err := client.Events.UpdateMerged(context.Background(), "team@example.com", "ev1", EventInput{
		Summary:     "Renamed",
		SendUpdates: SendUpdatesNone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", ev.Summary)

	calls := fake.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodGet, calls[0].Method)

	put := calls[1]
	assert.Equal(t, http.MethodPut, put.Method)
	assert.Equal(t, "/calendars/team@example.com/events/ev1", put.Path)
	assert.Equal(t, `"3"`, put.Header.Get("If-Match"))
	assert.Equal(t, "none", firstValue(put.Query, "sendUpdates"))

	assert.Equal(t, "Renamed", put.Body["summary"])
	assert.Equal(t, "Room 1", put.Body["location"])
	assert.Equal(t, "Quarterly", put.Body["description"])
	assert.Equal(t, map[string]any{"dateTime": "2024-05-01T10:00:00Z"}, put.Body["start"])
	assert.Equal(t, []any{map[string]any{"email": "ana@example.com", "responseStatus": "accepted"}}, put.Body["attendees"])
	assert.Equal(t, map[string]any{"useDefault": false}, put.Body["reminders"])
	assert.NotContains(t, put.Body, "htmlLink")
	assert.NotContains(t, put.Body, "etag")
}

func TestEventsClient_UpdateMerged_NotFound(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeAPIError(w, http.StatusNotFound, "notFound", "Not Found")
	})

	_, err := client.Events.UpdateMerged(context.Background(), "", "missing", EventInput{Summary: "x"})
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	require.Len(t, fake.calls(), 1)
}

func TestEventsClient_Delete(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, client.Events.Delete(context.Background(), "", "ev1", SendUpdatesExternalOnly))

	req := fake.calls()[0]
	assert.Equal(t, http.MethodDelete, req.Method)
	assert.Equal(t, "/calendars/primary/events/ev1", req.Path)
	assert.Equal(t, "externalOnly", firstValue(req.Query, "sendUpdates"))
}

func TestEventsClient_Delete_Gone(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeAPIError(w, http.StatusGone, "deleted", "Resource has been deleted")
	})

	err := client.Events.Delete(context.Background(), "", "ev1", "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestEventsClient_Move(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "ev1"})
	})

	ev, err := client.Events.Move(context.Background(), "", "ev1", "team@example.com")
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", ev.CalendarID)

	req := fake.calls()[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/calendars/primary/events/ev1/move", req.Path)
	assert.Equal(t, "team@example.com", firstValue(req.Query, "destination"))

	_, err = client.Events.Move(context.Background(), "", "ev1", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestEventsClient_QuickAdd(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeJSON(w, http.StatusOK, map[string]any{"id": "qa", "summary": "Lunch"})
	})

	ev, err := client.Events.QuickAdd(context.Background(), "", "Lunch tomorrow 12pm")
	require.NoError(t, err)
	assert.Equal(t, "Lunch", ev.Summary)

	req := fake.calls()[0]
	assert.Equal(t, "/calendars/primary/events/quickAdd", req.Path)
	assert.Equal(t, "Lunch tomorrow 12pm", firstValue(req.Query, "text"))

	_, err = client.Events.QuickAdd(context.Background(), "", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestEventsClient_InstancesAll(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, http.StatusOK, map[string]any{"items": fakeEvents("i", 2), "nextPageToken": "next"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": fakeEvents("j", 1)})
	})

	instances, err := client.Events.InstancesAll(context.Background(), "", "weekly", InstancesOptions{})
	require.NoError(t, err)
	require.Len(t, instances, 3)
	assert.Equal(t, "j-0", instances[2].ID)

	calls := fake.calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "/calendars/primary/events/weekly/instances", calls[0].Path)
	assert.Equal(t, "next", firstValue(calls[1].Query, "pageToken"))
}

func firstValue(q map[string][]string, key string) string {
	if v := q[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
