package calendar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/gcal/internal/google"
	"github.com/teemow/gcal/internal/retry"
)

// recorded is a request as seen by the fake calendar service.
type recorded struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   map[string]any
}

// fakeService records requests and answers them with handler.
type fakeService struct {
	mu       sync.Mutex
	requests []recorded
	handler  func(w http.ResponseWriter, r *http.Request, req recorded)
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := recorded{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query(), Header: r.Header.Clone()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &req.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	f.handler(w, r, req)
}

func (f *fakeService) calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func newTestClient(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, req recorded)) (*Client, *fakeService) {
	return newTestClientWithOptions(t, Options{}, handler)
}

func newTestClientWithOptions(t *testing.T, opts Options, handler func(w http.ResponseWriter, r *http.Request, req recorded)) (*Client, *fakeService) {
	t.Helper()

	fake := &fakeService{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	opts.HTTPClient = srv.Client()
	opts.Endpoint = srv.URL + "/"
	client, err := NewClient(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client, fake
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, reason, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    status,
			"message": message,
			"errors": []map[string]any{
				{"domain": "global", "reason": reason, "message": message},
			},
		},
	})
}

func fastRetry() retry.Policy {
	return retry.New(retry.Config{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
}

func TestNewClient_RequiresHTTPClient(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	require.Error(t, err)
}

func TestNewClient_ComposesResourceClients(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {})

	assert.NotNil(t, client.Events)
	assert.NotNil(t, client.Calendars)
	assert.NotNil(t, client.FreeBusy)
	assert.NotNil(t, client.Service())
}

func TestNewClientFromStore_MissingTokenFile(t *testing.T) {
	store, err := google.NewCredentialStore(google.Config{TokenPath: t.TempDir() + "/token.json"})
	require.NoError(t, err)

	_, err = NewClientFromStore(context.Background(), store, Options{})
	require.ErrorIs(t, err, google.ErrCredentialsNotFound)
}

func TestNewClientFromStore_AuthorizesRequests(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"id": "primary", "summary": "Me"})
	}))
	defer srv.Close()

	tokenPath := t.TempDir() + "/token.json"
	require.NoError(t, google.WriteTokenRecord(tokenPath, &google.TokenRecord{
		Token:  "access-1",
		Expiry: time.Now().Add(time.Hour),
	}))

	store, err := google.NewCredentialStore(google.Config{TokenPath: tokenPath, HTTPClient: srv.Client()})
	require.NoError(t, err)

	client, err := NewClientFromStore(context.Background(), store, Options{Endpoint: srv.URL + "/"})
	require.NoError(t, err)
	defer client.Close()

	cal, err := client.Calendars.Get(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "primary", cal.ID)
	assert.Equal(t, "Bearer access-1", gotAuth)
}

func TestResource_RetriesIdempotentCalls(t *testing.T) {
	var attempts atomic.Int32
	client, fake := newTestClientWithOptions(t, Options{Retry: fastRetry()}, func(w http.ResponseWriter, r *http.Request, req recorded) {
		if attempts.Add(1) == 1 {
			writeAPIError(w, http.StatusServiceUnavailable, "backendError", "Backend Error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": []any{}})
	})

	page, err := client.Events.List(context.Background(), "", ListEventsOptions{})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Len(t, fake.calls(), 2)
}

func TestResource_DoesNotRetryInsert(t *testing.T) {
	client, fake := newTestClientWithOptions(t, Options{Retry: fastRetry()}, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeAPIError(w, http.StatusServiceUnavailable, "backendError", "Backend Error")
	})

	start, err := At(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	end, err := At(time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	_, err = client.Events.Create(context.Background(), "", EventInput{Summary: "Standup", Start: start, End: end})
	require.ErrorIs(t, err, ErrRemoteRequest)
	assert.Len(t, fake.calls(), 1)
}

func TestResource_WithoutPolicyCallsOnce(t *testing.T) {
	client, fake := newTestClient(t, func(w http.ResponseWriter, r *http.Request, req recorded) {
		writeAPIError(w, http.StatusServiceUnavailable, "backendError", "Backend Error")
	})

	_, err := client.Events.List(context.Background(), "", ListEventsOptions{})
	require.Error(t, err)
	assert.Len(t, fake.calls(), 1)
}
