package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/gcal/internal/google"
	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
	"github.com/teemow/gcal/internal/retry"
)

// PrimaryCalendar addresses the authenticated user's primary calendar. An
// empty calendar id means the same.
const PrimaryCalendar = "primary"

// Options configures a Client.
type Options struct {
	// HTTPClient must authorize its requests. NewClientFromStore fills it
	// from the credential store.
	HTTPClient *http.Client

	// Endpoint overrides the service base URL, e.g. for tests.
	Endpoint string

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics

	// Retry applies to idempotent calls only. Nil never retries.
	Retry retry.Policy

	// PageSize is used by list calls that leave MaxResults zero.
	PageSize int64
}

// Client is the entry point to the calendar service. It holds one
// authenticated transport shared by its resource clients.
type Client struct {
	Events    *EventsClient
	Calendars *CalendarsClient
	FreeBusy  *FreeBusyClient

	svc        *calendar.Service
	httpClient *http.Client
}

// NewClient builds a Client on an already authenticated HTTP client.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	if opts.HTTPClient == nil {
		return nil, errors.New("an authenticated HTTP client is required")
	}

	clientOpts := []option.ClientOption{option.WithHTTPClient(opts.HTTPClient)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint))
	}

	svc, err := calendar.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}

	base := &resource{
		api:      svc,
		logger:   logging.WithService(logging.OrDefault(opts.Logger), instrumentation.ServiceCalendar),
		metrics:  opts.Metrics,
		retry:    opts.Retry,
		pageSize: opts.PageSize,
	}
	if base.retry == nil {
		base.retry = retry.Never{}
	}

	return &Client{
		Events:     &EventsClient{base},
		Calendars:  &CalendarsClient{base},
		FreeBusy:   &FreeBusyClient{base},
		svc:        svc,
		httpClient: opts.HTTPClient,
	}, nil
}

// NewClientFromStore acquires credentials from store, refreshing them if
// needed, and builds a Client on them. Any HTTPClient in opts is replaced.
func NewClientFromStore(ctx context.Context, store *google.CredentialStore, opts Options) (*Client, error) {
	httpClient, err := store.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	opts.HTTPClient = httpClient
	return NewClient(ctx, opts)
}

// Service returns the underlying service binding for calls this package
// does not wrap.
func (c *Client) Service() *calendar.Service {
	return c.svc
}

// Close releases idle connections of the transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// resource is the state shared by the resource clients.
type resource struct {
	api      *calendar.Service
	logger   *slog.Logger
	metrics  *instrumentation.Metrics
	retry    retry.Policy
	pageSize int64
}

// callMode says whether a failed call may be repeated.
type callMode int

const (
	once callMode = iota
	retryable
)

// call runs one remote request under a span, converting service errors into
// *RemoteError. Retryable calls go through the retry policy.
func (r *resource) call(ctx context.Context, op string, mode callMode, fn func(ctx context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, op, attrs...)
	defer span.End()

	start := time.Now()
	do := func() error { return remoteError(op, fn(ctx)) }

	var err error
	if mode == retryable {
		err = r.retry.Do(ctx, op, do)
	} else {
		err = do()
	}
	duration := time.Since(start)

	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
		r.logger.Debug("calendar request failed",
			logging.Operation(op),
			logging.Duration(duration),
			logging.Err(err))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	r.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, op, status, duration)

	return err
}

// listed records a fetched page.
func (r *resource) listed(ctx context.Context, op, calendarID string, items int, next string) {
	r.metrics.RecordPageFetched(ctx, op, items)
	r.logger.Debug("fetched page",
		logging.Operation(op),
		logging.Calendar(calendarID),
		slog.Int("items", items),
		slog.Bool("more", next != ""))
}

func (r *resource) size(requested, limit int64) int64 {
	if requested <= 0 {
		requested = r.pageSize
	}
	return pageSize(requested, limit)
}

func calendarOrPrimary(id string) string {
	if id == "" {
		return PrimaryCalendar
	}
	return id
}
