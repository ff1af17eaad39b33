package server

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
)

// ErrShutdown is returned for client requests after Shutdown.
var ErrShutdown = errors.New("server is shutting down")

// ClientFactory builds the calendar client. It runs on first use, so a
// server can start before credentials have been provisioned.
type ClientFactory func(ctx context.Context) (*calendar.Client, error)

// Options configures a ServerContext.
type Options struct {
	NewClient ClientFactory
	Logger    *slog.Logger
	Metrics   *instrumentation.Metrics
	// ReadOnly hides the tools that modify calendars or events.
	ReadOnly bool
}

// ServerContext holds the state shared by the MCP tool handlers.
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	newClient ClientFactory
	logger    *slog.Logger
	metrics   *instrumentation.Metrics
	readOnly  bool

	mu       sync.Mutex
	client   *calendar.Client
	shutdown bool
}

// NewServerContext creates a new server context
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.NewClient == nil {
		return nil, errors.New("a calendar client factory is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		newClient: opts.NewClient,
		logger:    logging.OrDefault(opts.Logger),
		metrics:   opts.Metrics,
		readOnly:  opts.ReadOnly,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// CalendarClient returns the calendar client, creating it on the first call.
// A failed creation is not cached; the next call tries again.
func (sc *ServerContext) CalendarClient(ctx context.Context) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if sc.client != nil {
		return sc.client, nil
	}

	client, err := sc.newClient(ctx)
	if err != nil {
		sc.logger.Warn("failed to create calendar client", logging.Err(err))
		return nil, err
	}
	sc.client = client
	return client, nil
}

// SetCalendarClient replaces the cached calendar client.
func (sc *ServerContext) SetCalendarClient(client *calendar.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.client = client
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// ReadOnly reports whether mutating tools are disabled.
func (sc *ServerContext) ReadOnly() bool {
	return sc.readOnly
}

// IsShutdown returns true if the server is shutting down
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.shutdown
}

// Shutdown cancels the server context and releases the calendar client.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()

	if sc.client != nil {
		sc.client.Close()
		sc.client = nil
	}
	return nil
}
