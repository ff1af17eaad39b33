// Package retry provides the retry policies applied to remote calendar calls.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
)

// Defaults used when a Config field is left zero.
const (
	DefaultMaxAttempts  = 3
	DefaultInitialDelay = 500 * time.Millisecond
	DefaultMaxDelay     = 10 * time.Second
)

// Policy runs op and decides whether a failure is retried.
type Policy interface {
	Do(ctx context.Context, name string, op func() error) error
}

// Never runs op exactly once.
type Never struct{}

// Do calls op once.
func (Never) Do(_ context.Context, _ string, op func() error) error {
	return op()
}

// Config configures a Retryer.
type Config struct {
	// MaxAttempts counts the first call. 1 disables retries.
	MaxAttempts  uint
	InitialDelay time.Duration
	MaxDelay     time.Duration

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Retryer retries transient failures with exponential backoff.
type Retryer struct {
	maxAttempts  uint
	initialDelay time.Duration
	maxDelay     time.Duration
	logger       *slog.Logger
	metrics      *instrumentation.Metrics
}

// New returns a Retryer, filling zero fields of cfg with the defaults.
func New(cfg Config) *Retryer {
	r := &Retryer{
		maxAttempts:  cfg.MaxAttempts,
		initialDelay: cfg.InitialDelay,
		maxDelay:     cfg.MaxDelay,
		logger:       logging.OrDefault(cfg.Logger),
		metrics:      cfg.Metrics,
	}
	if r.maxAttempts == 0 {
		r.maxAttempts = DefaultMaxAttempts
	}
	if r.initialDelay <= 0 {
		r.initialDelay = DefaultInitialDelay
	}
	if r.maxDelay <= 0 {
		r.maxDelay = DefaultMaxDelay
	}
	if r.maxDelay < r.initialDelay {
		r.maxDelay = r.initialDelay
	}
	return r
}

// Do calls op until it succeeds, fails with a non-transient error, the
// attempts are used up or ctx is done. The last error is returned unwrapped.
func (r *Retryer) Do(ctx context.Context, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialDelay
	b.MaxInterval = r.maxDelay

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := op()
		if err != nil && !Transient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(r.maxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			r.metrics.RecordRetry(ctx, name)
			r.logger.Debug("retrying remote call",
				logging.Operation(name),
				logging.Err(err),
				slog.Duration("wait", wait))
		}),
	)
	return err
}

// Reasons reported by the service for throttled requests. They arrive with
// a 403 status, so the status code alone does not identify them.
var transientReasons = []string{
	"rateLimitExceeded",
	"userRateLimitExceeded",
	"backendError",
}

type statusCoder interface {
	HTTPStatus() int
}

type reasoner interface {
	HasReason(reason string) bool
}

// Transient reports whether err is worth retrying: throttling, a timeout or
// a server-side failure.
func Transient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var r reasoner
	if errors.As(err, &r) {
		for _, reason := range transientReasons {
			if r.HasReason(reason) {
				return true
			}
		}
	}

	var sc statusCoder
	if !errors.As(err, &sc) {
		return false
	}
	switch sc.HTTPStatus() {
	case http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
