package calendar

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"google.golang.org/api/googleapi"
)

var (
	// ErrInvalidTimeValue is returned for a timestamp that cannot be sent:
	// a zero time.Time where one is required, or text without a UTC offset.
	ErrInvalidTimeValue = errors.New("invalid time value")

	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrRemoteRequest matches every *RemoteError.
	ErrRemoteRequest = errors.New("remote request failed")
)

// ValidationError reports a record that violates its required shape, either
// in a response from the service or in caller input.
type ValidationError struct {
	Record string
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s", e.Record)
	if e.Field != "" {
		msg += "." + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(record, field, reason string) error {
	return &ValidationError{Record: record, Field: field, Reason: reason}
}

// RemoteError is a non-success response from the calendar service.
type RemoteError struct {
	// Op is the failed operation, e.g. "events.insert".
	Op         string
	StatusCode int
	Message    string
	// Reasons are the machine-readable reasons of the error details,
	// e.g. "notFound" or "rateLimitExceeded".
	Reasons []string
	Err     error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: remote request failed (HTTP %d): %s", e.Op, e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRemoteRequest.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteRequest
}

// HTTPStatus returns the response status code.
func (e *RemoteError) HTTPStatus() int { return e.StatusCode }

// HasReason reports whether any error detail carries reason.
func (e *RemoteError) HasReason(reason string) bool {
	return slices.Contains(e.Reasons, reason)
}

// NotFound reports whether the resource does not exist or was deleted.
func (e *RemoteError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusGone
}

// IsNotFound reports whether err is a RemoteError for a missing resource.
func IsNotFound(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.NotFound()
}

// remoteError converts a service error into a *RemoteError. Transport
// failures, including token refresh failures, are wrapped unchanged.
func remoteError(op string, err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		remote := &RemoteError{
			Op:         op,
			StatusCode: apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
		for _, item := range apiErr.Errors {
			if item.Reason != "" {
				remote.Reasons = append(remote.Reasons, item.Reason)
			}
		}
		if remote.Message == "" {
			remote.Message = http.StatusText(apiErr.Code)
		}
		return remote
	}

	return fmt.Errorf("%s: %w", op, err)
}
