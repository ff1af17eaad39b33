// Package logging provides structured logging utilities for gcal.
//
// Components accept a *slog.Logger and fall back to slog.Default() when
// given nil. New builds the process logger from the configured level and
// format; the attribute helpers keep key names consistent across packages.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "events.list")
//	logger.Debug("fetched page",
//	    logging.Calendar("primary"),
//	    logging.Status(logging.StatusSuccess))
//
// # Security Considerations
//
//   - Access and refresh tokens are never logged, only SanitizeToken output
//   - Attendee addresses are logged as UserHash values
package logging
