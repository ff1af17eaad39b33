// Package calendar_tools provides MCP (Model Context Protocol) tools for Google Calendar operations.
//
// The tools expose the event, calendar list and availability operations of
// the calendar client to AI assistants. Tools that change calendars or events
// are only registered when the server is not read-only.
//
// Argument problems and failures reported by the calendar service are
// returned as tool error results so the assistant can correct its call.
package calendar_tools
