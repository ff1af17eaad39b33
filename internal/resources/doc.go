// Package resources provides MCP resources for the calendar account.
// Resources are read-only JSON documents that MCP clients can fetch without
// calling a tool, such as the calendar list and the upcoming events.
package resources
