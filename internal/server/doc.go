// Package server provides the state shared by the gcal MCP server: the
// lazily created calendar client, the logger and the metrics recorder, plus
// an optional HTTP endpoint exposing Prometheus metrics.
//
// ServerContext creates the calendar client on the first tool call, so the
// server starts even while the token file is missing and reports the
// credential problem to the calling tool instead.
package server
