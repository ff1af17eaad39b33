// Package cmd implements the command-line interface for gcal.
//
// This package provides the following commands:
//   - events: list, get, create, update, patch, delete, move, instances and quick-add
//   - calendars: list, get, create, patch, delete and clear
//   - freebusy: query busy periods and common free slots
//   - serve: Start the MCP server to provide calendar tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// Persistent flags override the config file and the GCAL_* environment.
package cmd
