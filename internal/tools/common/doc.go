// Package common provides helpers shared by the MCP tool packages: argument
// extraction from tool requests and the instrumentation wrapper applied to
// every registered handler.
package common
