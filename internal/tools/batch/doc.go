// Package batch runs one calendar operation over many IDs for the MCP tools.
//
// It provides:
//   - Parsing ID arguments given as a string, a JSON array string or an array
//   - Running the operation per ID and collecting partial failures
//   - A JSON summary of the outcome
package batch
