package cmd

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/gcal/internal/calendar"
	"github.com/teemow/gcal/internal/resources"
	"github.com/teemow/gcal/internal/server"
	"github.com/teemow/gcal/internal/tools/calendar_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var outputFile string

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for the MCP tools and resources of
gcal serve. The tools are registered exactly as the server does, so the
reference always matches the implementation.`,
		Args: cobra.NoArgs,
		// Tool registration needs no configuration or credentials.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			markdown, err := generateDocs(cmd.Context())
			if err != nil {
				return err
			}

			if outputFile == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), markdown)
				return err
			}
			if err := os.WriteFile(outputFile, []byte(markdown), 0o644); err != nil {
				return fmt.Errorf("failed to write output file: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Documentation written to: %s\n", outputFile)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// registeredTools registers the calendar tools on a throwaway server. The
// tools are never called, so the client factory always fails.
func registeredTools(ctx context.Context, readOnly bool) (map[string]mcp.Tool, error) {
	serverContext, err := server.NewServerContext(ctx, server.Options{
		ReadOnly: readOnly,
		NewClient: func(context.Context) (*calendar.Client, error) {
			return nil, errors.New("no calendar client while generating docs")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := newMCPServer()
	if err := calendar_tools.RegisterCalendarTools(mcpSrv, serverContext); err != nil {
		return nil, fmt.Errorf("failed to register Calendar tools: %w", err)
	}

	return toolsOf(mcpSrv), nil
}

func toolsOf(mcpSrv *mcpserver.MCPServer) map[string]mcp.Tool {
	tools := make(map[string]mcp.Tool)
	for name, serverTool := range mcpSrv.ListTools() {
		tools[name] = serverTool.Tool
	}
	return tools
}

func generateDocs(ctx context.Context) (string, error) {
	all, err := registeredTools(ctx, false)
	if err != nil {
		return "", err
	}
	readOnly, err := registeredTools(ctx, true)
	if err != nil {
		return "", err
	}

	writes := make(map[string]bool)
	for name := range all {
		if _, ok := readOnly[name]; !ok {
			writes[name] = true
		}
	}

	return generateToolsMarkdown(slices.Collect(maps.Values(all)), writes), nil
}

// Tool categories in document order.
var toolCategories = []string{"Events", "Calendars", "Scheduling"}

func toolCategory(name string) string {
	switch {
	case strings.HasSuffix(name, "_calendar"), strings.HasSuffix(name, "_calendars"):
		return "Calendars"
	case strings.Contains(name, "freebusy"), strings.Contains(name, "available"):
		return "Scheduling"
	default:
		return "Events"
	}
}

func anchor(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", "-"))
}

func generateToolsMarkdown(tools []mcp.Tool, writes map[string]bool) string {
	var sb strings.Builder

	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document lists the tools and resources available when running `gcal serve`.\n\n")
	sb.WriteString("**Note:** This documentation is generated from the tool definitions with `gcal generate-docs`.\n\n")

	byCategory := make(map[string][]mcp.Tool)
	for _, tool := range tools {
		category := toolCategory(tool.Name)
		byCategory[category] = append(byCategory[category], tool)
	}

	sb.WriteString("## Table of Contents\n\n")
	for _, category := range toolCategories {
		if len(byCategory[category]) > 0 {
			fmt.Fprintf(&sb, "- [%s](#%s)\n", category, anchor(category))
		}
	}
	sb.WriteString("- [Resources](#resources)\n\n")

	sb.WriteString("## Read-only Mode\n\n")
	sb.WriteString("`gcal serve` starts in read-only mode. Tools marked **write** create, change or delete ")
	sb.WriteString("events and calendars and are only registered with `--yolo`.\n\n")

	for _, category := range toolCategories {
		categoryTools := byCategory[category]
		if len(categoryTools) == 0 {
			continue
		}
		slices.SortFunc(categoryTools, func(a, b mcp.Tool) int {
			return strings.Compare(a.Name, b.Name)
		})

		fmt.Fprintf(&sb, "## %s\n\n", category)
		for _, tool := range categoryTools {
			writeToolMarkdown(&sb, tool, writes[tool.Name])
			sb.WriteString("\n")
		}
	}

	sb.WriteString("## Resources\n\n")
	fmt.Fprintf(&sb, "- `%s`: every calendar on the calendar list, as JSON.\n", resources.CalendarsURI)
	fmt.Fprintf(&sb, "- `%s`: events of the primary calendar in the next %s, as JSON.\n",
		resources.UpcomingEventsURI, resources.UpcomingWindow)

	return sb.String()
}

func writeToolMarkdown(sb *strings.Builder, tool mcp.Tool, write bool) {
	fmt.Fprintf(sb, "### %s\n\n", tool.Name)
	if write {
		sb.WriteString("**write**\n\n")
	}
	if tool.Description != "" {
		fmt.Fprintf(sb, "%s\n\n", tool.Description)
	}

	props := tool.InputSchema.Properties
	if len(props) == 0 {
		return
	}

	sb.WriteString("**Arguments:**\n")
	for _, name := range slices.Sorted(maps.Keys(props)) {
		propMap, ok := props[name].(map[string]any)
		if !ok {
			continue
		}

		propType, _ := propMap["type"].(string)
		if propType == "" {
			propType = "any"
		}
		requirement := "optional"
		if slices.Contains(tool.InputSchema.Required, name) {
			requirement = "required"
		}

		desc, _ := propMap["description"].(string)
		fmt.Fprintf(sb, "- `%s` (%s, %s): %s\n", name, propType, requirement, desc)
	}
	sb.WriteString("\n")
}
