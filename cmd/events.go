package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/teemow/gcal/internal/calendar"
)

func newEventsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List, read and change calendar events",
	}

	cmd.AddCommand(newEventsListCmd(a))
	cmd.AddCommand(newEventsGetCmd(a))
	cmd.AddCommand(newEventsWriteCmd(a, "create"))
	cmd.AddCommand(newEventsWriteCmd(a, "update"))
	cmd.AddCommand(newEventsWriteCmd(a, "patch"))
	cmd.AddCommand(newEventsDeleteCmd(a))
	cmd.AddCommand(newEventsMoveCmd(a))
	cmd.AddCommand(newEventsInstancesCmd(a))
	cmd.AddCommand(newEventsQuickAddCmd(a))

	return cmd
}

// parseOptionalTime parses an RFC 3339 flag value; empty means unbounded.
func parseOptionalTime(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := calendar.ParseTime(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", flag, err)
	}
	return t, nil
}

func newEventsListCmd(a *app) *cobra.Command {
	var (
		calendarID   string
		from, to     string
		query        string
		all          bool
		pageToken    string
		maxResults   int64
		showDeleted  bool
		singleEvents bool
		orderBy      string
		timeZone     string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events of a calendar",
		Long: `List the events of a calendar, one page at a time.

Recurring events are expanded into their instances unless --single-events=false
is given. Use --all to follow the page tokens and print every event.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatICS); err != nil {
				return err
			}
			timeMin, err := parseOptionalTime("from", from)
			if err != nil {
				return err
			}
			timeMax, err := parseOptionalTime("to", to)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			opts := calendar.ListEventsOptions{
				TimeMin:           timeMin,
				TimeMax:           timeMax,
				Query:             query,
				PageToken:         pageToken,
				MaxResults:        maxResults,
				ShowDeleted:       showDeleted,
				CollapseRecurring: !singleEvents,
				OrderBy:           orderBy,
				TimeZone:          timeZone,
			}

			name := calendarID
			if name == "" {
				name = calendar.PrimaryCalendar
			}

			if all {
				events, err := client.Events.ListAll(ctx, calendarID, opts)
				if err != nil {
					return err
				}
				return writeEvents(cmd.OutOrStdout(), format, name, events, "")
			}

			page, err := client.Events.List(ctx, calendarID, opts)
			if err != nil {
				return err
			}
			return writeEvents(cmd.OutOrStdout(), format, name, page.Items, page.NextPageToken)
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: primary)")
	cmd.Flags().StringVar(&from, "from", "", "Only events ending after this time (RFC3339 with offset)")
	cmd.Flags().StringVar(&to, "to", "", "Only events starting before this time (RFC3339 with offset)")
	cmd.Flags().StringVar(&query, "query", "", "Free text search terms")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continue a listing from this page token")
	cmd.Flags().Int64Var(&maxResults, "max-results", 0, "Events per page (default: page_size from the config)")
	cmd.Flags().BoolVar(&showDeleted, "show-deleted", false, "Include cancelled events")
	cmd.Flags().BoolVar(&singleEvents, "single-events", true, "Expand recurring events into instances")
	cmd.Flags().StringVar(&orderBy, "order-by", "", "Sort order: startTime or updated")
	cmd.Flags().StringVar(&timeZone, "time-zone", "", "Time zone of the response")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text, json or ics")

	return cmd
}

func newEventsGetCmd(a *app) *cobra.Command {
	var calendarID, format string

	cmd := &cobra.Command{
		Use:   "get EVENT_ID",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			event, err := client.Events.Get(ctx, calendarID, args[0])
			if err != nil {
				return err
			}
			return writeSingleEvent(cmd.OutOrStdout(), format, event)
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: primary)")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")

	return cmd
}

// eventFlags are the convenience fields of create, update and patch.
type eventFlags struct {
	summary     string
	description string
	location    string
	start       string
	end         string
	allDay      bool
	timeZone    string
	attendees   []string
	recurrence  []string
	eventType   string
	meet        bool
	sendUpdates string
	bodyFile    string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.summary, "summary", "", "Event title")
	flags.StringVar(&f.description, "description", "", "Event description")
	flags.StringVar(&f.location, "location", "", "Event location")
	flags.StringVar(&f.start, "start", "", "Start: RFC3339 with offset, or YYYY-MM-DD")
	flags.StringVar(&f.end, "end", "", "End: RFC3339 with offset, or YYYY-MM-DD (exclusive)")
	flags.BoolVar(&f.allDay, "all-day", false, "Require --start and --end to be dates")
	flags.StringVar(&f.timeZone, "time-zone", "", "IANA time zone for start and end")
	flags.StringArrayVar(&f.attendees, "attendee", nil, "Attendee email address (repeatable)")
	flags.StringArrayVar(&f.recurrence, "recurrence", nil, "RRULE, EXRULE, RDATE or EXDATE line (repeatable)")
	flags.StringVar(&f.eventType, "event-type", "", "Event type: default, outOfOffice, focusTime or workingLocation")
	flags.BoolVar(&f.meet, "meet", false, "Add a Google Meet conference")
	flags.StringVar(&f.sendUpdates, "send-updates", "", "Notify guests: all, externalOnly or none")
	flags.StringVar(&f.bodyFile, "body", "", "JSON event resource to send as is; '-' reads stdin. Overrides the other event flags")
}

func (f *eventFlags) dateTime(flag, value string) (*calendar.EventDateTime, error) {
	if value == "" {
		return nil, nil
	}
	if f.allDay {
		t, err := calendar.ParseDate(value)
		if err != nil {
			return nil, fmt.Errorf("--%s: %w", flag, err)
		}
		return &calendar.EventDateTime{Date: t}, nil
	}
	d, err := calendar.ParseEventDateTime(value)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", flag, err)
	}
	return d, nil
}

// input builds the event input. stdin is read for --body -.
func (f *eventFlags) input(stdin io.Reader) (calendar.EventInput, error) {
	input := calendar.EventInput{SendUpdates: f.sendUpdates}

	if f.bodyFile != "" {
		var data []byte
		var err error
		if f.bodyFile == "-" {
			data, err = io.ReadAll(stdin)
		} else {
			data, err = os.ReadFile(f.bodyFile)
		}
		if err != nil {
			return input, fmt.Errorf("failed to read --body: %w", err)
		}
		var body calendarapi.Event
		if err := json.Unmarshal(data, &body); err != nil {
			return input, fmt.Errorf("failed to parse --body: %w", err)
		}
		input.Body = &body
		return input, nil
	}

	var err error
	if input.Start, err = f.dateTime("start", f.start); err != nil {
		return input, err
	}
	if input.End, err = f.dateTime("end", f.end); err != nil {
		return input, err
	}

	input.Summary = f.summary
	input.Description = f.description
	input.Location = f.location
	input.TimeZone = f.timeZone
	input.Attendees = calendar.ParseAttendees(f.attendees)
	input.Recurrence = f.recurrence
	input.EventType = f.eventType
	input.AddMeet = f.meet

	return input, nil
}

// newEventsWriteCmd builds create, update or patch, which share their flags.
func newEventsWriteCmd(a *app, verb string) *cobra.Command {
	var (
		calendarID string
		format     string
		merge      bool
		fields     eventFlags
	)

	cmd := &cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			input, err := fields.input(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if verb == "create" && input.Body == nil && (input.Start == nil || input.End == nil) {
				return errors.New("--start and --end are required")
			}

			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			var event *calendar.Event
			switch verb {
			case "create":
				event, err = client.Events.Create(ctx, calendarID, input)
			case "update":
				if merge {
					event, err = client.Events.UpdateMerged(ctx, calendarID, args[0], input)
				} else {
					event, err = client.Events.Update(ctx, calendarID, args[0], input)
				}
			default:
				event, err = client.Events.Patch(ctx, calendarID, args[0], input)
			}
			if err != nil {
				return err
			}
			return writeSingleEvent(cmd.OutOrStdout(), format, event)
		},
	}

	switch verb {
	case "create":
		cmd.Use = "create"
		cmd.Short = "Create an event"
		cmd.Args = cobra.NoArgs
	case "update":
		cmd.Use = "update EVENT_ID"
		cmd.Short = "Replace an event; fields not given are cleared"
		cmd.Args = cobra.ExactArgs(1)
		cmd.Flags().BoolVar(&merge, "merge", false, "Keep the fields not given by reading the event first")
	default:
		cmd.Use = "patch EVENT_ID"
		cmd.Short = "Change only the given fields of an event"
		cmd.Args = cobra.ExactArgs(1)
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: primary)")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")
	fields.register(cmd)

	return cmd
}

func newEventsDeleteCmd(a *app) *cobra.Command {
	var calendarID, sendUpdates string

	cmd := &cobra.Command{
		Use:   "delete EVENT_ID",
		Short: "Delete an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Events.Delete(ctx, calendarID, args[0], sendUpdates); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: primary)")
	cmd.Flags().StringVar(&sendUpdates, "send-updates", "", "Notify guests: all, externalOnly or none")

	return cmd
}

func newEventsMoveCmd(a *app) *cobra.Command {
	var calendarID, destination, format string

	cmd := &cobra.Command{
		Use:   "move EVENT_ID",
		Short: "Move an event to another calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			event, err := client.Events.Move(ctx, calendarID, args[0], destination)
			if err != nil {
				return err
			}
			return writeSingleEvent(cmd.OutOrStdout(), format, event)
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID the event is in (default: primary)")
	cmd.Flags().StringVar(&destination, "to", "", "Destination calendar ID")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newEventsInstancesCmd(a *app) *cobra.Command {
	var (
		calendarID string
		from, to   string
		all        bool
		pageToken  string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "instances EVENT_ID",
		Short: "List the occurrences of a recurring event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatICS); err != nil {
				return err
			}
			timeMin, err := parseOptionalTime("from", from)
			if err != nil {
				return err
			}
			timeMax, err := parseOptionalTime("to", to)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			opts := calendar.InstancesOptions{TimeMin: timeMin, TimeMax: timeMax, PageToken: pageToken}
			name := args[0]

			if all {
				events, err := client.Events.InstancesAll(ctx, calendarID, args[0], opts)
				if err != nil {
					return err
				}
				return writeEvents(cmd.OutOrStdout(), format, name, events, "")
			}

			page, err := client.Events.Instances(ctx, calendarID, args[0], opts)
			if err != nil {
				return err
			}
			return writeEvents(cmd.OutOrStdout(), format, name, page.Items, page.NextPageToken)
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: primary)")
	cmd.Flags().StringVar(&from, "from", "", "Only instances ending after this time (RFC3339 with offset)")
	cmd.Flags().StringVar(&to, "to", "", "Only instances starting before this time (RFC3339 with offset)")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continue a listing from this page token")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text, json or ics")

	return cmd
}

func newEventsQuickAddCmd(a *app) *cobra.Command {
	var calendarID, format string

	cmd := &cobra.Command{
		Use:   "quick-add TEXT",
		Short: "Create an event from text such as \"Lunch with Ana tomorrow 12pm\"",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}

			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			event, err := client.Events.QuickAdd(ctx, calendarID, args[0])
			if err != nil {
				return err
			}
			return writeSingleEvent(cmd.OutOrStdout(), format, event)
		},
	}

	cmd.Flags().StringVar(&calendarID, "calendar", "", "Calendar ID (default: primary)")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")

	return cmd
}
