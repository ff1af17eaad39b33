package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/gcal/internal/calendar"
)

func newCalendarsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "Manage the calendars of the user",
	}

	cmd.AddCommand(newCalendarsListCmd(a))
	cmd.AddCommand(newCalendarsGetCmd(a))
	cmd.AddCommand(newCalendarsCreateCmd(a))
	cmd.AddCommand(newCalendarsPatchCmd(a))
	cmd.AddCommand(newCalendarsDeleteCmd(a))
	cmd.AddCommand(newCalendarsClearCmd(a))

	return cmd
}

func newCalendarsListCmd(a *app) *cobra.Command {
	var (
		all           bool
		pageToken     string
		showHidden    bool
		showDeleted   bool
		minAccessRole string
		format        string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the calendars on the user's calendar list",
		Args:  cobra.NoArgs,
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

			opts := calendar.ListCalendarsOptions{
				PageToken:     pageToken,
				ShowHidden:    showHidden,
				ShowDeleted:   showDeleted,
				MinAccessRole: minAccessRole,
			}

			if all {
				calendars, err := client.Calendars.ListAll(ctx, opts)
				if err != nil {
					return err
				}
				return writeCalendars(cmd.OutOrStdout(), format, calendars, "")
			}

			page, err := client.Calendars.List(ctx, opts)
			if err != nil {
				return err
			}
			return writeCalendars(cmd.OutOrStdout(), format, page.Items, page.NextPageToken)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continue a listing from this page token")
	cmd.Flags().BoolVar(&showHidden, "show-hidden", false, "Include hidden calendars")
	cmd.Flags().BoolVar(&showDeleted, "show-deleted", false, "Include deleted calendars")
	cmd.Flags().StringVar(&minAccessRole, "min-access-role", "", "Minimum access role: freeBusyReader, reader, writer or owner")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")

	return cmd
}

func newCalendarsGetCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "get [CALENDAR_ID]",
		Short: "Show a calendar (default: primary)",
		Args:  cobra.MaximumNArgs(1),
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

			cal, err := client.Calendars.Get(ctx, firstArg(args))
			if err != nil {
				return err
			}
			return writeSingleCalendar(cmd.OutOrStdout(), format, cal)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")

	return cmd
}

func calendarInputFlags(cmd *cobra.Command, input *calendar.CalendarInput) {
	cmd.Flags().StringVar(&input.Description, "description", "", "Calendar description")
	cmd.Flags().StringVar(&input.Location, "location", "", "Geographic location of the calendar")
	cmd.Flags().StringVar(&input.TimeZone, "time-zone", "", "IANA time zone of the calendar")
}

func newCalendarsCreateCmd(a *app) *cobra.Command {
	var (
		input  calendar.CalendarInput
		format string
	)

	cmd := &cobra.Command{
		Use:   "create SUMMARY",
		Short: "Create a secondary calendar",
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

			input.Summary = args[0]
			cal, err := client.Calendars.Create(ctx, input)
			if err != nil {
				return err
			}
			return writeSingleCalendar(cmd.OutOrStdout(), format, cal)
		},
	}

	calendarInputFlags(cmd, &input)
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")

	return cmd
}

func newCalendarsPatchCmd(a *app) *cobra.Command {
	var (
		input  calendar.CalendarInput
		format string
	)

	cmd := &cobra.Command{
		Use:   "patch CALENDAR_ID",
		Short: "Change the metadata of a calendar",
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

			cal, err := client.Calendars.Patch(ctx, args[0], input)
			if err != nil {
				return err
			}
			return writeSingleCalendar(cmd.OutOrStdout(), format, cal)
		},
	}

	cmd.Flags().StringVar(&input.Summary, "summary", "", "Calendar title")
	calendarInputFlags(cmd, &input)
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")

	return cmd
}

func newCalendarsDeleteCmd(a *app) *cobra.Command {
	var ignoreMissing bool

	cmd := &cobra.Command{
		Use:   "delete CALENDAR_ID",
		Short: "Delete a secondary calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			err = client.Calendars.Delete(ctx, args[0])
			switch {
			case err == nil:
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			case ignoreMissing && calendar.IsNotFound(err):
				fmt.Fprintf(cmd.OutOrStdout(), "%s does not exist\n", args[0])
			default:
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&ignoreMissing, "ignore-missing", false, "Succeed when the calendar does not exist")

	return cmd
}

func newCalendarsClearCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear [CALENDAR_ID]",
		Short: "Delete every event of a calendar (default: primary)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			id := firstArg(args)
			if err := client.Calendars.Clear(ctx, id); err != nil {
				return err
			}
			if id == "" {
				id = calendar.PrimaryCalendar
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", id)
			return nil
		},
	}

	return cmd
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
