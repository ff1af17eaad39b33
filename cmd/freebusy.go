package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/gcal/internal/calendar"
)

func newFreeBusyCmd(a *app) *cobra.Command {
	var (
		calendarIDs []string
		from, to    string
		timeZone    string
		free        time.Duration
		format      string
	)

	cmd := &cobra.Command{
		Use:   "freebusy",
		Short: "Show when calendars are busy",
		Long: `Query the busy periods of one or more calendars within a time range.

A calendar the service cannot evaluate, e.g. one that does not exist or is
not shared with you, is listed with its error instead of busy periods.

With --free the command prints the gaps of at least the given length during
which none of the calendars is busy.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			if from == "" || to == "" {
				return errors.New("--from and --to are required")
			}
			timeMin, err := parseOptionalTime("from", from)
			if err != nil {
				return err
			}
			timeMax, err := parseOptionalTime("to", to)
			if err != nil {
				return err
			}
			if len(calendarIDs) == 0 {
				calendarIDs = []string{calendar.PrimaryCalendar}
			}

			ctx := cmd.Context()
			client, err := a.newClient(ctx)
			if err != nil {
				return err
			}
			defer client.Close()

			resp, err := client.FreeBusy.Query(ctx, calendar.FreeBusyQuery{
				CalendarIDs: calendarIDs,
				TimeMin:     timeMin,
				TimeMax:     timeMax,
				TimeZone:    timeZone,
			})
			if err != nil {
				return err
			}

			if free <= 0 {
				return writeFreeBusy(cmd.OutOrStdout(), format, resp)
			}

			slots := calendar.FreeSlots(resp, timeMin, timeMax, free)
			if format == formatJSON {
				return writeJSON(cmd.OutOrStdout(), slots)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "free slots of at least %s\n", free)
			writePeriods(cmd.OutOrStdout(), slots)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&calendarIDs, "calendar", nil, "Calendar ID or email address (repeatable or comma-separated; default: primary)")
	cmd.Flags().StringVar(&from, "from", "", "Start of the range (RFC3339 with offset)")
	cmd.Flags().StringVar(&to, "to", "", "End of the range (RFC3339 with offset)")
	cmd.Flags().StringVar(&timeZone, "time-zone", "", "Time zone of the response")
	cmd.Flags().DurationVar(&free, "free", 0, "Print common free slots of at least this length instead, e.g. 30m")
	cmd.Flags().StringVarP(&format, "format", "o", formatText, "Output format: text or json")

	return cmd
}
