// Package calendar is a typed client for the Google Calendar API.
//
// A Client groups three resource clients that share one authenticated
// transport:
//
//   - Events lists, reads and mutates the events of a calendar
//   - Calendars reads the user's calendar list and manages calendars
//   - FreeBusy queries availability
//
// List calls return a single Page; the matching ListAll variants follow the
// page tokens until the service reports no further page. Service failures
// are returned as *RemoteError, malformed records as *ValidationError.
//
// Example usage:
//
//	store, err := google.NewCredentialStore(google.Config{
//	    CredentialsPath: credentialsPath,
//	    TokenPath:       tokenPath,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := calendar.NewClientFromStore(ctx, store, calendar.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	events, err := client.Events.ListAll(ctx, calendar.PrimaryCalendar, calendar.ListEventsOptions{
//	    TimeMin: time.Now(),
//	    TimeMax: time.Now().AddDate(0, 0, 7),
//	})
package calendar
