package common

import (
	"fmt"
	"strings"
	"time"

	"github.com/teemow/gcal/internal/calendar"
)

// StringArg returns the trimmed string argument name, or "" when it is
// missing or not a string.
func StringArg(args map[string]any, name string) string {
	v, _ := args[name].(string)
	return strings.TrimSpace(v)
}

// RequiredStringArg is StringArg that fails on an empty value.
func RequiredStringArg(args map[string]any, name string) (string, error) {
	v := StringArg(args, name)
	if v == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return v, nil
}

// BoolArg returns the boolean argument name, or false.
func BoolArg(args map[string]any, name string) bool {
	v, _ := args[name].(bool)
	return v
}

// IntArg returns the numeric argument name, or def when it is missing.
// JSON numbers arrive as float64.
func IntArg(args map[string]any, name string, def int64) int64 {
	switch v := args[name].(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	default:
		return def
	}
}

// StringListArg splits a comma-separated argument. An array of strings is
// accepted as well. Blank entries are dropped.
func StringListArg(args map[string]any, name string) []string {
	var raw []string
	switch v := args[name].(type) {
	case string:
		raw = strings.Split(v, ",")
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	case []string:
		raw = v
	}

	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// TimeArg parses an RFC 3339 argument. A missing argument yields the zero
// time; timestamps without a UTC offset are rejected.
func TimeArg(args map[string]any, name string) (time.Time, error) {
	s := StringArg(args, name)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := calendar.ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", name, err)
	}
	return t, nil
}

// RequiredTimeArg is TimeArg that fails on a missing value.
func RequiredTimeArg(args map[string]any, name string) (time.Time, error) {
	if StringArg(args, name) == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	return TimeArg(args, name)
}

// EventDateTimeArg parses a start or end argument: a YYYY-MM-DD date for an
// all-day event or an RFC 3339 timestamp. A missing argument yields nil.
func EventDateTimeArg(args map[string]any, name string) (*calendar.EventDateTime, error) {
	s := StringArg(args, name)
	if s == "" {
		return nil, nil
	}
	d, err := calendar.ParseEventDateTime(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return d, nil
}
