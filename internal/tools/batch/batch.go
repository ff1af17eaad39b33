package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxItems caps the IDs accepted by a single batch call.
const MaxItems = 50

// Result statuses.
const (
	StatusSuccess  = "success"
	StatusNotFound = "not_found"
	StatusError    = "error"
	StatusSkipped  = "skipped"
)

// Result is the outcome for one ID.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	NotFound   int      `json:"notFound,omitempty"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped,omitempty"`
	Results    []Result `json:"results"`
}

// ParseIDs reads an ID argument that is either a single ID, a JSON array
// encoded as a string, or an array of strings. Duplicates are dropped
// while keeping the first occurrence.
func ParseIDs(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var ids []string
	switch v := param.(type) {
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		if strings.HasPrefix(v, "[") {
			var list []string
			if err := json.Unmarshal([]byte(v), &list); err == nil {
				if len(list) == 0 {
					return nil, fmt.Errorf("%s cannot be empty", paramName)
				}
				ids = list
				break
			}
		}
		ids = []string{v}
	case []string:
		ids = v
	case []any:
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			ids = append(ids, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}

	if len(out) > MaxItems {
		return nil, fmt.Errorf("%s accepts at most %d IDs, got %d", paramName, MaxItems, len(out))
	}
	return out, nil
}

// Run calls fn for each ID in order. isNotFound classifies errors for a
// missing resource and may be nil. Once ctx is done the remaining IDs are
// skipped.
func Run(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error), isNotFound func(error) bool) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Status: StatusSkipped, Error: err.Error()})
			continue
		}

		res, err := fn(ctx, id)
		switch {
		case err == nil:
			results = append(results, Result{ID: id, Status: StatusSuccess, Result: res})
		case isNotFound != nil && isNotFound(err):
			results = append(results, Result{ID: id, Status: StatusNotFound, Error: err.Error()})
		default:
			results = append(results, Result{ID: id, Status: StatusError, Error: err.Error()})
		}
	}

	return results
}

// Summarize counts results by status.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			s.Successful++
		case StatusNotFound:
			s.NotFound++
		case StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// FormatResults renders the summary of results as indented JSON.
func FormatResults(results []Result) string {
	data, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(data)
}
