package calendar

import "context"

// DefaultPageSize is the page size requested when the caller sets none.
const DefaultPageSize = 250

// Service-side page size caps.
const (
	maxEventsPageSize       = 2500
	maxCalendarListPageSize = 250
)

// Page is one page of a list result. An empty NextPageToken means there
// are no further pages; otherwise pass it back verbatim to resume.
type Page[T any] struct {
	Items         []T    `json:"items"`
	NextPageToken string `json:"nextPageToken,omitempty"`
}

// HasMore reports whether another page follows.
func (p Page[T]) HasMore() bool {
	return p.NextPageToken != ""
}

// pageFetcher fetches the page at pageToken; "" is the first page.
type pageFetcher[T any] func(ctx context.Context, pageToken string) (Page[T], error)

// collect walks every page starting from the first one and concatenates the
// items in the order received. Pages are fetched strictly one after another.
func collect[T any](ctx context.Context, fetch pageFetcher[T]) ([]T, error) {
	all := make([]T, 0)
	token := ""
	for {
		page, err := fetch(ctx, token)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore() {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// decodeItems converts wire items one by one. A nil slice decodes to an
// empty one.
func decodeItems[S, T any](items []S, decode func(S) (T, error)) ([]T, error) {
	out := make([]T, 0, len(items))
	for _, item := range items {
		v, err := decode(item)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func pageSize(requested, limit int64) int64 {
	switch {
	case requested <= 0:
		return DefaultPageSize
	case requested > limit:
		return limit
	default:
		return requested
	}
}
