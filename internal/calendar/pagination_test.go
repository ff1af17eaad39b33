package calendar

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	var tokens []string

	_, err := collect(context.Background(), func(_ context.Context, token string) (Page[int], error) {
		tokens = append(tokens, token)
		if token == "" {
			return Page[int]{Items: []int{1, 2}, NextPageToken: "next"}, nil
		}
		return Page[int]{}, boom
	})

	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"", "next"}, tokens)
}

func TestPageSize(t *testing.T) {
	assert.Equal(t, int64(DefaultPageSize), pageSize(0, maxEventsPageSize))
	assert.Equal(t, int64(DefaultPageSize), pageSize(-3, maxEventsPageSize))
	assert.Equal(t, int64(10), pageSize(10, maxEventsPageSize))
	assert.Equal(t, int64(maxCalendarListPageSize), pageSize(1000, maxCalendarListPageSize))
}
