package calendar

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestRemoteError_FromAPIError(t *testing.T) {
	apiErr := &googleapi.Error{
		Code: http.StatusForbidden,
		Errors: []googleapi.ErrorItem{
			{Reason: "rateLimitExceeded", Message: "Rate Limit Exceeded"},
		},
	}

	err := remoteError("events.list", apiErr)
	require.ErrorIs(t, err, ErrRemoteRequest)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "events.list", remote.Op)
	assert.Equal(t, http.StatusForbidden, remote.StatusCode)
	assert.Equal(t, "Forbidden", remote.Message)
	assert.True(t, remote.HasReason("rateLimitExceeded"))
	assert.False(t, remote.NotFound())

	var original *googleapi.Error
	assert.ErrorAs(t, err, &original)
}

func TestRemoteError_TransportFailuresAreWrapped(t *testing.T) {
	cause := errors.New("connection reset")

	err := remoteError("events.get", cause)
	require.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrRemoteRequest)
	assert.Equal(t, "events.get: connection reset", err.Error())

	assert.NoError(t, remoteError("events.get", nil))
}

func TestValidationError_Message(t *testing.T) {
	err := invalid("Attendee", "email", "is required")
	assert.Equal(t, "invalid Attendee.email: is required", err.Error())
	assert.ErrorIs(t, err, ErrValidation)
	assert.False(t, IsNotFound(err))
}
