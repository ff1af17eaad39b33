package google

import (
	"errors"
	"fmt"
)

var (
	// ErrCredentialsNotFound is returned when the token file does not exist.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrCredentialRefresh matches every *RefreshError.
	ErrCredentialRefresh = errors.New("credential refresh failed")
)

// Refresh identity sources.
const (
	SourceTokenFile     = "token file"
	SourceClientSecrets = "client secrets"
	SourceSession       = "session"
)

// RefreshError reports that no usable access token could be obtained.
// Source names the identity the failed attempt used.
type RefreshError struct {
	Source string
	Err    error
}

func (e *RefreshError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("credential refresh failed (%s)", e.Source)
	}
	return fmt.Sprintf("credential refresh failed (%s): %v", e.Source, e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// Is reports whether target is ErrCredentialRefresh.
func (e *RefreshError) Is(target error) bool {
	return target == ErrCredentialRefresh
}
