package google

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// expiryThreshold treats a token as expired slightly early so it does not
// lapse in flight.
const expiryThreshold = 10 * time.Second

// refreshGoogleToken exchanges a refresh token for a new access token.
func refreshGoogleToken(ctx context.Context, refreshToken string, config *oauth2.Config, httpClient *http.Client) (*oauth2.Token, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	if httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
	}

	// An empty access token forces the token source to call the endpoint.
	newToken, err := config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	return newToken, nil
}

// isTokenExpired checks if a token is expired or will expire soon.
// Returns true if the token has expired or will expire within the threshold.
func isTokenExpired(token *oauth2.Token, threshold time.Duration) bool {
	if token.Expiry.IsZero() {
		return false
	}

	return time.Now().Add(threshold).After(token.Expiry)
}
