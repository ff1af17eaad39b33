package google

import (
	googleoauth "golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// DefaultOAuthScopes are requested when a token record is rebuilt from the
// app registration file, and assumed when the token file lists none.
var DefaultOAuthScopes = []string{
	calendar.CalendarScope,
}

// DefaultTokenURI is the Google OAuth2 token endpoint.
var DefaultTokenURI = googleoauth.Endpoint.TokenURL

// DefaultAuthURI is the Google OAuth2 authorization endpoint.
var DefaultAuthURI = googleoauth.Endpoint.AuthURL
