// Package google manages the OAuth2 credentials used to talk to Google APIs.
//
// A CredentialStore reads a previously authorized token record from disk,
// refreshes it when the access token has expired, writes the refreshed
// record back (mode 0600) and hands out an authenticated *http.Client.
//
// The refresh identity comes from the token record itself when it carries a
// client id and secret; otherwise it is taken from the app registration file
// downloaded from the Google Cloud console ("installed" or "web" client).
//
// Obtaining the initial authorization grant is out of scope: the token file
// must already exist.
package google
