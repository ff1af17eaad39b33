package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"golang.org/x/oauth2"
)

// tokenFileMode is applied to the token file on every write.
const tokenFileMode = 0o600

// TokenRecord is the persisted authorized-user credential.
type TokenRecord struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	TokenURI     string    `json:"token_uri,omitempty"`
	ClientID     string    `json:"client_id,omitempty"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
}

// HasClientIdentity reports whether the record can refresh itself.
func (r *TokenRecord) HasClientIdentity() bool {
	return r.ClientID != "" && r.ClientSecret != ""
}

// Usable reports whether the access token can be sent as is. A record
// without an expiry is treated as non-expiring.
func (r *TokenRecord) Usable() bool {
	return r.Token != "" && !isTokenExpired(r.oauth2Token(), expiryThreshold)
}

func (r *TokenRecord) oauth2Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  r.Token,
		TokenType:    "Bearer",
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry,
	}
}

// apply copies a freshly issued token into the record. The refresh token
// is replaced only when the service rotated it.
func (r *TokenRecord) apply(t *oauth2.Token) {
	r.Token = t.AccessToken
	if t.RefreshToken != "" {
		r.RefreshToken = t.RefreshToken
	}
	r.Expiry = t.Expiry
}

func (r *TokenRecord) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   DefaultAuthURI,
			TokenURL:  r.TokenURI,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		Scopes: r.Scopes,
	}
}

// ReadTokenRecord loads a token record from path. A missing file is
// reported as ErrCredentialsNotFound.
func ReadTokenRecord(path string) (*TokenRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCredentialsNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var rec TokenRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse token file %s: %w", path, err)
	}
	if rec.TokenURI == "" {
		rec.TokenURI = DefaultTokenURI
	}
	if len(rec.Scopes) == 0 {
		rec.Scopes = append([]string(nil), DefaultOAuthScopes...)
	}

	return &rec, nil
}

// WriteTokenRecord writes rec to path as a single JSON document and
// restricts the file to owner read/write.
func WriteTokenRecord(path string, rec *TokenRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode token record: %w", err)
	}

	if err := os.WriteFile(path, data, tokenFileMode); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(path, tokenFileMode); err != nil {
		return fmt.Errorf("failed to restrict token file permissions: %w", err)
	}

	return nil
}

// ClientAppInfo is the OAuth client identity from an app registration file.
type ClientAppInfo struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	TokenURI     string `json:"token_uri"`
}

type clientSecretsFile struct {
	Installed *ClientAppInfo `json:"installed"`
	Web       *ClientAppInfo `json:"web"`
}

// LoadClientAppInfo reads an app registration file, preferring the
// "installed" client over the "web" client.
func LoadClientAppInfo(path string) (*ClientAppInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read client secrets file: %w", err)
	}

	var file clientSecretsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse client secrets file %s: %w", path, err)
	}

	var info *ClientAppInfo
	switch {
	case file.Installed != nil && file.Installed.ClientID != "":
		info = file.Installed
	case file.Web != nil && file.Web.ClientID != "":
		info = file.Web
	default:
		return nil, fmt.Errorf("client secrets file %s has no installed or web client", path)
	}

	if info.TokenURI == "" {
		info.TokenURI = DefaultTokenURI
	}

	return info, nil
}
