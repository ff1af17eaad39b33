package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/oauth2"

	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
)

// Config configures a CredentialStore.
type Config struct {
	// CredentialsPath is the app registration file ("client secrets").
	// Only read when the token file cannot refresh on its own.
	CredentialsPath string

	// TokenPath is the persisted token record. Required.
	TokenPath string

	// HTTPClient, when set, carries both token refreshes and API calls.
	HTTPClient *http.Client

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// CredentialStore loads, refreshes and persists the OAuth token record and
// produces authenticated HTTP clients from it.
type CredentialStore struct {
	credentialsPath string
	tokenPath       string
	httpClient      *http.Client
	logger          *slog.Logger
	metrics         *instrumentation.Metrics

	// mu serializes token file writes within this process.
	mu sync.Mutex
}

// NewCredentialStore returns a store for the given paths.
func NewCredentialStore(cfg Config) (*CredentialStore, error) {
	if cfg.TokenPath == "" {
		return nil, fmt.Errorf("token path is required")
	}

	return &CredentialStore{
		credentialsPath: cfg.CredentialsPath,
		tokenPath:       cfg.TokenPath,
		httpClient:      cfg.HTTPClient,
		logger:          logging.WithService(logging.OrDefault(cfg.Logger), instrumentation.ServiceOAuth),
		metrics:         cfg.Metrics,
	}, nil
}

// TokenPath returns the path of the token file.
func (s *CredentialStore) TokenPath() string {
	return s.tokenPath
}

// HasToken reports whether the token file exists.
func (s *CredentialStore) HasToken() bool {
	_, err := os.Stat(s.tokenPath)
	return err == nil
}

// Acquire returns an HTTP client that authorizes every request with the
// stored credentials, refreshing and persisting them first if the access
// token has expired. No network call is made when the stored access token
// is still valid.
func (s *CredentialStore) Acquire(ctx context.Context) (*http.Client, error) {
	ts, err := s.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	return oauth2.NewClient(ctx, ts), nil
}

// TokenSource returns a token source seeded with a usable token. Tokens the
// source refreshes later are written back to the token file.
func (s *CredentialStore) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	// The session outlives the call that acquired it.
	sessionCtx := context.WithoutCancel(ctx)

	var base oauth2.TokenSource
	if rec.HasClientIdentity() && rec.RefreshToken != "" {
		refreshCtx := sessionCtx
		if s.httpClient != nil {
			refreshCtx = context.WithValue(refreshCtx, oauth2.HTTPClient, s.httpClient)
		}
		base = rec.oauth2Config().TokenSource(refreshCtx, rec.oauth2Token())
	} else {
		base = oauth2.StaticTokenSource(rec.oauth2Token())
	}

	return &persistingTokenSource{
		ctx:    sessionCtx,
		store:  s,
		base:   base,
		record: *rec,
	}, nil
}

// load returns a record holding a usable access token.
func (s *CredentialStore) load(ctx context.Context) (*TokenRecord, error) {
	rec, err := ReadTokenRecord(s.tokenPath)
	if err != nil {
		return nil, err
	}

	if rec.Usable() {
		s.logger.Debug("using stored access token", logging.Path(s.tokenPath))
		return rec, nil
	}

	if rec.RefreshToken == "" {
		return nil, &RefreshError{
			Source: SourceTokenFile,
			Err:    errors.New("access token is missing or expired and no refresh token is stored"),
		}
	}

	if rec.HasClientIdentity() {
		if err := s.refresh(ctx, rec, SourceTokenFile); err != nil {
			return nil, err
		}
		return rec, nil
	}

	if s.credentialsPath == "" {
		return nil, &RefreshError{
			Source: SourceClientSecrets,
			Err:    errors.New("token file has no client identity and no client secrets file is configured"),
		}
	}

	app, err := LoadClientAppInfo(s.credentialsPath)
	if err != nil {
		return nil, &RefreshError{Source: SourceClientSecrets, Err: err}
	}

	rebuilt := &TokenRecord{
		Token:        rec.Token,
		RefreshToken: rec.RefreshToken,
		TokenURI:     app.TokenURI,
		ClientID:     app.ClientID,
		ClientSecret: app.ClientSecret,
		Scopes:       append([]string(nil), DefaultOAuthScopes...),
	}
	if err := s.refresh(ctx, rebuilt, SourceClientSecrets); err != nil {
		return nil, err
	}

	return rebuilt, nil
}

// refresh obtains a new access token for rec and persists the result.
func (s *CredentialStore) refresh(ctx context.Context, rec *TokenRecord, source string) error {
	ctx, span := instrumentation.StartSpan(ctx, "oauth.refresh",
		attribute.String(instrumentation.SpanAttrRefreshSource, source))
	defer span.End()

	start := time.Now()

	tok, err := refreshGoogleToken(ctx, rec.RefreshToken, rec.oauth2Config(), s.httpClient)
	if err != nil {
		s.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultFailure)
		instrumentation.SetSpanError(span, err)
		s.logger.Warn("token refresh failed", "source", source, logging.Err(err))
		return &RefreshError{Source: source, Err: err}
	}
	s.metrics.RecordOAuthTokenRefresh(ctx, instrumentation.OAuthResultSuccess)

	rec.apply(tok)
	if err := s.persist(rec); err != nil {
		instrumentation.SetSpanError(span, err)
		return err
	}

	instrumentation.SetSpanSuccess(span)
	s.logger.Info("refreshed access token",
		"source", source,
		"access_token", logging.SanitizeToken(rec.Token),
		logging.Path(s.tokenPath),
		logging.Duration(time.Since(start)))

	return nil
}

func (s *CredentialStore) persist(rec *TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return WriteTokenRecord(s.tokenPath, rec)
}
