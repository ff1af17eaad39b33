package google

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/gcal/internal/instrumentation"
	"github.com/teemow/gcal/internal/logging"
)

// persistingTokenSource writes every newly issued token back to the
// store's token file. ctx is the session context refresh metrics are
// recorded under.
type persistingTokenSource struct {
	ctx   context.Context
	store *CredentialStore
	base  oauth2.TokenSource

	mu     sync.Mutex
	record TokenRecord
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tok, err := p.base.Token()
	if err != nil {
		var refreshErr *RefreshError
		if errors.As(err, &refreshErr) {
			return nil, err
		}
		p.store.metrics.RecordOAuthTokenRefresh(p.ctx, instrumentation.OAuthResultFailure)
		return nil, &RefreshError{Source: SourceSession, Err: err}
	}

	if tok.AccessToken == p.record.Token {
		return tok, nil
	}

	p.store.metrics.RecordOAuthTokenRefresh(p.ctx, instrumentation.OAuthResultSuccess)
	p.record.apply(tok)

	if err := p.store.persist(&p.record); err != nil {
		// The new token is still good for this session.
		p.store.logger.Warn("failed to save refreshed token",
			logging.Path(p.store.tokenPath), logging.Err(err))
	} else {
		p.store.logger.Info("refreshed access token",
			"source", SourceSession,
			"access_token", logging.SanitizeToken(p.record.Token),
			logging.Path(p.store.tokenPath))
	}

	return tok, nil
}
