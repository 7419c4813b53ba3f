// Package auth validates bearer tokens and session credentials into an
// authenticated principal, and handles token revocation.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/unrelentingtech/sellout/internal/models"
	"github.com/unrelentingtech/sellout/internal/scope"
	"github.com/unrelentingtech/sellout/internal/storage"
)

// ErrUnauthorized is returned for any token that cannot be accepted: absent,
// revoked, or bound to a different host.
var ErrUnauthorized = errors.New("token is not valid")

type Authenticator struct {
	creds storage.CredentialStore
}

func NewAuthenticator(creds storage.CredentialStore) *Authenticator {
	return &Authenticator{
		creds: creds,
	}
}

// AuthenticateBearer resolves a raw bearer token into a principal. The token
// must exist, not be revoked, and be bound to the requesting host: tokens
// must not be reusable across virtual hosts sharing one store.
func (a *Authenticator) AuthenticateBearer(ctx context.Context, raw, host string) (*models.Principal, error) {
	token, err := a.creds.GetToken(ctx, raw)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up bearer token: %w", err)
	}

	if token.Revoked || token.Host != host {
		return nil, ErrUnauthorized
	}

	return &models.Principal{
		Scopes: token.Scopes,
		Token:  token,
	}, nil
}

// SessionPrincipal is the trusted first-party principal: the site owner
// authenticated by session cookie, granted the full scope universe.
func (a *Authenticator) SessionPrincipal() *models.Principal {
	return &models.Principal{
		ViaSession: true,
		Scopes:     scope.All,
	}
}

// Revoke marks a token revoked. Revocation is one-way and idempotent; the
// record is kept. Not-found and host-mismatch are reported to the caller;
// the API layer decides whether to hide them from the OAuth client.
func (a *Authenticator) Revoke(ctx context.Context, raw, host string) error {
	token, err := a.creds.GetToken(ctx, raw)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return fmt.Errorf("failed to look up bearer token: %w", err)
	}

	if token.Host != host {
		return ErrUnauthorized
	}
	if token.Revoked {
		return nil
	}

	token.Revoked = true
	if err := a.creds.PutToken(ctx, token); err != nil {
		return fmt.Errorf("failed to save revoked token: %w", err)
	}

	return nil
}
