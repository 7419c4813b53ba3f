// Package oauth implements the IndieAuth authorization code flow: issuing
// codes on consent and redeeming them into bearer tokens.
package oauth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/models"
	"github.com/unrelentingtech/sellout/internal/scope"
	"github.com/unrelentingtech/sellout/internal/storage"
)

// codeTTL is how long an authorization code stays redeemable.
const codeTTL = 5 * time.Minute

var (
	// ErrInvalidGrant is the single opaque failure for every redemption
	// check; which check failed must not leak to the client.
	ErrInvalidGrant = errors.New("invalid_grant")

	// ErrInvalidRequest signals a malformed redemption request, such as a
	// missing code_verifier for a code that carries a PKCE challenge.
	ErrInvalidRequest = errors.New("invalid_request")
)

type Service struct {
	creds storage.CredentialStore
	now   func() time.Time
}

func NewService(creds storage.CredentialStore) *Service {
	return &Service{
		creds: creds,
		now:   time.Now,
	}
}

// ValidateClient checks that client_id and redirect_uri are absolute URLs
// sharing scheme and authority, so a consented code can never redirect off
// the client's own origin. The error text is shown on the consent error page.
func ValidateClient(clientID, redirectURI string) error {
	cu, err := url.Parse(clientID)
	if err != nil || cu.Scheme == "" || cu.Host == "" {
		return fmt.Errorf("client_id MUST be a valid absolute URL")
	}
	ru, err := url.Parse(redirectURI)
	if err != nil || ru.Scheme == "" || ru.Host == "" {
		return fmt.Errorf("redirect_uri MUST be a valid absolute URL")
	}
	if cu.Scheme != ru.Scheme || cu.Host != ru.Host {
		return fmt.Errorf("redirect_uri MUST be on the same host as client_id")
	}
	return nil
}

// IssueRequest carries the consented authorization parameters.
type IssueRequest struct {
	ClientID            string
	RedirectURI         string
	State               string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
	Host                string
}

// Issue creates and persists an authorization code for a consented request.
// PKCE parameters are recorded as given; verification happens at redemption.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (string, error) {
	if err := ValidateClient(req.ClientID, req.RedirectURI); err != nil {
		return "", err
	}

	granted := make([]string, 0, len(req.Scopes))
	for _, name := range req.Scopes {
		if scope.Known(name) {
			granted = append(granted, name)
		}
	}

	code := auth.NewRawToken()
	record := &models.AuthorizationCode{
		Code:                code,
		ClientID:            req.ClientID,
		RedirectURI:         req.RedirectURI,
		State:               req.State,
		Scopes:              granted,
		CodeChallenge:       req.CodeChallenge,
		CodeChallengeMethod: req.CodeChallengeMethod,
		Host:                req.Host,
		IssuedAt:            s.now().UTC(),
	}

	if err := s.creds.PutCode(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save authorization code: %w", err)
	}

	return code, nil
}

// RedeemRequest carries the parameters of a code redemption attempt.
type RedeemRequest struct {
	Code         string
	ClientID     string
	RedirectURI  string
	Host         string
	CodeVerifier string
}

// Redeem validates a code against every binding (expiry, client, redirect,
// host, single-use, PKCE) and marks it used. Every validation failure
// collapses to ErrInvalidGrant.
func (s *Service) Redeem(ctx context.Context, req RedeemRequest) (*models.AuthorizationCode, error) {
	record, err := s.creds.GetCode(ctx, req.Code)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidGrant
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up authorization code: %w", err)
	}

	if s.now().Sub(record.IssuedAt) > codeTTL ||
		record.ClientID != req.ClientID ||
		record.RedirectURI != req.RedirectURI ||
		record.Used ||
		record.Host != req.Host {
		return nil, ErrInvalidGrant
	}

	if record.CodeChallengeMethod == "S256" {
		if req.CodeVerifier == "" {
			return nil, ErrInvalidRequest
		}
		if !verifierMatches(record.CodeChallenge, req.CodeVerifier) {
			return nil, ErrInvalidGrant
		}
	}

	record.Used = true
	if err := s.creds.PutCode(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to mark authorization code used: %w", err)
	}

	return record, nil
}

// MintToken creates a bearer token from a freshly redeemed code, bound to
// the same host, client and scopes. This write is separate from marking the
// code used; a crash in between leaves a used code with no token, which is a
// permanent failure since codes are single-use.
func (s *Service) MintToken(ctx context.Context, record *models.AuthorizationCode, host string) (*models.BearerToken, error) {
	token := &models.BearerToken{
		Token:           auth.NewRawToken(),
		ClientID:        record.ClientID,
		Scopes:          record.Scopes,
		Host:            host,
		IssuedAt:        s.now().UTC(),
		OriginatingCode: record.Code,
	}

	if err := s.creds.PutToken(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to save bearer token: %w", err)
	}

	return token, nil
}

// verifierMatches compares the SHA-256 of the verifier with the stored
// challenge in constant time. Challenges are stored base64url-encoded
// without padding; stray padding is tolerated.
func verifierMatches(challenge, verifier string) bool {
	want, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(challenge, "="))
	if err != nil {
		return false
	}
	got := sha256.Sum256([]byte(verifier))
	return subtle.ConstantTimeCompare(got[:], want) == 1
}

// BuildRedirectURL merges code and state into the redirect URI's existing
// query string.
func BuildRedirectURL(redirectURI, code, state string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI // fallback
	}

	q := u.Query()
	q.Set("code", code)
	if state != "" {
		q.Set("state", state)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
