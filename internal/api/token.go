package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/models"
	"github.com/unrelentingtech/sellout/internal/oauth"
)

// TokenGetHandler is bearer-only token introspection: the client learns who
// the token represents and what it may do.
func (s *Server) TokenGetHandler(w http.ResponseWriter, r *http.Request) {
	p := PrincipalFrom(r.Context())
	if p == nil || p.Token == nil {
		writeError(w, unauthorized(""))
		return
	}

	resp := profile(r.Host)
	resp["client_id"] = p.Token.ClientID
	resp["scope"] = strings.Join(p.Token.Scopes, " ")
	writeJSON(w, http.StatusOK, resp)
}

// TokenPostHandler is the token endpoint: authorization-code exchange, or
// revocation when action=revoke.
func (s *Server) TokenPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, invalidRequest("Failed to parse form body"))
		return
	}

	if r.PostForm.Get("action") == "revoke" {
		s.revokeToken(w, r)
		return
	}

	record, apiErr := s.redeemAuthCode(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	token, err := s.oauthService.MintToken(r.Context(), record, r.Host)
	if err != nil {
		writeError(w, serverError("Failed to create token"))
		return
	}

	resp := profile(r.Host)
	resp["token_type"] = "Bearer"
	resp["access_token"] = token.Token
	resp["scope"] = strings.Join(token.Scopes, " ")
	writeJSON(w, http.StatusOK, resp)
}

// AuthzPostHandler is the authentication-only redemption variant: the code
// is consumed and the client gets the profile, but no token is minted.
func (s *Server) AuthzPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, invalidRequest("Failed to parse form body"))
		return
	}

	if _, apiErr := s.redeemAuthCode(r); apiErr != nil {
		writeError(w, apiErr)
		return
	}

	writeJSON(w, http.StatusOK, profile(r.Host))
}

func (s *Server) redeemAuthCode(r *http.Request) (*models.AuthorizationCode, *Error) {
	form := r.PostForm
	if form.Get("grant_type") != "authorization_code" {
		return nil, &Error{Status: http.StatusBadRequest, Code: "unsupported_grant_type"}
	}
	if form.Get("code") == "" || form.Get("client_id") == "" || form.Get("redirect_uri") == "" {
		return nil, invalidRequest("")
	}

	record, err := s.oauthService.Redeem(r.Context(), oauth.RedeemRequest{
		Code:         form.Get("code"),
		ClientID:     form.Get("client_id"),
		RedirectURI:  form.Get("redirect_uri"),
		Host:         r.Host,
		CodeVerifier: form.Get("code_verifier"),
	})
	switch {
	case errors.Is(err, oauth.ErrInvalidGrant):
		return nil, invalidGrant()
	case errors.Is(err, oauth.ErrInvalidRequest):
		return nil, invalidRequest("")
	case err != nil:
		return nil, serverError("Failed to redeem code")
	}

	return record, nil
}

// revokeToken hides every failure from OAuth clients so revocation can't be
// used to probe token validity. The site owner's own session gets the real
// error for debuggability.
func (s *Server) revokeToken(w http.ResponseWriter, r *http.Request) {
	err := s.authenticator.Revoke(r.Context(), r.PostForm.Get("token"), r.Host)

	p := PrincipalFrom(r.Context())
	if err != nil && p != nil && p.ViaSession {
		if errors.Is(err, auth.ErrUnauthorized) {
			writeError(w, invalidRequest("Token not found on this host"))
			return
		}
		writeError(w, serverError("Failed to revoke token"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{})
}
