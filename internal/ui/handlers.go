// Package ui serves the first-party HTML pages: login, the consent screen,
// the dashboard, and the landing page advertising the endpoints.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/unrelentingtech/sellout/internal/api"
	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/models"
	"github.com/unrelentingtech/sellout/internal/oauth"
	"github.com/unrelentingtech/sellout/internal/scope"
	"github.com/unrelentingtech/sellout/internal/storage"
)

//go:embed templates/*.html
var templatesFS embed.FS

const sessionDuration = 30 * 24 * time.Hour

type Handlers struct {
	templates    *template.Template
	sessions     storage.SessionStorage
	oauthService *oauth.Service
	passwordHash string
	prefix       string
}

func NewHandlers(sessions storage.SessionStorage, oauthService *oauth.Service, passwordHash, prefix string) (*Handlers, error) {
	templates, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded templates: %w", err)
	}

	return &Handlers{
		templates:    templates,
		sessions:     sessions,
		oauthService: oauthService,
		passwordHash: passwordHash,
		prefix:       prefix,
	}, nil
}

// LandingHandler renders the public landing page. The Link rels are how
// clients discover the endpoints from the profile URL.
func (h *Handlers) LandingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Link", fmt.Sprintf(
		`<%[1]s/authz>; rel="authorization_endpoint", <%[1]s/token>; rel="token_endpoint", <%[1]s/pub>; rel="micropub"`,
		h.prefix))
	h.render(w, http.StatusOK, "landing.html", map[string]any{"Host": r.Host})
}

func (h *Handlers) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "dashboard.html", map[string]any{
		"Host":   r.Host,
		"Prefix": h.prefix,
	})
}

func (h *Handlers) LoginGetHandler(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next == "" {
		next = "/"
	}
	if p := api.PrincipalFrom(r.Context()); p != nil && p.ViaSession {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "login.html", map[string]any{"Next": next, "Prefix": h.prefix})
}

func (h *Handlers) LoginPostHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAuthError(w, "Failed to parse form body")
		return
	}
	next := r.PostForm.Get("next")
	if next == "" {
		next = h.prefix + "/"
	}
	if p := api.PrincipalFrom(r.Context()); p != nil && p.ViaSession {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}

	if !auth.VerifyPassword(r.PostForm.Get("pw"), h.passwordHash) {
		h.render(w, http.StatusOK, "login.html", map[string]any{
			"Next":   next,
			"Prefix": h.prefix,
			"Error":  "The password did not match",
		})
		return
	}

	now := time.Now().UTC()
	session := &models.Session{
		ID:        auth.NewRawToken(),
		CreatedAt: now,
		ExpiresAt: now.Add(sessionDuration),
	}
	if err := h.sessions.SaveSession(r.Context(), session); err != nil {
		slog.Error("Failed to save session", "error", err)
		h.renderAuthError(w, "Something went wrong, try again")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookie,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   int(sessionDuration.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *Handlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(api.SessionCookie); err == nil {
		if err := h.sessions.DeleteSession(r.Context(), c.Value); err != nil {
			slog.Error("Failed to delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     api.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type scopeChoice struct {
	Name        string
	Description string
	Requested   bool
}

// AuthzGetHandler renders the consent screen after validating the
// authorization request. Validation failures render a human-readable error
// page; there is no safe redirect target until the client checks out.
func (h *Handlers) AuthzGetHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("response_type") != "code" {
		h.renderAuthError(w, "response_type MUST be 'code'")
		return
	}
	for _, param := range []string{"client_id", "redirect_uri", "state"} {
		if q.Get(param) == "" {
			h.renderAuthError(w, param+" MUST exist")
			return
		}
	}
	if err := oauth.ValidateClient(q.Get("client_id"), q.Get("redirect_uri")); err != nil {
		h.renderAuthError(w, err.Error())
		return
	}

	requested := map[string]bool{}
	reqScope := q.Get("scope")
	if reqScope == "" {
		reqScope = "profile"
	}
	for _, name := range strings.Fields(reqScope) {
		requested[name] = true
	}

	choices := make([]scopeChoice, 0, len(scope.All))
	for _, name := range scope.All {
		choices = append(choices, scopeChoice{
			Name:        name,
			Description: scope.Info[name],
			Requested:   requested[name],
		})
	}

	h.render(w, http.StatusOK, "authorize.html", map[string]any{
		"ClientID":            q.Get("client_id"),
		"RedirectURI":         q.Get("redirect_uri"),
		"State":               q.Get("state"),
		"CodeChallenge":       q.Get("code_challenge"),
		"CodeChallengeMethod": q.Get("code_challenge_method"),
		"Scopes":              choices,
		"Prefix":              h.prefix,
	})
}

// AllowHandler consumes the consent form and sends the client back with a
// fresh authorization code. Cross-site form posts are rejected; a page on
// another origin must not be able to submit consent.
func (h *Handlers) AllowHandler(w http.ResponseWriter, r *http.Request) {
	fetchSite := r.Header.Get("Sec-Fetch-Site")
	if fetchSite != "" && fetchSite != "same-origin" {
		h.renderAuthError(w, "request MUST be same-origin")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.renderAuthError(w, "Failed to parse form body")
		return
	}
	for _, param := range []string{"client_id", "redirect_uri", "state"} {
		if r.PostForm.Get(param) == "" {
			h.renderAuthError(w, param+" MUST exist")
			return
		}
	}

	var scopes []string
	for _, name := range scope.All {
		if r.PostForm.Get("scope:"+name) == "on" {
			scopes = append(scopes, name)
		}
	}

	code, err := h.oauthService.Issue(r.Context(), oauth.IssueRequest{
		ClientID:            r.PostForm.Get("client_id"),
		RedirectURI:         r.PostForm.Get("redirect_uri"),
		State:               r.PostForm.Get("state"),
		Scopes:              scopes,
		CodeChallenge:       r.PostForm.Get("code_challenge"),
		CodeChallengeMethod: r.PostForm.Get("code_challenge_method"),
		Host:                r.Host,
	})
	if err != nil {
		h.renderAuthError(w, err.Error())
		return
	}

	dest := oauth.BuildRedirectURL(r.PostForm.Get("redirect_uri"), code, r.PostForm.Get("state"))
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

func (h *Handlers) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
	}
}

func (h *Handlers) renderAuthError(w http.ResponseWriter, message string) {
	h.render(w, http.StatusBadRequest, "autherr.html", map[string]any{"Error": message})
}
