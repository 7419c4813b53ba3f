package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/models"
	"github.com/unrelentingtech/sellout/internal/scope"
	"github.com/unrelentingtech/sellout/internal/storage"
)

// SessionCookie names the admin session cookie. The __Host- prefix pins it
// to this host, the / path and secure transport.
const SessionCookie = "__Host-sellout"

const cspNoScript = "default-src 'self'; style-src 'self'; img-src 'self' data:; media-src 'none'; script-src 'none'; object-src 'none'; base-uri 'none'; frame-ancestors 'none'"

type ctxKey int

const principalKey ctxKey = iota

// PrincipalFrom returns the authenticated principal, or nil for an
// anonymous request.
func PrincipalFrom(ctx context.Context) *models.Principal {
	p, _ := ctx.Value(principalKey).(*models.Principal)
	return p
}

func withPrincipal(r *http.Request, p *models.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey, p))
}

// Forwarded undoes edge-proxy header mangling: some front proxies can only
// pass the original host and Authorization header through X- variants.
func Forwarded(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xhost := r.Header.Get("X-Forwarded-Host"); xhost != "" {
			r.Host = xhost
		}
		if xauth := r.Header.Get("X-Authorization"); xauth != "" {
			r.Header.Set("Authorization", xauth)
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders applies the hardening headers, including a CSP that
// forbids scripts entirely. Every page here works without JavaScript.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", cspNoScript)
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")
		h.Set("Cross-Origin-Embedder-Policy", "require-corp")
		h.Set("Permissions-Policy", "sync-xhr=(), accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger logs one line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)
		slog.Info("Request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status(),
			"duration", time.Since(start),
		)
	})
}

// Authenticate resolves the request's credentials into a principal: the
// admin session cookie first, then a Bearer Authorization header. A
// request with no credentials passes through anonymous; route guards
// decide what that means. A malformed header or bad token fails here.
func Authenticate(authn *auth.Authenticator, sessions storage.SessionStorage) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(SessionCookie); err == nil {
				session, err := sessions.GetSession(r.Context(), c.Value)
				if err != nil {
					writeError(w, serverError("Failed to check session"))
					return
				}
				if session != nil {
					next.ServeHTTP(w, withPrincipal(r, authn.SessionPrincipal()))
					return
				}
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.Fields(header)
			if len(parts) != 2 {
				writeError(w, invalidRequest("What even is this Authorization header?"))
				return
			}
			if parts[0] != "Bearer" {
				writeError(w, invalidRequest("Unsupported Authorization header scheme "+parts[0]))
				return
			}

			principal, err := authn.AuthenticateBearer(r.Context(), parts[1], r.Host)
			if errors.Is(err, auth.ErrUnauthorized) {
				writeError(w, unauthorized("Token is not valid"))
				return
			}
			if err != nil {
				writeError(w, serverError("Failed to check token"))
				return
			}

			next.ServeHTTP(w, withPrincipal(r, principal))
		})
	}
}

// RequireSession guards first-party pages: only the cookie-authenticated
// site owner passes. Anonymous browsers are bounced to the login page with
// the original URL in ?next=.
func RequireSession(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if p != nil && p.ViaSession {
				next.ServeHTTP(w, r)
				return
			}
			if loginPath != "" {
				q := url.Values{"next": {r.URL.RequestURI()}}
				http.Redirect(w, r, loginPath+"?"+q.Encode(), http.StatusSeeOther)
				return
			}
			if p == nil {
				writeError(w, unauthorized(""))
				return
			}
			writeError(w, insufficientScope())
		})
	}
}

// RequireScope guards an operation behind granted scopes.
func RequireScope(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFrom(r.Context())
			if p == nil {
				writeError(w, unauthorized(""))
				return
			}
			if !scope.Satisfied(p.Scopes, scopes) {
				writeError(w, insufficientScope())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Status() int {
	if s.status == 0 {
		return http.StatusOK
	}
	return s.status
}
