package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/models"
	"github.com/unrelentingtech/sellout/internal/storage"
)

func captureHandler(got **models.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = PrincipalFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	store := storage.NewMemoryStorage()
	authn := auth.NewAuthenticator(store)
	mw := Authenticate(authn, store)

	token := &models.BearerToken{
		Token:    auth.NewRawToken(),
		ClientID: "https://client.example/",
		Scopes:   []string{"create"},
		Host:     testHost,
		IssuedAt: time.Now().UTC(),
	}
	require.NoError(t, store.PutToken(context.Background(), token))

	session := &models.Session{
		ID:        auth.NewRawToken(),
		CreatedAt: time.Now().UTC(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
	}
	require.NoError(t, store.SaveSession(context.Background(), session))

	t.Run("anonymous passes through", func(t *testing.T) {
		var got *models.Principal
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = testHost
		w := httptest.NewRecorder()
		mw(captureHandler(&got)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Nil(t, got)
	})

	t.Run("session cookie", func(t *testing.T) {
		var got *models.Principal
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = testHost
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: session.ID})
		w := httptest.NewRecorder()
		mw(captureHandler(&got)).ServeHTTP(w, r)

		require.NotNil(t, got)
		assert.True(t, got.ViaSession)
	})

	t.Run("bearer token", func(t *testing.T) {
		var got *models.Principal
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = testHost
		r.Header.Set("Authorization", "Bearer "+token.Token)
		w := httptest.NewRecorder()
		mw(captureHandler(&got)).ServeHTTP(w, r)

		require.NotNil(t, got)
		assert.False(t, got.ViaSession)
		assert.Equal(t, []string{"create"}, got.Scopes)
	})

	t.Run("invalid token", func(t *testing.T) {
		var got *models.Principal
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = testHost
		r.Header.Set("Authorization", "Bearer nope")
		w := httptest.NewRecorder()
		mw(captureHandler(&got)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Nil(t, got)
	})

	t.Run("wrong host", func(t *testing.T) {
		var got *models.Principal
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = "other.example"
		r.Header.Set("Authorization", "Bearer "+token.Token)
		w := httptest.NewRecorder()
		mw(captureHandler(&got)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		var got *models.Principal
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = testHost
		r.Header.Set("Authorization", "Basic dXNlcjpwdw==")
		w := httptest.NewRecorder()
		mw(captureHandler(&got)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("garbage header", func(t *testing.T) {
		var got *models.Principal
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Host = testHost
		r.Header.Set("Authorization", "huh")
		w := httptest.NewRecorder()
		mw(captureHandler(&got)).ServeHTTP(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestForwarded(t *testing.T) {
	var gotHost, gotAuth string
	h := Forwarded(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		gotAuth = r.Header.Get("Authorization")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Host = "edge.internal"
	r.Header.Set("X-Forwarded-Host", testHost)
	r.Header.Set("X-Authorization", "Bearer abc")
	h.ServeHTTP(httptest.NewRecorder(), r)

	assert.Equal(t, testHost, gotHost)
	assert.Equal(t, "Bearer abc", gotAuth)
}

func TestRequireSession(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous browser redirected to login", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/.sellout/authz?client_id=x", nil)
		w := httptest.NewRecorder()
		RequireSession("/.sellout/login")(next).ServeHTTP(w, r)

		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Contains(t, w.Header().Get("Location"), "/.sellout/login?next=")
	})

	t.Run("bearer principal redirected too", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/.sellout/", nil)
		r = withPrincipal(r, &models.Principal{Scopes: []string{"create"}})
		w := httptest.NewRecorder()
		RequireSession("/.sellout/login")(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
	})

	t.Run("session passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/.sellout/", nil)
		r = withPrincipal(r, sessionPrincipal())
		w := httptest.NewRecorder()
		RequireSession("/.sellout/login")(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestRequireScope(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("anonymous gets 401", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/.sellout/pub", nil)
		w := httptest.NewRecorder()
		RequireScope("create")(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("missing scope gets 403", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/.sellout/pub", nil)
		r = withPrincipal(r, &models.Principal{Scopes: []string{"profile"}})
		w := httptest.NewRecorder()
		RequireScope("create")(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("granted scope passes", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/.sellout/pub", nil)
		r = withPrincipal(r, &models.Principal{Scopes: []string{"create"}})
		w := httptest.NewRecorder()
		RequireScope("create")(next).ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
