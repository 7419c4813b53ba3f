// Package api implements the HTTP surface: the token endpoint, the Micropub
// content and media endpoints, and the middleware they share.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/oauth"
	"github.com/unrelentingtech/sellout/internal/post"
)

// MediaUploader stores an uploaded file and returns its public URL.
type MediaUploader interface {
	Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

type Server struct {
	authenticator *auth.Authenticator
	oauthService  *oauth.Service
	posts         post.Store
	media         MediaUploader
	targets       []SyndicateTarget
	pathPrefix    string
}

func NewServer(authenticator *auth.Authenticator, oauthService *oauth.Service, posts post.Store, media MediaUploader, targets []SyndicateTarget, pathPrefix string) *Server {
	return &Server{
		authenticator: authenticator,
		oauthService:  oauthService,
		posts:         posts,
		media:         media,
		targets:       targets,
		pathPrefix:    pathPrefix,
	}
}

// profile is the "me" object identifying the site owner. The user identity
// on a single-user site is the site itself.
func profile(host string) map[string]any {
	return map[string]any{"me": "https://" + host + "/"}
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
