package api

import (
	"encoding/json"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/unrelentingtech/sellout/internal/auth"
	"github.com/unrelentingtech/sellout/internal/mf2"
	"github.com/unrelentingtech/sellout/internal/models"
	"github.com/unrelentingtech/sellout/internal/post"
	"github.com/unrelentingtech/sellout/internal/scope"
)

const maxFormMemory = 32 << 20

// MicropubGetHandler serves the query interface: endpoint configuration,
// syndication targets, and post source lookup.
func (s *Server) MicropubGetHandler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("q") {
	case "config":
		targets := s.targets
		if targets == nil {
			targets = []SyndicateTarget{}
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"media-endpoint": "https://" + r.Host + "/.sellout/media",
			"syndicate-to":   targets,
		})
	case "syndicate-to":
		targets := s.targets
		if targets == nil {
			targets = []SyndicateTarget{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"syndicate-to": targets})
	case "source":
		s.micropubSource(w, r)
	default:
		writeError(w, invalidRequest("Unsupported ?q value"))
	}
}

func (s *Server) micropubSource(w http.ResponseWriter, r *http.Request) {
	p, apiErr := s.urlToPath(r.Host, r.URL.Query().Get("url"))
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	doc, _, err := s.posts.Read(r.Context(), p)
	if errors.Is(err, post.ErrNotFound) {
		writeError(w, notFound("There is no post at the provided URL"))
		return
	}
	if err != nil {
		writeError(w, serverError("Failed to read post"))
		return
	}

	writeJSON(w, http.StatusOK, mf2.Encode(doc))
}

// MicropubPostHandler accepts mutations: a JSON body with create, update
// and delete actions, or a form/multipart body which is create-only.
func (s *Server) MicropubPostHandler(w http.ResponseWriter, r *http.Request) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "application/json" {
		s.micropubJSON(w, r)
		return
	}
	s.micropubForm(w, r)
}

type micropubRequest struct {
	Type       []string         `json:"type"`
	Action     string           `json:"action"`
	URL        string           `json:"url"`
	Properties map[string][]any `json:"properties"`
	Replace    map[string][]any `json:"replace"`
	Add        map[string][]any `json:"add"`
	Delete     any              `json:"delete"`
	MpSlug     string           `json:"mp-slug"`
}

func (s *Server) micropubJSON(w http.ResponseWriter, r *http.Request) {
	var body micropubRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, invalidRequest("Failed to parse JSON body"))
		return
	}

	action := body.Action
	if action == "" {
		action = "create"
	}

	p := PrincipalFrom(r.Context())
	if p == nil {
		writeError(w, unauthorized(""))
		return
	}
	if !scope.Satisfied(p.Scopes, []string{action}) {
		writeError(w, insufficientScope())
		return
	}

	switch action {
	case "create":
		s.micropubCreate(w, r, &body)
	case "update":
		s.micropubUpdate(w, r, &body)
	case "delete":
		s.micropubDelete(w, r, &body)
	default:
		// Includes undelete: the scope is advertised but restoring from
		// history is not implemented.
		writeError(w, invalidRequest("Unsupported action"))
	}
}

func (s *Server) micropubCreate(w http.ResponseWriter, r *http.Request, body *micropubRequest) {
	obj := &mf2.Object{Type: body.Type, Properties: body.Properties}
	if err := obj.Validate(); err != nil {
		writeError(w, codecError(err))
		return
	}

	doc := &post.Document{}
	if err := mf2.Apply(doc, obj.Properties, false); err != nil {
		writeError(w, codecError(err))
		return
	}

	if doc.FrontMatter.Date == nil {
		now := post.NormalizeTime(time.Now())
		doc.FrontMatter.Date = &now
	}

	// Record which client created the post, for display next to it.
	if p := PrincipalFrom(r.Context()); p != nil && p.Token != nil {
		if doc.FrontMatter.Extra == nil {
			doc.FrontMatter.Extra = map[string][]any{}
		}
		doc.FrontMatter.Extra["client_id"] = []any{p.Token.ClientID}
	}

	category, slug := mf2.DeriveTarget(doc, body.MpSlug)
	relPath := category + "/" + slug

	_, err := s.posts.Write(r.Context(), path.Join(s.pathPrefix, relPath+".md"), doc, "")
	if errors.Is(err, post.ErrExists) {
		writeError(w, conflict("A post already exists at "+relPath))
		return
	}
	if err != nil {
		writeError(w, serverError("Failed to store post"))
		return
	}

	w.Header().Set("Location", "https://"+r.Host+"/"+relPath)
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) micropubUpdate(w http.ResponseWriter, r *http.Request, body *micropubRequest) {
	if body.URL == "" {
		writeError(w, invalidRequest("url is required"))
		return
	}
	docPath, apiErr := s.urlToPath(r.Host, body.URL)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	doc, version, err := s.posts.Read(r.Context(), docPath)
	if errors.Is(err, post.ErrNotFound) {
		writeError(w, notFound("There is no post at the provided URL"))
		return
	}
	if err != nil {
		writeError(w, serverError("Failed to read post"))
		return
	}

	if err := mf2.Apply(doc, body.Replace, false); err != nil {
		writeError(w, codecError(err))
		return
	}
	if err := mf2.Apply(doc, body.Add, true); err != nil {
		writeError(w, codecError(err))
		return
	}
	switch del := body.Delete.(type) {
	case []any:
		names := make([]string, 0, len(del))
		for _, v := range del {
			name, ok := v.(string)
			if !ok {
				writeError(w, invalidRequest("delete must list property names"))
				return
			}
			names = append(names, name)
		}
		mf2.DeleteProperties(doc, names)
	case map[string]any:
		if err := mf2.DeleteValues(doc, del); err != nil {
			writeError(w, codecError(err))
			return
		}
	case nil:
	default:
		writeError(w, invalidRequest("delete must be a list or an object"))
		return
	}

	now := post.NormalizeTime(time.Now())
	doc.FrontMatter.Updated = &now

	_, err = s.posts.Write(r.Context(), docPath, doc, version)
	if errors.Is(err, post.ErrVersionConflict) {
		writeError(w, conflict("The post was modified concurrently, retry from a fresh read"))
		return
	}
	if err != nil {
		writeError(w, serverError("Failed to store post"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) micropubDelete(w http.ResponseWriter, r *http.Request, body *micropubRequest) {
	if body.URL == "" {
		writeError(w, invalidRequest("url is required"))
		return
	}
	docPath, apiErr := s.urlToPath(r.Host, body.URL)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	_, version, err := s.posts.Read(r.Context(), docPath)
	if errors.Is(err, post.ErrNotFound) {
		writeError(w, notFound("There is no post at the provided URL"))
		return
	}
	if err != nil {
		writeError(w, serverError("Failed to read post"))
		return
	}

	err = s.posts.Delete(r.Context(), docPath, version)
	if errors.Is(err, post.ErrVersionConflict) {
		writeError(w, conflict("The post was modified concurrently, retry from a fresh read"))
		return
	}
	if err != nil {
		writeError(w, serverError("Failed to delete post"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// micropubForm handles the form-encoded and multipart create flow: h= sets
// the type, [] suffixes build list properties, and file fields are uploaded
// first with their URLs substituted in.
func (s *Server) micropubForm(w http.ResponseWriter, r *http.Request) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if contentType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			writeError(w, invalidRequest("Failed to parse multipart body"))
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, invalidRequest("Failed to parse form body"))
			return
		}
	}

	p, apiErr := s.formPrincipal(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if !scope.Satisfied(p.Scopes, []string{"create"}) {
		writeError(w, insufficientScope())
		return
	}
	r = withPrincipal(r, p)

	body := micropubRequest{Properties: map[string][]any{}}
	addValue := func(key string, value any) {
		if strings.HasSuffix(key, "[]") {
			key = strings.TrimSuffix(key, "[]")
			body.Properties[key] = append(body.Properties[key], value)
		} else {
			body.Properties[key] = []any{value}
		}
	}

	for key, values := range r.PostForm {
		for _, value := range values {
			switch {
			case key == "h":
				body.Type = []string{"h-" + value}
			case key == "access_token":
			case key == "mp-slug":
				body.MpSlug = value
			case strings.HasPrefix(key, "mp-"):
				// Other mp- commands are accepted and ignored.
			default:
				addValue(key, value)
			}
		}
	}

	if r.MultipartForm != nil {
		for key, files := range r.MultipartForm.File {
			for _, fh := range files {
				fileURL, apiErr := s.uploadFormFile(r, fh)
				if apiErr != nil {
					writeError(w, apiErr)
					return
				}
				addValue(key, fileURL)
			}
		}
	}

	s.micropubCreate(w, r, &body)
}

// MediaHandler uploads one file and answers with its URL.
func (s *Server) MediaHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		writeError(w, invalidRequest("Failed to parse multipart body"))
		return
	}

	p, apiErr := s.formPrincipal(r)
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}
	if !scope.Satisfied(p.Scopes, []string{"media"}) {
		writeError(w, insufficientScope())
		return
	}

	if r.MultipartForm == nil || len(r.MultipartForm.File["file"]) == 0 {
		writeError(w, invalidRequest("No valid 'file' included in media endpoint request"))
		return
	}

	fileURL, apiErr := s.uploadFormFile(r, r.MultipartForm.File["file"][0])
	if apiErr != nil {
		writeError(w, apiErr)
		return
	}

	w.Header().Set("Location", fileURL)
	w.WriteHeader(http.StatusCreated)
}

// formPrincipal resolves the caller for form endpoints, where some clients
// put the token in an access_token form field instead of a header.
func (s *Server) formPrincipal(r *http.Request) (*models.Principal, *Error) {
	if p := PrincipalFrom(r.Context()); p != nil {
		return p, nil
	}

	token := r.PostForm.Get("access_token")
	if token == "" {
		return nil, unauthorized("")
	}

	p, err := s.authenticator.AuthenticateBearer(r.Context(), token, r.Host)
	if errors.Is(err, auth.ErrUnauthorized) {
		return nil, unauthorized("Token is not valid")
	}
	if err != nil {
		return nil, serverError("Failed to check token")
	}
	return p, nil
}

func (s *Server) uploadFormFile(r *http.Request, fh *multipart.FileHeader) (string, *Error) {
	f, err := fh.Open()
	if err != nil {
		return "", invalidRequest("Failed to read uploaded file")
	}
	defer f.Close()

	fileURL, err := s.media.Upload(r.Context(), fh.Filename, fh.Header.Get("Content-Type"), f)
	if err != nil {
		return "", serverError("Failed to store uploaded file")
	}
	return fileURL, nil
}

// urlToPath maps a public post URL to its repository path. Only URLs on the
// serving host are accepted, except during local development.
func (s *Server) urlToPath(host, raw string) (string, *Error) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", invalidRequest("The provided URL is not valid")
	}
	if u.Host != host && !strings.HasPrefix(host, "127.0.0.1") {
		return "", invalidRequest("The provided URL is not on the current domain")
	}
	return path.Join(s.pathPrefix, strings.TrimPrefix(u.Path, "/")+".md"), nil
}

// codecError maps codec failures onto the wire taxonomy.
func codecError(err error) *Error {
	if errors.Is(err, mf2.ErrInvalidRequest) || errors.Is(err, mf2.ErrInvalidContent) {
		return invalidRequest(strings.TrimPrefix(err.Error(), "invalid_request: "))
	}
	return serverError("")
}
