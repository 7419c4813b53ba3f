package mf2

import (
	"fmt"
	"strings"
	"time"

	"github.com/unrelentingtech/sellout/internal/post"
)

// Encode renders a stored document as an h-entry property bag. Extra keys
// pass through with `_` translated back to `-`.
func Encode(doc *post.Document) *Object {
	fm := &doc.FrontMatter
	props := map[string][]any{}

	for k, v := range fm.Extra {
		if len(v) > 0 {
			props[strings.ReplaceAll(k, "_", "-")] = v
		}
	}
	if fm.Title != "" {
		props["name"] = []any{fm.Title}
	}
	if fm.Description != "" {
		props["summary"] = []any{fm.Description}
	}
	if fm.Date != nil {
		props["published"] = []any{fm.Date.UTC().Format(time.RFC3339)}
	}
	if fm.Updated != nil {
		props["updated"] = []any{fm.Updated.UTC().Format(time.RFC3339)}
	}
	if tags := fm.Taxonomies["tag"]; len(tags) > 0 {
		values := make([]any, len(tags))
		for i, tag := range tags {
			values[i] = tag
		}
		props["category"] = values
	}
	if strings.TrimSpace(doc.Body) != "" {
		props["content"] = []any{map[string]any{"markdown": doc.Body}}
	}

	return &Object{Type: []string{"h-entry"}, Properties: props}
}

// Apply folds properties into the document. In add mode list-valued
// properties (category, extra) append to existing values; single-valued ones
// always overwrite. Empty value lists are a no-op, not an error.
func Apply(doc *post.Document, props map[string][]any, addMode bool) error {
	fm := &doc.FrontMatter

	for k, v := range props {
		if len(v) == 0 {
			continue
		}

		switch k {
		case "name":
			s, err := stringValue(k, v[0])
			if err != nil {
				return err
			}
			fm.Title = s
		case "summary":
			s, err := stringValue(k, v[0])
			if err != nil {
				return err
			}
			fm.Description = s
		case "published":
			t, err := parseTime(k, v[0])
			if err != nil {
				return err
			}
			fm.Date = &t
		case "updated":
			t, err := parseTime(k, v[0])
			if err != nil {
				return err
			}
			fm.Updated = &t
		case "category":
			tags, err := stringList(k, v)
			if err != nil {
				return err
			}
			if fm.Taxonomies == nil {
				fm.Taxonomies = map[string][]string{}
			}
			if addMode && len(fm.Taxonomies["tag"]) > 0 {
				fm.Taxonomies["tag"] = append(fm.Taxonomies["tag"], tags...)
			} else {
				fm.Taxonomies["tag"] = tags
			}
		case "content":
			body, err := contentText(v[0])
			if err != nil {
				return err
			}
			doc.Body = body
		case "url":
			// Read-only identifier, never settable.
		default:
			key := strings.ReplaceAll(k, "-", "_")
			if fm.Extra == nil {
				fm.Extra = map[string][]any{}
			}
			if addMode && len(fm.Extra[key]) > 0 {
				fm.Extra[key] = append(fm.Extra[key], v...)
			} else {
				fm.Extra[key] = append([]any(nil), v...)
			}
		}
	}

	return nil
}

// contentText extracts the body text from a content value: a raw string, or
// an object keyed by text/value/markdown/html in that precedence order.
func contentText(v any) (string, error) {
	switch c := v.(type) {
	case string:
		return c, nil
	case map[string]any:
		for _, key := range []string{"text", "value", "markdown", "html"} {
			if raw, ok := c[key]; ok {
				if s, ok := raw.(string); ok {
					return s, nil
				}
			}
		}
	}
	return "", ErrInvalidContent
}

func stringValue(name string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: property %q must be string-valued", ErrInvalidRequest, name)
	}
	return s, nil
}

func stringList(name string, values []any) ([]string, error) {
	out := make([]string, len(values))
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%w: property %q must be string-valued", ErrInvalidRequest, name)
		}
		out[i] = s
	}
	return out, nil
}

// parseTime accepts RFC 3339, including a literal trailing Z, and a bare
// timestamp without zone (treated as UTC). Normalized to second precision.
func parseTime(name string, v any) (time.Time, error) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: property %q must be string-valued", ErrInvalidRequest, name)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return post.NormalizeTime(t), nil
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: property %q is not a valid timestamp", ErrInvalidRequest, name)
	}
	return post.NormalizeTime(t), nil
}
