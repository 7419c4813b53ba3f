package mf2

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/unrelentingtech/sellout/internal/post"
)

// DeleteProperties removes whole properties from the document. The published
// date and the body survive deletion; a post without them would not render.
// Unknown names map into the extra bag and deleting an absent key is a no-op.
func DeleteProperties(doc *post.Document, names []string) {
	fm := &doc.FrontMatter

	for _, k := range names {
		switch k {
		case "name":
			fm.Title = ""
		case "summary":
			fm.Description = ""
		case "updated":
			fm.Updated = nil
		case "category":
			if fm.Taxonomies != nil {
				delete(fm.Taxonomies, "tag")
				if len(fm.Taxonomies) == 0 {
					fm.Taxonomies = nil
				}
			}
		case "published", "content", "url":
		default:
			if fm.Extra != nil {
				delete(fm.Extra, strings.ReplaceAll(k, "-", "_"))
				if len(fm.Extra) == 0 {
					fm.Extra = nil
				}
			}
		}
	}
}

// DeleteValues removes individual values from list-valued properties. Every
// value in the request must itself be a list; single-valued properties are
// accepted and left untouched. A key whose last value is removed disappears
// entirely.
func DeleteValues(doc *post.Document, props map[string]any) error {
	fm := &doc.FrontMatter

	for k, raw := range props {
		values, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("%w: each property must be a list, check '%s'", ErrInvalidRequest, k)
		}

		switch k {
		case "name", "summary", "published", "updated", "content", "url":
			// Not list-valued, nothing to subtract from.
		case "category":
			if fm.Taxonomies == nil {
				continue
			}
			var keep []string
			for _, tag := range fm.Taxonomies["tag"] {
				if !containsValue(values, tag) {
					keep = append(keep, tag)
				}
			}
			if len(keep) == 0 {
				delete(fm.Taxonomies, "tag")
				if len(fm.Taxonomies) == 0 {
					fm.Taxonomies = nil
				}
			} else {
				fm.Taxonomies["tag"] = keep
			}
		default:
			key := strings.ReplaceAll(k, "-", "_")
			if fm.Extra == nil {
				continue
			}
			existing, ok := fm.Extra[key]
			if !ok {
				continue
			}
			var keep []any
			for _, item := range existing {
				if !containsValue(values, item) {
					keep = append(keep, item)
				}
			}
			if len(keep) == 0 {
				delete(fm.Extra, key)
				if len(fm.Extra) == 0 {
					fm.Extra = nil
				}
			} else {
				fm.Extra[key] = keep
			}
		}
	}

	return nil
}

func containsValue(values []any, item any) bool {
	for _, v := range values {
		if reflect.DeepEqual(v, item) {
			return true
		}
	}
	return false
}
