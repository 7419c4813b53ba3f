// Package mf2 translates between microformats2-shaped property bags and the
// stored front-matter + body document, including the Micropub mutation verbs.
package mf2

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest is returned for payloads that don't fit the wire
	// shape. The shape is validated at the boundary instead of coerced.
	ErrInvalidRequest = errors.New("invalid_request")

	// ErrInvalidContent is returned when a content property carries no
	// recognized textual form.
	ErrInvalidContent = errors.New("content must be a string or an object with a 'text', 'value', 'markdown' or 'html' key")
)

// Object is a microformats2 object: a type list plus a property bag where
// every value list holds strings or nested objects.
type Object struct {
	Type       []string         `json:"type"`
	Properties map[string][]any `json:"properties"`
}

// Validate checks the wire shape: a non-empty type list, and property
// values limited to strings and objects.
func (o *Object) Validate() error {
	if len(o.Type) == 0 {
		return fmt.Errorf("%w: type must be a non-empty list", ErrInvalidRequest)
	}
	for name, values := range o.Properties {
		for _, v := range values {
			switch v.(type) {
			case string, map[string]any:
			default:
				return fmt.Errorf("%w: property %q has an unsupported value type", ErrInvalidRequest, name)
			}
		}
	}
	return nil
}
