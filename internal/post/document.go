// Package post handles stored posts: the front-matter + body document shape
// and the version-controlled store they live in.
package post

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/pelletier/go-toml/v2"
)

// FrontMatter is the structured header of a stored post. Extra holds
// arbitrary list-valued properties that don't map to a named field.
type FrontMatter struct {
	Title       string              `toml:"title,omitempty"`
	Description string              `toml:"description,omitempty"`
	Date        *time.Time          `toml:"date,omitempty"`
	Updated     *time.Time          `toml:"updated,omitempty"`
	Slug        string              `toml:"slug,omitempty"`
	Taxonomies  map[string][]string `toml:"taxonomies,omitempty"`
	Extra       map[string][]any    `toml:"extra,omitempty"`
}

// Document is a post as stored in the content repository: TOML front matter
// fenced by +++ lines, followed by the body text.
type Document struct {
	FrontMatter FrontMatter
	Body        string
}

var fenceRe = regexp.MustCompile(`(?m)^\+{3,}\s*$`)

// Parse splits raw into front matter and body and decodes the front matter.
// The blank separator line Marshal emits after the closing fence is not part
// of the body, so parse-marshal round trips are byte-stable.
func Parse(raw []byte) (*Document, error) {
	parts := fenceRe.Split(string(raw), 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("document has no front matter fences")
	}

	var doc Document
	if err := toml.Unmarshal([]byte(parts[1]), &doc.FrontMatter); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}
	doc.Body = strings.TrimPrefix(parts[2], "\n")

	return &doc, nil
}

// Marshal serializes the document back into its on-disk shape.
func (d *Document) Marshal() ([]byte, error) {
	fm, err := toml.Marshal(d.FrontMatter)
	if err != nil {
		return nil, fmt.Errorf("failed to encode front matter: %w", err)
	}

	var b strings.Builder
	b.WriteString("+++\n")
	b.Write(fm)
	if len(fm) > 0 && fm[len(fm)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteString("+++\n")
	if !strings.HasPrefix(d.Body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(d.Body)

	return []byte(b.String()), nil
}

// BlobHash returns the git blob id of raw ("blob <len>\0" framing), which is
// exactly the version tag the git-backed store uses. Two clients hashing the
// same read bytes always agree on the CAS precondition.
func BlobHash(raw []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, raw).String()
}

// NormalizeTime brings a timestamp to the stored precision: UTC, seconds.
func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
