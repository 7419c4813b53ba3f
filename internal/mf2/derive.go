package mf2

import (
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/unrelentingtech/sellout/internal/post"
)

// DeriveTarget picks the category and slug for a new document. Titled posts
// become articles slugged from the title; replies, likes and photo posts get
// their own sections; everything else is a note. Untitled posts with no slug
// hint are slugged from the publish timestamp, and that slug is recorded in
// the front matter so the static site generator does not re-derive a
// conflicting one from the date.
func DeriveTarget(doc *post.Document, slugHint string) (category, postSlug string) {
	fm := &doc.FrontMatter

	switch {
	case fm.Title != "":
		category = "articles"
	case len(fm.Extra["in_reply_to"]) > 0:
		category = "replies"
	case len(fm.Extra["like_of"]) > 0:
		category = "likes"
	case len(fm.Extra["photo"]) > 0 && strings.TrimSpace(doc.Body) == "":
		category = "photos"
	default:
		category = "notes"
	}

	switch {
	case slugHint != "":
		postSlug = slug.Make(slugHint)
	case fm.Title != "":
		postSlug = slug.Make(fm.Title)
	default:
		ts := time.Now().UTC()
		if fm.Date != nil {
			ts = fm.Date.UTC()
		}
		postSlug = ts.Format("2006-01-02-15-04-05")
		fm.Slug = postSlug
	}

	return category, postSlug
}
