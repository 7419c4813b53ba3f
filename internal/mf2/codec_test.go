package mf2

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unrelentingtech/sellout/internal/post"
)

func TestValidate(t *testing.T) {
	ok := &Object{
		Type: []string{"h-entry"},
		Properties: map[string][]any{
			"name":    {"Hi"},
			"content": {map[string]any{"markdown": "x"}},
		},
	}
	assert.NoError(t, ok.Validate())

	noType := &Object{Properties: map[string][]any{"name": {"Hi"}}}
	assert.ErrorIs(t, noType.Validate(), ErrInvalidRequest)

	badValue := &Object{
		Type:       []string{"h-entry"},
		Properties: map[string][]any{"name": {42.0}},
	}
	assert.ErrorIs(t, badValue.Validate(), ErrInvalidRequest)
}

func TestEncode(t *testing.T) {
	date := time.Date(2024, 4, 1, 9, 30, 0, 0, time.UTC)
	updated := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)
	doc := &post.Document{
		FrontMatter: post.FrontMatter{
			Title:       "Hello",
			Description: "summary here",
			Date:        &date,
			Updated:     &updated,
			Taxonomies:  map[string][]string{"tag": {"go", "web"}},
			Extra: map[string][]any{
				"in_reply_to": {"https://other.example/post"},
				"empty":       {},
			},
		},
		Body: "Some text.\n",
	}

	obj := Encode(doc)
	assert.Equal(t, []string{"h-entry"}, obj.Type)
	assert.Equal(t, []any{"Hello"}, obj.Properties["name"])
	assert.Equal(t, []any{"summary here"}, obj.Properties["summary"])
	assert.Equal(t, []any{"2024-04-01T09:30:00Z"}, obj.Properties["published"])
	assert.Equal(t, []any{"2024-04-02T10:00:00Z"}, obj.Properties["updated"])
	assert.Equal(t, []any{"go", "web"}, obj.Properties["category"])
	assert.Equal(t, []any{map[string]any{"markdown": "Some text.\n"}}, obj.Properties["content"])
	assert.Equal(t, []any{"https://other.example/post"}, obj.Properties["in-reply-to"])
	assert.NotContains(t, obj.Properties, "empty")
}

func TestEncode_BlankBodyHasNoContent(t *testing.T) {
	obj := Encode(&post.Document{Body: "  \n"})
	assert.NotContains(t, obj.Properties, "content")
}

func TestApply_Replace(t *testing.T) {
	doc := &post.Document{
		FrontMatter: post.FrontMatter{
			Title:      "old",
			Taxonomies: map[string][]string{"tag": {"old"}},
		},
		Body: "old body",
	}

	err := Apply(doc, map[string][]any{
		"name":      {"new title"},
		"summary":   {"new summary"},
		"published": {"2024-04-01T09:30:00Z"},
		"updated":   {"2024-04-02T10:00:00+02:00"},
		"category":  {"fresh"},
		"content":   {"new body"},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, "new title", doc.FrontMatter.Title)
	assert.Equal(t, "new summary", doc.FrontMatter.Description)
	require.NotNil(t, doc.FrontMatter.Date)
	assert.Equal(t, "2024-04-01T09:30:00Z", doc.FrontMatter.Date.Format(time.RFC3339))
	require.NotNil(t, doc.FrontMatter.Updated)
	assert.Equal(t, "2024-04-02T08:00:00Z", doc.FrontMatter.Updated.UTC().Format(time.RFC3339))
	assert.Equal(t, []string{"fresh"}, doc.FrontMatter.Taxonomies["tag"])
	assert.Equal(t, "new body", doc.Body)
}

func TestApply_AddAppendsToLists(t *testing.T) {
	doc := &post.Document{
		FrontMatter: post.FrontMatter{
			Taxonomies: map[string][]string{"tag": {"one"}},
			Extra:      map[string][]any{"syndication": {"https://a.example/1"}},
		},
	}

	err := Apply(doc, map[string][]any{
		"category":    {"two"},
		"syndication": {"https://b.example/2"},
	}, true)
	require.NoError(t, err)

	assert.Equal(t, []string{"one", "two"}, doc.FrontMatter.Taxonomies["tag"])
	assert.Equal(t, []any{"https://a.example/1", "https://b.example/2"}, doc.FrontMatter.Extra["syndication"])
}

func TestApply_ExtraKeysUnderscored(t *testing.T) {
	doc := &post.Document{}

	err := Apply(doc, map[string][]any{
		"in-reply-to": {"https://other.example/post"},
	}, false)
	require.NoError(t, err)

	assert.Equal(t, []any{"https://other.example/post"}, doc.FrontMatter.Extra["in_reply_to"])
}

func TestApply_ContentForms(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"plain string", "just text", "just text"},
		{"text key", map[string]any{"text": "from text"}, "from text"},
		{"value key", map[string]any{"value": "from value"}, "from value"},
		{"markdown key", map[string]any{"markdown": "from markdown"}, "from markdown"},
		{"html key", map[string]any{"html": "<p>from html</p>"}, "<p>from html</p>"},
		{"text wins over html", map[string]any{"html": "<p>h</p>", "text": "t"}, "t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &post.Document{}
			err := Apply(doc, map[string][]any{"content": {tt.value}}, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, doc.Body)
		})
	}
}

func TestApply_UnusableContentRejected(t *testing.T) {
	doc := &post.Document{}
	err := Apply(doc, map[string][]any{"content": {map[string]any{"lang": "en"}}}, false)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestApply_EmptyListIsNoOp(t *testing.T) {
	doc := &post.Document{FrontMatter: post.FrontMatter{Title: "keep"}}
	require.NoError(t, Apply(doc, map[string][]any{"name": {}}, false))
	assert.Equal(t, "keep", doc.FrontMatter.Title)
}

func TestApply_URLIgnored(t *testing.T) {
	doc := &post.Document{}
	require.NoError(t, Apply(doc, map[string][]any{"url": {"https://me.example/x"}, "name": {"t"}}, false))
	assert.Equal(t, "t", doc.FrontMatter.Title)
	assert.NotContains(t, doc.FrontMatter.Extra, "url")
}

func TestApply_NaiveTimestamp(t *testing.T) {
	doc := &post.Document{}
	require.NoError(t, Apply(doc, map[string][]any{"published": {"2024-04-01T09:30:00"}}, false))
	require.NotNil(t, doc.FrontMatter.Date)
	assert.Equal(t, "2024-04-01T09:30:00Z", doc.FrontMatter.Date.Format(time.RFC3339))
}

func TestApply_BadTimestamp(t *testing.T) {
	doc := &post.Document{}
	assert.ErrorIs(t, Apply(doc, map[string][]any{"published": {"not a date"}}, false), ErrInvalidRequest)
}
