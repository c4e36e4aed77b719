package services

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type markdownRenderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewBlogRenderer renders GitHub-flavoured Markdown and strips anything outside the
// user-generated-content allow list.
func NewBlogRenderer() BlogRenderer {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption")
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return &markdownRenderer{
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   policy,
	}
}

func (r *markdownRenderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render blog markdown: %w", err)
	}
	return string(r.policy.SanitizeBytes(buf.Bytes())), nil
}
