// Package content prepares user-generated text for display.
package content

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	textPolicy  = bluemonday.StrictPolicy()
	eventPolicy = newEventHTMLPolicy()
	markdown    = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
)

// PlainText strips every tag from review and reply text.
func PlainText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(textPolicy.Sanitize(trimmed))
}

// EventHTML renders event markdown and sanitises the result. Text that
// fails to render is returned as sanitised plain text.
func EventHTML(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(trimmed), &buf); err != nil {
		return PlainText(trimmed)
	}
	return strings.TrimSpace(eventPolicy.Sanitize(buf.String()))
}

// Excerpt returns at most n runes of plain text, marking the cut.
func Excerpt(raw string, n int) string {
	text := []rune(PlainText(raw))
	if n <= 0 || len(text) <= n {
		return string(text)
	}
	return strings.TrimSpace(string(text[:n])) + "…"
}

func newEventHTMLPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("loading").OnElements("img")
	policy.RequireNoFollowOnLinks(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	return policy
}
