package catalogue

import (
	"bytes"
	"html"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

var (
	markdown          = goldmark.New()
	descriptionPolicy = newDescriptionPolicy()
	plainPolicy       = bluemonday.StrictPolicy()
)

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("p", "span", "em", "strong")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// RenderDescription converts inline Markdown to sanitized HTML.
func RenderDescription(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(strings.TrimSpace(descriptionPolicy.Sanitize(buf.String())))
}

// PlainText strips markup from rendered HTML, for notifications and the cart.
func PlainText(rendered template.HTML) string {
	text := plainPolicy.Sanitize(string(rendered))
	return strings.Join(strings.Fields(html.UnescapeString(text)), " ")
}
