// ABOUTME: Markdown rendering for post content using goldmark
// ABOUTME: Raw HTML in the source is escaped rather than passed through

package blog

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts post content from markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer returns a renderer with GitHub flavored markdown enabled.
// goldmark omits raw HTML unless the unsafe option is set.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render returns the HTML form of source.
func (r *Renderer) Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}
