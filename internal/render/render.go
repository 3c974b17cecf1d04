package render

import "strings"

// Markdown renders markdown content for terminal display with a pooled
// renderer.
func Markdown(content string, opts Options) (string, error) {
	r, pool, err := acquire(opts)
	if err != nil {
		return "", err
	}
	defer pool.Put(r)

	return r.Render(content)
}

// Answer renders a possibly partial assistant answer. Rendering failures
// fall back to the raw text, and glamour's trailing newlines are trimmed.
func Answer(content string, opts Options) string {
	if strings.TrimSpace(content) == "" {
		return content
	}
	rendered, err := Markdown(content, opts)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}
