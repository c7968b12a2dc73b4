// Package review normalizes reader-submitted review text. Reviews pasted
// from other sites often arrive as HTML; they are sanitized and stored as
// Markdown.
package review

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
)

// htmlTagPattern detects the tags a pasted review is likely to carry.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|u|strong|em|a|ul|ol|li|h[1-6]|blockquote|script|style|img|iframe)[\s>/]`)

// Normalizer sanitizes and converts review text.
type Normalizer struct {
	policy *bluemonday.Policy
	strip  *bluemonday.Policy
}

// NewNormalizer returns a Normalizer using bluemonday's UGC policy.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		policy: bluemonday.UGCPolicy(),
		strip:  bluemonday.StrictPolicy(),
	}
}

// ContainsHTML reports whether s appears to contain HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Normalize trims s and, if it contains HTML, sanitizes it and converts it
// to Markdown. If conversion fails the text is stripped of all tags instead.
func (n *Normalizer) Normalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !ContainsHTML(s) {
		return s
	}

	clean := n.policy.Sanitize(s)
	markdown, err := htmltomarkdown.ConvertString(clean)
	if err != nil {
		return strings.TrimSpace(n.strip.Sanitize(clean))
	}
	return strings.TrimSpace(markdown)
}
