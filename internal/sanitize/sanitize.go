// Package sanitize filters help-section HTML down to the tags the in-game
// help renderer understands.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer removes every element and attribute outside the help
// allow-list. Safe for concurrent use.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

// NewHTMLSanitizer creates a sanitizer allowing b, i, u, strong, em, br, p,
// ul, ol, li, h3, h4, span, and a with an http(s) or mailto href. The only
// attribute kept on span is a plain class name; a span whose attributes are
// all stripped stays as a bare <span>.
func NewHTMLSanitizer() *HTMLSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements("b", "i", "u", "strong", "em", "br", "p", "ul", "ol", "li", "h3", "h4")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)).OnElements("span")

	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)

	return &HTMLSanitizer{policy: p}
}

// Sanitize returns html with disallowed markup removed. Text content of
// dropped elements is kept; script and style bodies are not.
func (s *HTMLSanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}

// Func adapts the sanitizer to the store's cleaner hook.
func (s *HTMLSanitizer) Func() func(string) string {
	return s.Sanitize
}
