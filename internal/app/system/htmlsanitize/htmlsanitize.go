// internal/app/system/htmlsanitize/htmlsanitize.go
//
// Package htmlsanitize strips unsafe markup from user-authored rich text.
// Note bodies and comments arrive from a browser editor and are stored and
// served back as HTML, so everything script-bearing has to go at write time.
package htmlsanitize

import (
	"github.com/microcosm-cc/bluemonday"
)

var policy = buildPolicy()

func buildPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()

	// Editor output beyond the UGC baseline.
	p.AllowElements("u", "s", "sub", "sup", "mark")
	p.AllowAttrs("class").OnElements(
		"table", "thead", "tbody", "tr", "th", "td",
		"p", "span", "div", "pre", "code",
	)
	p.AllowAttrs("colspan", "rowspan").OnElements("th", "td")

	return p
}

// Sanitize returns s with disallowed elements and attributes removed.
// Safe to call on plain text; it passes through unchanged.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}
