// internal/app/policy/submitpolicy/extensions.go
package submitpolicy

import (
	"path"
	"strings"
)

// extensionAliases expands each configured extension with its common
// spelling variants, so an assignment allowing ".jpg" also admits files
// named ".jpeg", and case variants of office/document types are accepted.
// This table is configuration, not logic: entries mirror what the intake
// form historically accepted.
var extensionAliases = map[string][]string{
	".jpg":  {".jpeg", ".jpe", ".jfif"},
	".jpeg": {".jpg", ".jpe", ".jfif"},
	".png":  {".PNG"},
	".pdf":  {".PDF"},
	".doc":  {".DOC"},
	".docx": {".DOCX"},
	".txt":  {".TXT"},
	".mp4":  {".MP4"},
	".avi":  {".AVI"},
	".mov":  {".MOV"},
}

// NormalizeExtensions turns a comma-separated extension string into the
// canonical stored set: tokens trimmed and lowercased, empties dropped,
// dot-prefixed, alias-expanded, deduplicated. Feeding the joined result
// back in returns the same set.
func NormalizeExtensions(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return NormalizeExtensionList(strings.Split(s, ","))
}

// NormalizeExtensionList is NormalizeExtensions for callers that already
// hold a slice of tokens. Individual tokens may themselves be comma-joined
// (legacy documents stored the whole form value as one element).
func NormalizeExtensionList(tokens []string) []string {
	var split []string
	for _, t := range tokens {
		split = append(split, strings.Split(t, ",")...)
	}

	var exts []string
	for _, t := range split {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if !strings.HasPrefix(t, ".") {
			t = "." + t
		}
		exts = append(exts, t)
	}

	seen := make(map[string]struct{}, len(exts)*2)
	var out []string
	add := func(e string) {
		if _, dup := seen[e]; dup {
			return
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	for _, e := range exts {
		add(e)
	}
	for _, e := range exts {
		for _, alias := range extensionAliases[e] {
			add(alias)
		}
	}
	return out
}

// fileExtension returns the lowercased extension of a filename, taken from
// the last dot (including the dot itself). Empty when the name has no
// extension.
func fileExtension(name string) string {
	return strings.ToLower(path.Ext(name))
}

// extensionAllowed reports whether ext is a member of the normalized
// allowed set. Comparison is exact against the stored set; case handling
// comes from the alias expansion plus the lowercasing of the candidate.
func extensionAllowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}
