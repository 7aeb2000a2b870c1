// internal/app/system/hosturl/hosturl.go
//
// Package hosturl rewrites stored file URLs onto the host serving the
// current request. Upload URLs are persisted with whatever host the server
// ran on at upload time; after a move or behind a proxy those hosts go
// stale. The rewrite is presentation-only: read paths call it on the way
// out and stored documents are untouched unless a migration explicitly
// saves the result.
package hosturl

import (
	"net/http"
	"net/url"
	"strings"
)

// Rewrite maps fileURL onto base (scheme://host, no trailing slash).
// Host-relative paths are prefixed with base; absolute URLs pointing at a
// localhost variant get their scheme and host replaced, path preserved.
// URLs already on an external host, and unparseable values, pass through
// unchanged.
func Rewrite(fileURL, base string) string {
	if fileURL == "" || base == "" {
		return fileURL
	}
	if strings.HasPrefix(fileURL, "/") {
		return base + fileURL
	}

	u, err := url.Parse(fileURL)
	if err != nil || u.Host == "" {
		return fileURL
	}
	if !isLocalHost(u.Hostname()) {
		return fileURL
	}

	b, err := url.Parse(base)
	if err != nil {
		return fileURL
	}
	u.Scheme = b.Scheme
	u.Host = b.Host
	return u.String()
}

// RequestBase derives the rewrite base from an incoming request, honoring
// the X-Forwarded-Proto header set by TLS-terminating proxies.
func RequestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}

func isLocalHost(host string) bool {
	switch host {
	case "localhost", "127.0.0.1", "0.0.0.0", "::1":
		return true
	}
	return false
}
