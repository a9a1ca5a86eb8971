// Package urls provides URL canonicalization shared by products and links.
package urls

import (
	"net/url"
	"strings"
)

// Normalize returns the canonical form of a URL:
//   - an empty path becomes "/"
//   - a non-root path without a trailing slash gets one appended
//   - scheme, host, query and fragment are preserved verbatim
//
// An empty input returns an empty string. An unparseable input is returned
// unchanged, since link tracking must not hard-fail campaign operations.
// Normalize is idempotent.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	} else if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	return parsed.String()
}
