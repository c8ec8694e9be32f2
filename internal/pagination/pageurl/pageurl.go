// Package pageurl builds canonical paginated listing URLs.
//
// Page 1 is the listing itself. Every later page lives under a
// "/page/{N}/" segment with a mandatory trailing slash.
package pageurl

import (
	"regexp"
	"strconv"
	"strings"
)

// pageSegmentPattern matches a pagination path segment anywhere in a URL path.
var pageSegmentPattern = regexp.MustCompile(`/page/\d+/?`)

// NormalizeBase strips any existing pagination segment and trailing slashes.
// Query strings and fragments are kept untouched.
func NormalizeBase(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	path, suffix := splitSuffix(rawURL)
	path = pageSegmentPattern.ReplaceAllString(path, "/")
	path = strings.TrimRight(path, "/")

	return path + suffix
}

// Build returns the canonical URL of page on the listing at base.
// Pages below 2 map to the base URL itself.
func Build(base string, page int) string {
	base = NormalizeBase(base)
	if page <= 1 {
		return base
	}

	path, suffix := splitSuffix(base)
	return path + "/page/" + strconv.Itoa(page) + "/" + suffix
}

// splitSuffix separates "?query" or "#fragment" from the path part of a URL.
func splitSuffix(rawURL string) (string, string) {
	if idx := strings.IndexAny(rawURL, "?#"); idx != -1 {
		return rawURL[:idx], rawURL[idx:]
	}
	return rawURL, ""
}
