package urlutil

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Canonicalize validates an absolute http(s) URL and converts it to a stable
// form: lowercase scheme and host, no default port, clean path, sorted query
// and no fragment.
func Canonicalize(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid URL: scheme must be http or https")
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL: missing host")
	}

	u.Host = strings.TrimSuffix(strings.ToLower(u.Host), ".")
	if (u.Scheme == "http" && strings.HasSuffix(u.Host, ":80")) ||
		(u.Scheme == "https" && strings.HasSuffix(u.Host, ":443")) {
		u.Host = u.Host[:strings.LastIndex(u.Host, ":")]
	}

	if u.Path == "" {
		u.Path = "/"
	}
	u.Path = normalizePath(u.Path)
	u.RawPath = ""
	u.RawQuery = NormalizeQuery(u.RawQuery)
	u.Fragment = ""

	return u.String(), nil
}

// Hash returns the XXHash64 of s as 16 hex digits.
func Hash(s string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(s))
}

func normalizePath(path string) string {
	parts := strings.Split(path, "/")
	resolved := make([]string, 0, len(parts))

	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(resolved) > 0 {
				resolved = resolved[:len(resolved)-1]
			}
		default:
			resolved = append(resolved, part)
		}
	}

	result := "/" + strings.Join(resolved, "/")
	if len(result) > 1 && strings.HasSuffix(path, "/") {
		result += "/"
	}
	return result
}

// NormalizeQuery sorts query parameters by key so equivalent URLs compare equal.
func NormalizeQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		for _, value := range values[key] {
			if value == "" {
				parts = append(parts, url.QueryEscape(key))
			} else {
				parts = append(parts, url.QueryEscape(key)+"="+url.QueryEscape(value))
			}
		}
	}
	return strings.Join(parts, "&")
}
