package requestid

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// Header carries the request id in both directions.
const Header = "X-Request-ID"

const (
	// MaxRequestIDLength is the maximum total length (same as UUID: 36 chars)
	MaxRequestIDLength = 36
	// PrefixLength is the length of the random prefix
	PrefixLength = 5
	// MaxCustomIDLength is the max length of the sanitized caller-supplied part
	MaxCustomIDLength = MaxRequestIDLength - PrefixLength - 1
)

var (
	invalidCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9-]+`)
	hyphenRunRegex    = regexp.MustCompile(`-+`)
)

// GenerateRequestID builds a request id from an optional caller-supplied one.
// The caller's id is reduced to [a-zA-Z0-9-] and prefixed with 5 random
// characters: {prefix}-{custom}. Without a usable custom id a UUID is returned.
// Ids never exceed MaxRequestIDLength.
func GenerateRequestID(customID string) string {
	sanitized := sanitize(customID)
	if sanitized == "" {
		return uuid.New().String()
	}

	if len(sanitized) > MaxCustomIDLength {
		sanitized = strings.TrimSuffix(sanitized[:MaxCustomIDLength], "-")
	}
	return randomPrefix() + "-" + sanitized
}

// FromRequest assigns the request its id, deriving it from an incoming
// X-Request-ID when present, and echoes it in the response header.
func FromRequest(ctx *fasthttp.RequestCtx) string {
	id := GenerateRequestID(string(ctx.Request.Header.Peek(Header)))
	ctx.Response.Header.Set(Header, id)
	return id
}

func sanitize(id string) string {
	id = strings.ReplaceAll(id, " ", "-")
	id = invalidCharsRegex.ReplaceAllString(id, "")
	id = hyphenRunRegex.ReplaceAllString(id, "-")
	return strings.Trim(id, "-")
}

func randomPrefix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return uuid.New().String()[:PrefixLength]
	}
	return hex.EncodeToString(buf)[:PrefixLength]
}
