// Package checksum fingerprints stored values and HTTP responses.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ETag returns a strong entity tag for data: the first 16 hex digits of
// its digest, quoted.
func ETag(data []byte) string {
	return `"` + Sum(data)[:16] + `"`
}

// MatchesAny reports whether an If-None-Match header value names etag.
// "*" matches anything.
func MatchesAny(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}
