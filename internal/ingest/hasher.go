// Package ingest implements the lesson ingestion pipeline: content
// fingerprinting, genericity validation, subcategory classification,
// title/summary extraction, merge-or-create deduplication and
// similarity linking.
package ingest

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"unicode/utf8"
)

// Hash returns the lowercase 64-hex-char SHA-256 digest of content.
// The digest is the dedup key for lessons, so it must be computed over
// the exact UTF-8 bytes; malformed input is rejected rather than
// partially hashed.
func Hash(content string) (string, error) {
	if !utf8.ValidString(content) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:]), nil
}

// HashEqual compares two content hashes in constant time.
func HashEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
