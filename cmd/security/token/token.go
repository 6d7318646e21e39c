package token

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Equal compares two session tokens in constant time.
//
// Length is checked first: unequal lengths can never match, and the early
// return does not leak anything the caller cannot already observe from the
// token it holds. Equal-length inputs go through ConstantTimeCompare.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short, non-reversible identifier for a token,
// safe to include in logs and audit rows. Never log the token itself.
func Fingerprint(tokenStr string) string {
	if tokenStr == "" {
		return ""
	}
	return HashSHA256Hex(tokenStr)[:16]
}
