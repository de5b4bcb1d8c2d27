package util

import (
	"crypto/sha256"
	"fmt"
)

// Fingerprint returns the SHA-256 hex digest of data. It is the
// content-addressable identity used for both monitor-level repeat
// suppression and the store's uniqueness constraint.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum)
}

// ShortHash returns a short prefix of a fingerprint for log output.
func ShortHash(hash string) string {
	if len(hash) <= 8 {
		return hash
	}
	return hash[:8]
}
