// Package checksum computes the content digests used to detect unchanged sources.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Match reports whether data hashes to sum. An empty sum never matches.
func Match(data []byte, sum string) bool {
	return sum != "" && Sum(data) == sum
}
