package hasher

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hasher computes a content digest of image bytes.
type Hasher interface {
	Hash(data []byte) string
}

// SHA256 hashes with SHA-256 and returns the lowercase hex digest.
// Empty input yields the digest of the empty string.
type SHA256 struct{}

// Hash returns the hex-encoded SHA-256 digest of data.
func (SHA256) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
