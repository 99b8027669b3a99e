// ABOUTME: API key format, generation, and hashing for agentgate credentials
// ABOUTME: Keys are qbk_-prefixed secrets stored only as hex SHA-256 digests

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// KeyPrefix is the fixed textual prefix of every issued API key.
const KeyPrefix = "qbk_"

// minKeyBodyLen is the minimum number of characters after the prefix.
const minKeyBodyLen = 20

// keyRandomBytes is the entropy used when generating new keys (hex-encoded,
// so the body is twice this many characters).
const keyRandomBytes = 20

// GenerateKey mints a new API key secret. The caller must show it to the
// operator immediately; only its digest is ever persisted.
func GenerateKey() (string, error) {
	buf := make([]byte, keyRandomBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating key material: %w", err)
	}
	return KeyPrefix + hex.EncodeToString(buf), nil
}

// HashKey returns the hex SHA-256 digest of a raw key. Credential lookup is
// by digest so the raw secret never reaches the database.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// ValidFormat reports whether raw looks like an issued key: the fixed
// prefix followed by at least minKeyBodyLen characters. Format checking is
// deliberately shallow; anything plausible proceeds to the digest lookup.
func ValidFormat(raw string) bool {
	if !strings.HasPrefix(raw, KeyPrefix) {
		return false
	}
	return len(raw)-len(KeyPrefix) >= minKeyBodyLen
}
