// Package sha256 digests personal data before it reaches logs or event sinks.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Digest returns the hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Email digests an address after trimming and lower-casing it so the same
// mailbox always maps to the same digest. Empty input yields "".
func Email(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" {
		return ""
	}
	return Digest([]byte(addr))
}
