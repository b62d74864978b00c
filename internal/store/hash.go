package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentHash returns the hex SHA-256 of a file's content, the key used to
// skip files whose recorded outcome still applies.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ConfigHash returns a stable hash of the settings that shape a rewrite.
// Parts are joined with a separator that cannot appear in them.
func ConfigHash(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h.Sum(nil))
}
