package identity

import (
	"crypto/sha256"
	"encoding/hex"
)

// PseudonymPrefix marks a desensitized patient name.
const PseudonymPrefix = "hash:"

// DesensitizeName replaces a patient name with a stable short pseudonym:
// the prefix plus the first 16 hex characters of the name's SHA-256
// digest. Empty input is returned unchanged. The digest is salt-free, so
// identical names map to identical pseudonyms across runs.
func DesensitizeName(name string) string {
	if name == "" {
		return name
	}
	sum := sha256.Sum256([]byte(name))
	return PseudonymPrefix + hex.EncodeToString(sum[:])[:16]
}
