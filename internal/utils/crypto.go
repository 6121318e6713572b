// internal/utils/crypto.go
package utils

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Checksum returns the hex SHA-256 of data, used to recognise repeated
// imports of the same spreadsheet.
func Checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func HashString(input string) string {
	return Checksum([]byte(input))
}

// SecureCompare compares secrets in constant time.
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(HashString(a)), []byte(HashString(b))) == 1
}
