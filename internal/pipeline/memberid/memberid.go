// Package memberid derives member identifiers for accepted records.
package memberid

import (
	"crypto/sha256"
	"encoding/hex"
)

const hashPrefixLen = 5

// Hash returns the hex SHA-256 digest of the canonical date of birth.
func Hash(dob string) string {
	h := sha256.New()
	h.Write([]byte(dob))
	return hex.EncodeToString(h.Sum(nil))
}

// Generate returns "<lastName>_<first 5 hex chars of sha256(dob)>". Two
// members sharing a last name and date of birth get the same identifier.
// Callers only invoke it for accepted records.
func Generate(lastName, dob string) string {
	return lastName + "_" + Hash(dob)[:hashPrefixLen]
}
