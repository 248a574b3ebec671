package settings

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
)

// Fingerprint is base64(SHA-256(canonical JSON(settings))). encoding/json's
// struct field order is fixed by declaration order and its map key order is
// always sorted, so two Settings values that are equal produce byte-identical
// JSON and therefore identical fingerprints; unequal values differ with
// overwhelming probability once hashed.
func Fingerprint(s *Settings) (string, error) {
	canonical, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(sum[:]), nil
}
