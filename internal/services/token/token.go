// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package token generates opaque magic-link tokens. Only the SHA256 digest
// is ever stored; the raw token exists in the login email and nowhere else.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Length is the number of random bytes in a raw token.
const Length = 32

// Generate returns a new raw token and the hash to store for it.
func Generate() (raw string, hash string, err error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	raw = hex.EncodeToString(buf)
	return raw, Hash(raw), nil
}

// Hash computes the SHA256 hex digest of a raw token.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
