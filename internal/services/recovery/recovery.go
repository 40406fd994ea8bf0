// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package recovery generates and hashes MFA recovery codes.
package recovery

import (
	"crypto/rand"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// CodeLength is the length of each recovery code.
	CodeLength = 8
	// CodeCount is the number of recovery codes issued per MFA enrollment.
	CodeCount = 10
	// bcryptCost is the cost factor for bcrypt hashing.
	bcryptCost = 10
)

// alphabet for recovery codes: uppercase alphanumeric.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Service handles recovery code generation and hashing.
type Service struct{}

// NewService creates a new recovery service.
func NewService() *Service {
	return &Service{}
}

// GenerateCodes generates CodeCount recovery codes and their hashes.
// Returns (plaintext codes for one-time display, hashed codes for storage,
// error). The plaintexts cannot be recovered afterwards.
func (s *Service) GenerateCodes() ([]string, []string, error) {
	plaintexts := make([]string, CodeCount)
	hashes := make([]string, CodeCount)

	for i := range CodeCount {
		code, err := generateCode(CodeLength)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to generate code: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(code), bcryptCost)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to hash code: %w", err)
		}

		plaintexts[i] = code
		hashes[i] = string(hash)
	}

	return plaintexts, hashes, nil
}

// Normalize trims whitespace and upper-cases a user-supplied code so
// comparisons are case-insensitive.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// generateCode generates a random code of the specified length.
func generateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}

	return string(buf), nil
}
