// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package secretbox encrypts MFA secrets at rest with AES-256-GCM.
//
// The envelope is base64(nonce || ciphertext || tag); GCM authenticates the
// whole envelope, so any tampering fails decryption with ErrDecrypt instead
// of yielding corrupted plaintext.
package secretbox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned for any undecryptable envelope: wrong key, flipped
// bytes, truncation. Callers must treat it as "invalid", never retry with the
// partial output.
var ErrDecrypt = errors.New("secretbox: decryption failed")

// Box performs authenticated encryption with a fixed process-wide key.
type Box struct {
	key []byte
}

// New creates a Box from a 32-byte hex-encoded key.
func New(keyHex string) (*Box, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode hex key: %w", err)
	}
	if len(key) != 32 {
		return nil, errors.New("invalid key length: must be 32 bytes for AES-256")
	}
	return &Box{key: key}, nil
}

// Encrypt seals plaintext into a self-describing base64 envelope.
func (b *Box) Encrypt(plaintext []byte) (string, error) {
	gcm, err := b.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope produced by Encrypt. Any authentication or
// structural failure returns ErrDecrypt.
func (b *Box) Decrypt(envelope string) ([]byte, error) {
	gcm, err := b.aead()
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrDecrypt
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize {
		return nil, ErrDecrypt
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func (b *Box) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM cipher: %w", err)
	}
	return gcm, nil
}
