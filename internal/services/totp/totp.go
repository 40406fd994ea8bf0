// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package totp wraps RFC 6238 one-time-password generation and validation.
package totp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const (
	// SecretSize is the number of random bytes in a generated secret.
	SecretSize = 20
	// Period is the TOTP time step in seconds.
	Period = 30
	// Skew is the number of periods of clock drift accepted on either side.
	Skew = 1
	// Digits is the length of a valid code.
	Digits = 6

	qrSize = 200
)

// Enrollment is the provisioning material for an authenticator app. The
// secret is not persisted until setup is confirmed.
type Enrollment struct {
	Secret        string `json:"secret"`
	OTPAuthURI    string `json:"otpauth_uri"`
	QRCodeDataURL string `json:"qr_code_data_url"`
}

// Generator creates TOTP enrollments labelled with the configured issuer.
type Generator struct {
	issuer string
}

// NewGenerator creates a Generator. An empty issuer falls back to "Hireloop".
func NewGenerator(issuer string) *Generator {
	if issuer == "" {
		issuer = "Hireloop"
	}
	return &Generator{issuer: issuer}
}

// Generate creates a fresh random secret for the given account and renders
// the otpauth URI plus a QR code data URL for provisioning.
func (g *Generator) Generate(accountEmail string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      g.issuer,
		AccountName: accountEmail,
		SecretSize:  SecretSize,
		Period:      Period,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	img, err := key.Image(qrSize, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}

	return &Enrollment{
		Secret:        key.Secret(),
		OTPAuthURI:    key.URL(),
		QRCodeDataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Verify checks a 6-digit code against a base32 secret, accepting one period
// of clock skew on either side. Malformed input is rejected before any
// cryptographic work.
func Verify(secret, code string) bool {
	if !ValidFormat(code) {
		return false
	}

	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    Period,
		Skew:      Skew,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	if err != nil {
		// Bad secret encoding and similar problems count as a failed check,
		// not a caller-visible error.
		return false
	}
	return ok
}

// ValidFormat reports whether code looks like a TOTP code: exactly six ASCII
// digits.
func ValidFormat(code string) bool {
	if len(code) != Digits {
		return false
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
