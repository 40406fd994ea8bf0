// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package session issues and verifies browser session credentials. A
// credential is an encrypted, authenticated cookie produced by securecookie;
// the authoritative session state lives in the sessions table so that
// revocation and MFA upgrades take effect immediately.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/seclog"
)

var (
	// ErrInvalidCredential is returned when a cookie fails decoding or
	// authentication, or the claims inside it have expired.
	ErrInvalidCredential = errors.New("invalid session credential")
	// ErrSessionNotFound is returned when the credential is intact but the
	// server-side session no longer exists or has expired.
	ErrSessionNotFound = errors.New("session not found")
)

// Claims is the payload sealed inside the session cookie.
type Claims struct {
	SessionID   string      `json:"sid"`
	UserID      int64       `json:"uid"`
	Role        models.Role `json:"role"`
	MFAVerified bool        `json:"mfa"`
	ExpiresAt   time.Time   `json:"exp"`
}

// Valid reports whether the claims are well formed and unexpired.
func (c *Claims) Valid() bool {
	return c.SessionID != "" && c.UserID > 0 && c.Role.Valid() && time.Now().Before(c.ExpiresAt)
}

// Manager issues, verifies and revokes sessions.
type Manager struct {
	codec      *securecookie.SecureCookie
	repo       *repository.Repository
	events     *seclog.Logger
	cookieName string
	expiry     time.Duration
	secure     bool
}

// NewManager creates a session manager. hashKey and blockKey must each be 32
// bytes; the block key enables AES encryption of the cookie payload.
func NewManager(repo *repository.Repository, events *seclog.Logger, hashKey, blockKey []byte, cookieName string, expiry time.Duration, secure bool) (*Manager, error) {
	if len(hashKey) != 32 {
		return nil, fmt.Errorf("session hash key must be 32 bytes, got %d", len(hashKey))
	}
	if len(blockKey) != 32 {
		return nil, fmt.Errorf("session block key must be 32 bytes, got %d", len(blockKey))
	}

	codec := securecookie.New(hashKey, blockKey)
	codec.MaxAge(int(expiry.Seconds()))

	return &Manager{
		codec:      codec,
		repo:       repo,
		events:     events,
		cookieName: cookieName,
		expiry:     expiry,
		secure:     secure,
	}, nil
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Issue creates a session for the user and returns the cookie carrying its
// credential. mfaVerified is false for users who still owe a TOTP challenge.
func (m *Manager) Issue(ctx context.Context, user *models.User, mfaVerified bool) (*http.Cookie, *Claims, error) {
	claims := &Claims{
		SessionID:   uuid.NewString(),
		UserID:      user.ID,
		Role:        user.Role,
		MFAVerified: mfaVerified,
		ExpiresAt:   time.Now().Add(m.expiry).UTC(),
	}
	return m.issue(ctx, claims)
}

// Refresh re-issues the credential for an existing session, preserving its id
// and expiry but updating the MFA flag. Used to upgrade a pending session
// after a successful TOTP or recovery-code check.
func (m *Manager) Refresh(ctx context.Context, claims *Claims, mfaVerified bool) (*http.Cookie, *Claims, error) {
	next := &Claims{
		SessionID:   claims.SessionID,
		UserID:      claims.UserID,
		Role:        claims.Role,
		MFAVerified: mfaVerified,
		ExpiresAt:   claims.ExpiresAt,
	}
	return m.issue(ctx, next)
}

func (m *Manager) issue(ctx context.Context, claims *Claims) (*http.Cookie, *Claims, error) {
	if err := m.repo.UpsertSession(ctx, &models.Session{
		ID:          claims.SessionID,
		UserID:      claims.UserID,
		Role:        claims.Role,
		MFAVerified: claims.MFAVerified,
		ExpiresAt:   claims.ExpiresAt,
	}); err != nil {
		return nil, nil, fmt.Errorf("persisting session: %w", err)
	}

	encoded, err := m.codec.Encode(m.cookieName, claims)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding session credential: %w", err)
	}

	return m.cookie(encoded, claims.ExpiresAt), claims, nil
}

// Decode extracts claims from the request cookie without touching the
// database. Returns nil when the cookie is missing, tampered with or expired.
// This is the cheap check the edge route guard relies on.
func (m *Manager) Decode(r *http.Request) *Claims {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil {
		return nil
	}

	var claims Claims
	if err := m.codec.Decode(m.cookieName, cookie.Value, &claims); err != nil {
		return nil
	}
	if !claims.Valid() {
		return nil
	}
	return &claims
}

// Verify decodes the credential and cross-checks it against the server-side
// session record. The record wins on disagreement: a deleted or expired row
// invalidates an otherwise intact cookie.
func (m *Manager) Verify(ctx context.Context, r *http.Request) (*Claims, error) {
	claims := m.Decode(r)
	if claims == nil {
		return nil, ErrInvalidCredential
	}

	record, err := m.repo.GetSessionByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if time.Now().After(record.ExpiresAt) {
		meta := seclog.RequestMeta{IPAddress: r.RemoteAddr, UserAgent: r.UserAgent()}
		m.events.Failure(ctx, seclog.EventSessionExpired, &record.UserID, "", meta, "session expired")
		return nil, ErrSessionNotFound
	}
	if record.UserID != claims.UserID {
		return nil, ErrInvalidCredential
	}

	// The server record is authoritative for the MFA flag.
	claims.MFAVerified = record.MFAVerified
	return claims, nil
}

// Delete revokes a session by id. Revoking an unknown session is a no-op.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.repo.DeleteSession(ctx, sessionID)
}

// DeleteAllForUser revokes every session belonging to a user.
func (m *Manager) DeleteAllForUser(ctx context.Context, userID int64) error {
	return m.repo.DeleteUserSessions(ctx, userID)
}

// DeleteExpired removes expired session records. Run periodically.
func (m *Manager) DeleteExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpiredSessions(ctx)
}

// ClearCookie returns an expired cookie that removes the credential from the
// browser.
func (m *Manager) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) cookie(value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
