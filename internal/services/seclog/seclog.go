// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package seclog records security events to the append-only audit trail.
package seclog

import (
	"context"
	"log/slog"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/repository"
)

// Event types recorded in the audit trail.
const (
	EventMagicLinkRequested = "magic_link_requested"
	EventMagicLinkVerified  = "magic_link_verified"
	EventMagicLinkExpired   = "magic_link_expired"
	EventMagicLinkInvalid   = "magic_link_invalid"
	EventRateLimited        = "rate_limited"
	EventSessionCreated     = "session_created"
	EventSessionExpired     = "session_expired"
	EventLogout             = "logout"
	EventMFAEnabled         = "mfa_enabled"
	EventMFADisabled        = "mfa_disabled"
	EventMFAVerified        = "mfa_challenge_verified"
	EventMFAFailed          = "mfa_challenge_failed"
	EventRecoveryCodeUsed   = "recovery_code_used"
	EventRecoveryCodeFailed = "recovery_code_failed"
)

// RequestMeta carries the client attribution attached to every event.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// Logger writes security events. A write failure never propagates to the
// caller; losing one audit row must not abort the login that produced it.
type Logger struct {
	repo *repository.Repository
	log  *slog.Logger
}

// New creates a security event logger.
func New(repo *repository.Repository, log *slog.Logger) *Logger {
	return &Logger{repo: repo, log: log}
}

// Success records a successful event.
func (l *Logger) Success(ctx context.Context, eventType string, userID *int64, email string, meta RequestMeta) {
	l.write(ctx, eventType, userID, email, meta, true, nil)
}

// Failure records a failed event with a reason.
func (l *Logger) Failure(ctx context.Context, eventType string, userID *int64, email string, meta RequestMeta, reason string) {
	l.write(ctx, eventType, userID, email, meta, false, &reason)
}

func (l *Logger) write(ctx context.Context, eventType string, userID *int64, email string, meta RequestMeta, success bool, reason *string) {
	event := &models.SecurityEvent{
		EventType:     eventType,
		UserID:        userID,
		Email:         email,
		IPAddress:     meta.IPAddress,
		UserAgent:     meta.UserAgent,
		Success:       success,
		FailureReason: reason,
	}
	if err := l.repo.InsertSecurityEvent(ctx, event); err != nil {
		l.log.Error("failed to record security event",
			"event_type", eventType,
			"email", email,
			"error", err)
	}
}
