// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package magiclink implements passwordless login via emailed one-time links.
package magiclink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/email"
	"github.com/hireloop/hireloop/internal/services/ratelimit"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/services/token"
)

var (
	// ErrInvalidEmail is returned when the submitted address is not a valid
	// email address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrRateLimited is returned when the account exceeded its request quota.
	ErrRateLimited = errors.New("too many magic link requests")
	// ErrInvalidToken is returned when a token is unknown, consumed or does
	// not verify.
	ErrInvalidToken = errors.New("invalid magic link token")
	// ErrExpiredToken is returned when a token exists but has expired.
	ErrExpiredToken = errors.New("expired magic link token")
)

const sendTimeout = 10 * time.Second

// Service implements the magic-link login flow.
type Service struct {
	repo    *repository.Repository
	sender  email.Sender
	limiter *ratelimit.Limiter
	events  *seclog.Logger
	log     *slog.Logger
	baseURL string
	expiry  time.Duration
}

// NewService creates a magic-link service.
func NewService(
	repo *repository.Repository,
	sender email.Sender,
	limiter *ratelimit.Limiter,
	events *seclog.Logger,
	log *slog.Logger,
	baseURL string,
	expiry time.Duration,
) *Service {
	return &Service{
		repo:    repo,
		sender:  sender,
		limiter: limiter,
		events:  events,
		log:     log,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		expiry:  expiry,
	}
}

// Request issues a magic link for the given address. Unknown addresses are
// auto-provisioned as candidate accounts. For inactive accounts the call
// reports success without sending anything, so callers cannot probe account
// status. Only ErrInvalidEmail and ErrRateLimited distinguish outcomes to the
// client.
func (s *Service) Request(ctx context.Context, address string, meta seclog.RequestMeta) error {
	normalized, err := NormalizeEmail(address)
	if err != nil {
		return ErrInvalidEmail
	}

	user, err := s.repo.FindOrCreateUser(ctx, normalized)
	if err != nil {
		return fmt.Errorf("resolving user: %w", err)
	}

	// Rate limiting runs before the active check so that both paths cost
	// the same quota and time.
	if !s.limiter.AllowUser(user.ID) {
		s.events.Failure(ctx, seclog.EventRateLimited, &user.ID, normalized, meta, "magic link request quota exceeded")
		return ErrRateLimited
	}

	if !user.IsActive {
		s.events.Failure(ctx, seclog.EventMagicLinkRequested, &user.ID, normalized, meta, "account inactive")
		return nil
	}

	raw, hash, err := token.Generate()
	if err != nil {
		return fmt.Errorf("generating token: %w", err)
	}

	t := &models.MagicLinkToken{
		UserID:    user.ID,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(s.expiry).UTC(),
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
	}
	if err := s.repo.CreateMagicLinkToken(ctx, t); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}

	loginURL := fmt.Sprintf("%s/auth/verify?token=%s", s.baseURL, raw)
	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	if err := s.sender.SendMagicLink(sendCtx, normalized, loginURL, int(s.expiry.Minutes())); err != nil {
		// Delivery failures stay server-side. The client still sees
		// success and may simply request again.
		s.log.Error("failed to send magic link email", "email", normalized, "error", err)
	}

	s.events.Success(ctx, seclog.EventMagicLinkRequested, &user.ID, normalized, meta)
	return nil
}

// Verify redeems a magic-link token. On success the token is consumed, the
// user's email is marked verified and the user is returned for session
// issuance. A consumed or unknown token yields ErrInvalidToken; an expired
// one yields ErrExpiredToken.
func (s *Service) Verify(ctx context.Context, rawToken string, meta seclog.RequestMeta) (*models.User, error) {
	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	t, err := s.repo.GetMagicLinkTokenByHash(ctx, token.Hash(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.events.Failure(ctx, seclog.EventMagicLinkInvalid, nil, "", meta, "unknown token")
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("loading token: %w", err)
	}

	if t.ConsumedAt != nil {
		s.events.Failure(ctx, seclog.EventMagicLinkInvalid, &t.UserID, "", meta, "token already consumed")
		return nil, ErrInvalidToken
	}
	if time.Now().After(t.ExpiresAt) {
		s.events.Failure(ctx, seclog.EventMagicLinkExpired, &t.UserID, "", meta, "token expired")
		return nil, ErrExpiredToken
	}

	consumed, err := s.repo.ConsumeMagicLinkToken(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("consuming token: %w", err)
	}
	if !consumed {
		// A concurrent verify won the race for this token.
		s.events.Failure(ctx, seclog.EventMagicLinkInvalid, &t.UserID, "", meta, "token already consumed")
		return nil, ErrInvalidToken
	}

	user, err := s.repo.GetUserByID(ctx, t.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if !user.IsActive {
		s.events.Failure(ctx, seclog.EventMagicLinkInvalid, &user.ID, user.Email, meta, "account inactive")
		return nil, ErrInvalidToken
	}

	if !user.EmailVerified {
		if err := s.repo.MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("marking email verified: %w", err)
		}
		user.EmailVerified = true
	}

	s.events.Success(ctx, seclog.EventMagicLinkVerified, &user.ID, user.Email, meta)
	return user, nil
}

// DeleteExpiredTokens removes expired magic-link tokens. Run periodically.
func (s *Service) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredMagicLinkTokens(ctx)
}

// NormalizeEmail lowercases and trims an address and validates its shape.
func NormalizeEmail(address string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(address))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	parsed, err := mail.ParseAddress(normalized)
	if err != nil || parsed.Address != normalized {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}
