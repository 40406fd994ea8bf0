// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package mfa implements TOTP second-factor enrollment, challenges and
// recovery codes.
package mfa

import (
	"context"
	"errors"
	"fmt"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/recovery"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/services/secretbox"
	"github.com/hireloop/hireloop/internal/services/totp"
)

var (
	// ErrAlreadyEnabled is returned when enrollment is attempted on an
	// account that already has MFA.
	ErrAlreadyEnabled = errors.New("mfa already enabled")
	// ErrNotEnabled is returned when a challenge is attempted without MFA.
	ErrNotEnabled = errors.New("mfa not enabled")
	// ErrInvalidCode is returned when a TOTP code does not verify.
	ErrInvalidCode = errors.New("invalid mfa code")
	// ErrInvalidRecoveryCode is returned when a recovery code does not match.
	ErrInvalidRecoveryCode = errors.New("invalid recovery code")
)

// Service implements MFA enrollment and verification.
type Service struct {
	repo     *repository.Repository
	box      *secretbox.Box
	totp     *totp.Generator
	recovery *recovery.Service
	events   *seclog.Logger
}

// NewService creates an MFA service. box encrypts TOTP secrets at rest.
func NewService(repo *repository.Repository, box *secretbox.Box, issuer string, events *seclog.Logger) *Service {
	return &Service{
		repo:     repo,
		box:      box,
		totp:     totp.NewGenerator(issuer),
		recovery: recovery.NewService(),
		events:   events,
	}
}

// BeginSetup starts TOTP enrollment. The generated secret is handed to the
// client for the authenticator app and the confirmation round trip; nothing
// is persisted until ConfirmSetup proves the authenticator works, so an
// abandoned setup leaves no trace.
func (s *Service) BeginSetup(_ context.Context, user *models.User) (*totp.Enrollment, error) {
	if user.MFAEnabled {
		return nil, ErrAlreadyEnabled
	}

	enrollment, err := s.totp.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("generating totp secret: %w", err)
	}
	return enrollment, nil
}

// ConfirmSetup completes enrollment by checking a code from the user's
// authenticator against the not-yet-stored secret. On success the secret is
// encrypted and persisted, MFA is enabled and a fresh set of recovery codes
// is returned in plaintext, the only time they are ever visible.
func (s *Service) ConfirmSetup(ctx context.Context, user *models.User, secret, code string, meta seclog.RequestMeta) ([]string, error) {
	if user.MFAEnabled {
		return nil, ErrAlreadyEnabled
	}

	if !totp.Verify(secret, code) {
		s.events.Failure(ctx, seclog.EventMFAFailed, &user.ID, user.Email, meta, "setup confirmation code rejected")
		return nil, ErrInvalidCode
	}

	encrypted, err := s.box.Encrypt([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("encrypting totp secret: %w", err)
	}
	if err := s.repo.EnableUserMFA(ctx, user.ID, encrypted); err != nil {
		return nil, fmt.Errorf("enabling mfa: %w", err)
	}

	codes, hashes, err := s.recovery.GenerateCodes()
	if err != nil {
		return nil, fmt.Errorf("generating recovery codes: %w", err)
	}
	if err := s.repo.DeleteRecoveryCodes(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("clearing recovery codes: %w", err)
	}
	if err := s.repo.CreateRecoveryCodes(ctx, user.ID, hashes); err != nil {
		return nil, fmt.Errorf("storing recovery codes: %w", err)
	}

	s.events.Success(ctx, seclog.EventMFAEnabled, &user.ID, user.Email, meta)
	return codes, nil
}

// Verify checks a TOTP code for an enabled account.
func (s *Service) Verify(ctx context.Context, user *models.User, code string, meta seclog.RequestMeta) error {
	secret, err := s.enabledSecret(user)
	if err != nil {
		return err
	}

	if !totp.Verify(secret, code) {
		s.events.Failure(ctx, seclog.EventMFAFailed, &user.ID, user.Email, meta, "totp code rejected")
		return ErrInvalidCode
	}

	if err := s.repo.TouchMFAVerifiedAt(ctx, user.ID); err != nil {
		return fmt.Errorf("recording verification: %w", err)
	}
	s.events.Success(ctx, seclog.EventMFAVerified, &user.ID, user.Email, meta)
	return nil
}

// VerifyRecoveryCode checks and spends a recovery code. Each code works
// exactly once.
func (s *Service) VerifyRecoveryCode(ctx context.Context, user *models.User, code string, meta seclog.RequestMeta) error {
	if !user.MFAEnabled {
		return ErrNotEnabled
	}

	ok, err := s.repo.ValidateAndUseRecoveryCode(ctx, user.ID, recovery.Normalize(code))
	if err != nil {
		return fmt.Errorf("validating recovery code: %w", err)
	}
	if !ok {
		s.events.Failure(ctx, seclog.EventRecoveryCodeFailed, &user.ID, user.Email, meta, "recovery code rejected")
		return ErrInvalidRecoveryCode
	}

	if err := s.repo.TouchMFAVerifiedAt(ctx, user.ID); err != nil {
		return fmt.Errorf("recording verification: %w", err)
	}
	s.events.Success(ctx, seclog.EventRecoveryCodeUsed, &user.ID, user.Email, meta)
	return nil
}

// Disable turns MFA off. A valid current TOTP code is required so a stolen
// session alone cannot strip the second factor.
func (s *Service) Disable(ctx context.Context, user *models.User, code string, meta seclog.RequestMeta) error {
	secret, err := s.enabledSecret(user)
	if err != nil {
		return err
	}

	if !totp.Verify(secret, code) {
		s.events.Failure(ctx, seclog.EventMFAFailed, &user.ID, user.Email, meta, "disable code rejected")
		return ErrInvalidCode
	}

	if err := s.repo.DisableUserMFA(ctx, user.ID); err != nil {
		return fmt.Errorf("disabling mfa: %w", err)
	}
	if err := s.repo.DeleteRecoveryCodes(ctx, user.ID); err != nil {
		return fmt.Errorf("deleting recovery codes: %w", err)
	}

	s.events.Success(ctx, seclog.EventMFADisabled, &user.ID, user.Email, meta)
	return nil
}

// RecoveryCodesRemaining returns how many unused recovery codes the user has.
func (s *Service) RecoveryCodesRemaining(ctx context.Context, userID int64) (int64, error) {
	return s.repo.GetUnusedRecoveryCodeCount(ctx, userID)
}

func (s *Service) enabledSecret(user *models.User) (string, error) {
	if !user.MFAEnabled || user.MFASecret == nil {
		return "", ErrNotEnabled
	}
	return s.decryptSecret(*user.MFASecret)
}

func (s *Service) decryptSecret(encrypted string) (string, error) {
	plaintext, err := s.box.Decrypt(encrypted)
	if err != nil {
		return "", fmt.Errorf("decrypting totp secret: %w", err)
	}
	return string(plaintext), nil
}
