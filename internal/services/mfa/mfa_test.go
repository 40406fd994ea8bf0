// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package mfa_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/mfa"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/services/secretbox"
	"github.com/hireloop/hireloop/internal/testutil"
	pquerna "github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var meta = seclog.RequestMeta{IPAddress: "203.0.113.7", UserAgent: "test-agent"}

func newTestService(t *testing.T, repo *repository.Repository) *mfa.Service {
	t.Helper()
	box, err := secretbox.New(testutil.TestBoxKeyHex)
	require.NoError(t, err)
	return mfa.NewService(repo, box, "Hireloop", seclog.New(repo, slog.Default()))
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := pquerna.GenerateCode(secret, time.Now())
	require.NoError(t, err)
	return code
}

// enroll walks a user through setup and confirmation, returning the secret
// and recovery codes.
func enroll(t *testing.T, svc *mfa.Service, repo *repository.Repository, user *models.User) (string, []string) {
	t.Helper()
	ctx := context.Background()

	enrollment, err := svc.BeginSetup(ctx, user)
	require.NoError(t, err)

	codes, err := svc.ConfirmSetup(ctx, user, enrollment.Secret, currentCode(t, enrollment.Secret), meta)
	require.NoError(t, err)

	updated, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	*user = *updated

	return enrollment.Secret, codes
}

func TestBeginSetupStoresNothing(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	enrollment, err := svc.BeginSetup(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, enrollment.Secret)
	assert.NotEmpty(t, enrollment.QRCodeDataURL)

	// An abandoned setup leaves no trace on the account.
	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.MFASecret)
	assert.False(t, stored.MFAEnabled)
}

func TestConfirmSetupEnablesMFA(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	_, codes := enroll(t, svc, repo, user)

	assert.True(t, user.MFAEnabled)
	assert.Len(t, codes, 10)

	remaining, err := svc.RecoveryCodesRemaining(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 10, remaining)
}

func TestConfirmSetupRejectsWrongCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	enrollment, err := svc.BeginSetup(ctx, user)
	require.NoError(t, err)

	_, err = svc.ConfirmSetup(ctx, user, enrollment.Secret, "000000", meta)
	assert.ErrorIs(t, err, mfa.ErrInvalidCode)

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.MFAEnabled)
	assert.Nil(t, stored.MFASecret)
}

func TestConfirmSetupRejectsGarbageSecret(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	_, err := svc.ConfirmSetup(context.Background(), user, "not-base32!", "123456", meta)
	assert.ErrorIs(t, err, mfa.ErrInvalidCode)
}

func TestBeginSetupRejectsEnabledAccount(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	enroll(t, svc, repo, user)

	_, err := svc.BeginSetup(context.Background(), user)
	assert.ErrorIs(t, err, mfa.ErrAlreadyEnabled)
}

func TestVerify(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	secret, _ := enroll(t, svc, repo, user)

	assert.NoError(t, svc.Verify(ctx, user, currentCode(t, secret), meta))
	assert.ErrorIs(t, svc.Verify(ctx, user, "000000", meta), mfa.ErrInvalidCode)
}

func TestVerifyRequiresEnabledMFA(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	err := svc.Verify(context.Background(), user, "123456", meta)
	assert.ErrorIs(t, err, mfa.ErrNotEnabled)
}

func TestVerifyRecoveryCodeIsSingleUse(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	_, codes := enroll(t, svc, repo, user)

	require.NoError(t, svc.VerifyRecoveryCode(ctx, user, codes[0], meta))

	err := svc.VerifyRecoveryCode(ctx, user, codes[0], meta)
	assert.ErrorIs(t, err, mfa.ErrInvalidRecoveryCode)

	remaining, err := svc.RecoveryCodesRemaining(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 9, remaining)
}

func TestVerifyRecoveryCodeNormalizesInput(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	_, codes := enroll(t, svc, repo, user)

	lowered := "  " + codes[1] + " "
	assert.NoError(t, svc.VerifyRecoveryCode(ctx, user, lowered, meta))
}

func TestDisable(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := newTestService(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	secret, _ := enroll(t, svc, repo, user)

	// A wrong code must not disable anything.
	err := svc.Disable(ctx, user, "000000", meta)
	assert.ErrorIs(t, err, mfa.ErrInvalidCode)

	require.NoError(t, svc.Disable(ctx, user, currentCode(t, secret), meta))

	stored, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.MFAEnabled)
	assert.Nil(t, stored.MFASecret)

	remaining, err := svc.RecoveryCodesRemaining(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, remaining)
}
