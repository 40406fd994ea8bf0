// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package magiclink_test

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/magiclink"
	"github.com/hireloop/hireloop/internal/services/ratelimit"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSender records outbound magic-link mails instead of sending them.
type fakeSender struct {
	to       []string
	loginURL string
}

func (f *fakeSender) SendMagicLink(_ context.Context, toEmail, loginURL string, _ int) error {
	f.to = append(f.to, toEmail)
	f.loginURL = loginURL
	return nil
}

func (f *fakeSender) lastToken(t *testing.T) string {
	t.Helper()
	u, err := url.Parse(f.loginURL)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func newTestService(t *testing.T, repo *repository.Repository, limit int) (*magiclink.Service, *fakeSender) {
	t.Helper()
	sender := &fakeSender{}
	events := seclog.New(repo, slog.Default())
	limiter := ratelimit.New(limit, time.Minute)
	svc := magiclink.NewService(repo, sender, limiter, events, slog.Default(), "https://hireloop.test", 10*time.Minute)
	return svc, sender
}

var meta = seclog.RequestMeta{IPAddress: "203.0.113.7", UserAgent: "test-agent"}

func TestRequestProvisionsNewAccount(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, sender := newTestService(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "New@Example.COM", meta))

	user, err := repo.GetUserByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleCandidate, user.Role)

	require.Len(t, sender.to, 1)
	assert.Equal(t, "new@example.com", sender.to[0])
	assert.True(t, strings.HasPrefix(sender.loginURL, "https://hireloop.test/auth/verify?token="))
}

func TestRequestRejectsInvalidEmail(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, sender := newTestService(t, repo, 3)

	err := svc.Request(context.Background(), "not-an-email", meta)
	assert.ErrorIs(t, err, magiclink.ErrInvalidEmail)

	err = svc.Request(context.Background(), "", meta)
	assert.ErrorIs(t, err, magiclink.ErrInvalidEmail)

	assert.Empty(t, sender.to)
}

func TestRequestRateLimits(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, _ := newTestService(t, repo, 2)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "alice@example.com", meta))
	require.NoError(t, svc.Request(ctx, "alice@example.com", meta))

	err := svc.Request(ctx, "alice@example.com", meta)
	assert.ErrorIs(t, err, magiclink.ErrRateLimited)

	// Another account is not affected.
	assert.NoError(t, svc.Request(ctx, "bob@example.com", meta))
}

func TestRequestHidesInactiveAccounts(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, sender := newTestService(t, repo, 3)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "gone@example.com", models.RoleCandidate)
	require.NoError(t, repo.SetUserActive(ctx, user.ID, false))

	// Indistinguishable from success, but nothing is sent.
	require.NoError(t, svc.Request(ctx, "gone@example.com", meta))
	assert.Empty(t, sender.to)
}

func TestVerifyRedeemsToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, sender := newTestService(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "alice@example.com", meta))

	user, err := svc.Verify(ctx, sender.lastToken(t), meta)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, user.EmailVerified)
}

func TestVerifyIsSingleUse(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, sender := newTestService(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "alice@example.com", meta))
	token := sender.lastToken(t)

	_, err := svc.Verify(ctx, token, meta)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, token, meta)
	assert.ErrorIs(t, err, magiclink.ErrInvalidToken)
}

func TestVerifyRejectsUnknownToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, _ := newTestService(t, repo, 3)

	_, err := svc.Verify(context.Background(), "deadbeef", meta)
	assert.ErrorIs(t, err, magiclink.ErrInvalidToken)

	_, err = svc.Verify(context.Background(), "", meta)
	assert.ErrorIs(t, err, magiclink.ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	sender := &fakeSender{}
	events := seclog.New(repo, slog.Default())
	limiter := ratelimit.New(3, time.Minute)
	svc := magiclink.NewService(repo, sender, limiter, events, slog.Default(), "https://hireloop.test", -time.Minute)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "alice@example.com", meta))

	_, err := svc.Verify(ctx, sender.lastToken(t), meta)
	assert.ErrorIs(t, err, magiclink.ErrExpiredToken)
}

func TestNewRequestInvalidatesOldLink(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc, sender := newTestService(t, repo, 3)
	ctx := context.Background()

	require.NoError(t, svc.Request(ctx, "alice@example.com", meta))
	oldToken := sender.lastToken(t)

	require.NoError(t, svc.Request(ctx, "alice@example.com", meta))
	newToken := sender.lastToken(t)
	require.NotEqual(t, oldToken, newToken)

	_, err := svc.Verify(ctx, oldToken, meta)
	assert.ErrorIs(t, err, magiclink.ErrInvalidToken)

	_, err = svc.Verify(ctx, newToken, meta)
	assert.NoError(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	normalized, err := magiclink.NormalizeEmail("  Alice@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", normalized)

	_, err = magiclink.NormalizeEmail("alice@")
	assert.ErrorIs(t, err, magiclink.ErrInvalidEmail)

	_, err = magiclink.NormalizeEmail("Alice Smith <alice@example.com>")
	assert.ErrorIs(t, err, magiclink.ErrInvalidEmail)
}
