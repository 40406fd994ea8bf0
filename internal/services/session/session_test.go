// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/hireloop/hireloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithCookie(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	return req
}

func TestIssueAndDecode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mgr := testutil.NewTestSessionManager(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleEmployer)

	cookie, claims, err := mgr.Issue(ctx, user, true)
	require.NoError(t, err)
	assert.Equal(t, "_session", cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.NotContains(t, cookie.Value, "alice")

	decoded := mgr.Decode(requestWithCookie(cookie))
	require.NotNil(t, decoded)
	assert.Equal(t, claims.SessionID, decoded.SessionID)
	assert.Equal(t, user.ID, decoded.UserID)
	assert.Equal(t, models.RoleEmployer, decoded.Role)
	assert.True(t, decoded.MFAVerified)
}

func TestDecodeRejectsTampering(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mgr := testutil.NewTestSessionManager(t, repo)

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	cookie, _, err := mgr.Issue(context.Background(), user, true)
	require.NoError(t, err)

	tampered := *cookie
	tampered.Value = "x" + tampered.Value[1:]
	assert.Nil(t, mgr.Decode(requestWithCookie(&tampered)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, mgr.Decode(req))
}

func TestVerifyCrossChecksRecord(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mgr := testutil.NewTestSessionManager(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	cookie, claims, err := mgr.Issue(ctx, user, true)
	require.NoError(t, err)

	verified, err := mgr.Verify(ctx, requestWithCookie(cookie))
	require.NoError(t, err)
	assert.Equal(t, claims.SessionID, verified.SessionID)

	// Revocation invalidates an otherwise intact cookie.
	require.NoError(t, mgr.Delete(ctx, claims.SessionID))
	_, err = mgr.Verify(ctx, requestWithCookie(cookie))
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestVerifyRejectsExpiredRecord(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mgr := testutil.NewTestSessionManager(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	cookie, claims, err := mgr.Issue(ctx, user, true)
	require.NoError(t, err)

	require.NoError(t, repo.UpsertSession(ctx, &models.Session{
		ID:          claims.SessionID,
		UserID:      user.ID,
		Role:        user.Role,
		MFAVerified: true,
		ExpiresAt:   time.Now().Add(-time.Minute).UTC(),
	}))

	_, err = mgr.Verify(ctx, requestWithCookie(cookie))
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	// The expiry lands in the audit trail.
	count, err := repo.CountSecurityEvents(ctx, "session_expired", "")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestRefreshUpgradesMFAFlag(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mgr := testutil.NewTestSessionManager(t, repo)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	_, pending, err := mgr.Issue(ctx, user, false)
	require.NoError(t, err)
	assert.False(t, pending.MFAVerified)

	cookie, upgraded, err := mgr.Refresh(ctx, pending, true)
	require.NoError(t, err)
	assert.Equal(t, pending.SessionID, upgraded.SessionID)
	assert.True(t, upgraded.MFAVerified)

	verified, err := mgr.Verify(ctx, requestWithCookie(cookie))
	require.NoError(t, err)
	assert.True(t, verified.MFAVerified)

	record, err := repo.GetSessionByID(ctx, pending.SessionID)
	require.NoError(t, err)
	assert.True(t, record.MFAVerified)
}

func TestClearCookie(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	mgr := testutil.NewTestSessionManager(t, repo)

	cookie := mgr.ClearCookie()
	assert.Equal(t, "_session", cookie.Name)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}
