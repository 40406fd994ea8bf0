// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hireloop/hireloop/internal/database"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
)

// Hex-encoded 32-byte keys for tests.
const (
	TestHashKeyHex  = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	TestBlockKeyHex = "1f1e1d1c1b1a191817161514131211100f0e0d0c0b0a09080706050403020100"
	TestBoxKeyHex   = "202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestUser creates a test user in the database.
func NewTestUser(t *testing.T, repo *repository.Repository, email string, role models.Role) *models.User {
	t.Helper()
	ctx := context.Background()
	user, err := repo.CreateUser(ctx, email, role)
	require.NoError(t, err)
	return user
}

// NewTestSessionManager creates a session manager with fixed test keys.
func NewTestSessionManager(t *testing.T, repo *repository.Repository) *session.Manager {
	t.Helper()
	hashKey, err := hex.DecodeString(TestHashKeyHex)
	require.NoError(t, err)
	blockKey, err := hex.DecodeString(TestBlockKeyHex)
	require.NoError(t, err)

	mgr, err := session.NewManager(repo, seclog.New(repo, slog.Default()), hashKey, blockKey, "_session", 24*time.Hour, false)
	require.NoError(t, err)
	return mgr
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}
