// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/internal/services/mfa"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/hireloop/hireloop/internal/services/totp"
	"github.com/labstack/echo/v4"
)

// MFAHandlers contains handlers for second-factor enrollment and challenges.
type MFAHandlers struct {
	mfa      *mfa.Service
	sessions *session.Manager
}

// NewMFA creates a new MFAHandlers instance.
func NewMFA(svc *mfa.Service, sess *session.Manager) *MFAHandlers {
	return &MFAHandlers{
		mfa:      svc,
		sessions: sess,
	}
}

// CodeRequest is the request body carrying a TOTP or recovery code.
type CodeRequest struct {
	Code string `json:"code"`
}

// ConfirmSetupRequest carries the enrollment secret back from the client
// together with the first code from the authenticator app.
type ConfirmSetupRequest struct {
	Secret string `json:"secret"`
	Code   string `json:"code"`
}

// ChallengePage is the landing point for sessions that still owe a TOTP
// check. The SPA renders the form.
func (h *MFAHandlers) ChallengePage(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"page": "mfa-challenge"})
}

// BeginSetup handles POST /auth/mfa/setup. Returns the provisioning secret
// and QR code for the user's authenticator app. MFA is not active until the
// user confirms with a working code.
func (h *MFAHandlers) BeginSetup(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}

	enrollment, err := h.mfa.BeginSetup(c.Request().Context(), user)
	switch {
	case errors.Is(err, mfa.ErrAlreadyEnabled):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "mfa is already enabled"})
	case err != nil:
		slog.Error("mfa setup failed", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"secret":      enrollment.Secret,
		"otpauth_uri": enrollment.OTPAuthURI,
		"qr_code":     enrollment.QRCodeDataURL,
	})
}

// ConfirmSetup handles POST /auth/mfa/confirm-setup. The secret from
// BeginSetup comes back with the first working code; on success MFA is
// switched on and the recovery codes are returned, the only time they are
// shown.
func (h *MFAHandlers) ConfirmSetup(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}

	var req ConfirmSetupRequest
	if err := c.Bind(&req); err != nil || req.Secret == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a secret and a 6-digit code are required"})
	}
	if !totp.ValidFormat(req.Code) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a secret and a 6-digit code are required"})
	}

	codes, err := h.mfa.ConfirmSetup(c.Request().Context(), user, req.Secret, req.Code, requestMeta(c))
	switch {
	case errors.Is(err, mfa.ErrAlreadyEnabled):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "mfa is already enabled"})
	case errors.Is(err, mfa.ErrInvalidCode):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid code"})
	case err != nil:
		slog.Error("mfa confirmation failed", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "ok",
		"recovery_codes": codes,
	})
}

// Verify handles POST /auth/mfa/verify, the challenge a pending session must
// pass. On success the session is upgraded in place and the client is told
// where to go next.
func (h *MFAHandlers) Verify(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	claims := auth.ClaimsFromContext(c.Request().Context())
	if user == nil || claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}

	code, ok := bindCode(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a 6-digit code is required"})
	}

	err := h.mfa.Verify(c.Request().Context(), user, code, requestMeta(c))
	switch {
	case errors.Is(err, mfa.ErrNotEnabled):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "mfa is not enabled"})
	case errors.Is(err, mfa.ErrInvalidCode):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid code"})
	case err != nil:
		slog.Error("mfa verification failed", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}

	return h.upgradeSession(c, claims)
}

// Recovery handles POST /auth/mfa/recovery, redeeming a one-time recovery
// code in place of a TOTP code.
func (h *MFAHandlers) Recovery(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	claims := auth.ClaimsFromContext(c.Request().Context())
	if user == nil || claims == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}

	var req CodeRequest
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a recovery code is required"})
	}

	err := h.mfa.VerifyRecoveryCode(c.Request().Context(), user, req.Code, requestMeta(c))
	switch {
	case errors.Is(err, mfa.ErrNotEnabled):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "mfa is not enabled"})
	case errors.Is(err, mfa.ErrInvalidRecoveryCode):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid recovery code"})
	case err != nil:
		slog.Error("recovery code verification failed", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}

	return h.upgradeSession(c, claims)
}

// Disable handles POST /auth/mfa/disable. A valid current TOTP code is
// required. Removing the second factor revokes every session for the account;
// only the client that asked gets a fresh one.
func (h *MFAHandlers) Disable(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.UserFromContext(ctx)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}

	code, ok := bindCode(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a 6-digit code is required"})
	}

	err := h.mfa.Disable(ctx, user, code, requestMeta(c))
	switch {
	case errors.Is(err, mfa.ErrNotEnabled):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "mfa is not enabled"})
	case errors.Is(err, mfa.ErrInvalidCode):
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid code"})
	case err != nil:
		slog.Error("mfa disable failed", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}

	if err := h.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		slog.Error("failed to revoke sessions", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}
	cookie, _, err := h.sessions.Issue(ctx, user, true)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// upgradeSession re-issues the current session with the MFA flag set and
// points the client at its dashboard.
func (h *MFAHandlers) upgradeSession(c echo.Context, claims *session.Claims) error {
	cookie, next, err := h.sessions.Refresh(c.Request().Context(), claims, true)
	if err != nil {
		slog.Error("failed to upgrade session", "error", err, "session_id", claims.SessionID)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}
	c.SetCookie(cookie)

	return c.JSON(http.StatusOK, map[string]string{
		"status":      "ok",
		"redirect_to": next.Role.DashboardPath(),
	})
}

// bindCode extracts and format-checks a TOTP code from the request body.
func bindCode(c echo.Context) (string, bool) {
	var req CodeRequest
	if err := c.Bind(&req); err != nil {
		return "", false
	}
	if !totp.ValidFormat(req.Code) {
		return "", false
	}
	return req.Code, true
}
