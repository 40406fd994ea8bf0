// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/internal/services/magiclink"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for login, logout and session introspection.
type AuthHandlers struct {
	magiclink *magiclink.Service
	sessions  *session.Manager
	events    *seclog.Logger
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(ml *magiclink.Service, sess *session.Manager, events *seclog.Logger) *AuthHandlers {
	return &AuthHandlers{
		magiclink: ml,
		sessions:  sess,
		events:    events,
	}
}

// LoginRequest is the request body for requesting a magic link.
type LoginRequest struct {
	Email string `json:"email"`
}

// RequestMagicLink handles POST /auth/magic-link/request. The response is
// identical for new, existing and deactivated accounts so the endpoint cannot
// be used to enumerate who has signed up.
func (h *AuthHandlers) RequestMagicLink(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	err := h.magiclink.Request(c.Request().Context(), req.Email, requestMeta(c))
	switch {
	case errors.Is(err, magiclink.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "a valid email address is required"})
	case errors.Is(err, magiclink.ErrRateLimited):
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "too many requests, try again later"})
	case err != nil:
		slog.Error("magic link request failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Check your inbox for a sign-in link.",
	})
}

// VerifyMagicLink handles GET /auth/verify. On success a session is issued
// and the browser is redirected onward: accounts with MFA land on the
// challenge page with a pending session, everyone else goes straight to their
// dashboard.
func (h *AuthHandlers) VerifyMagicLink(c echo.Context) error {
	user, err := h.magiclink.Verify(c.Request().Context(), c.QueryParam("token"), requestMeta(c))
	switch {
	case errors.Is(err, magiclink.ErrExpiredToken):
		return c.Redirect(http.StatusSeeOther, "/auth/login?error=link-expired")
	case errors.Is(err, magiclink.ErrInvalidToken):
		return c.Redirect(http.StatusSeeOther, "/auth/login?error=link-invalid")
	case err != nil:
		slog.Error("magic link verification failed", "error", err)
		return c.Redirect(http.StatusSeeOther, "/auth/login?error=server-error")
	}

	cookie, claims, err := h.sessions.Issue(c.Request().Context(), user, !user.MFAEnabled)
	if err != nil {
		slog.Error("failed to issue session", "error", err, "user_id", user.ID)
		return c.Redirect(http.StatusSeeOther, "/auth/login?error=server-error")
	}
	c.SetCookie(cookie)

	h.events.Success(c.Request().Context(), seclog.EventSessionCreated, &user.ID, user.Email, requestMeta(c))

	if user.MFAEnabled && !claims.MFAVerified {
		return c.Redirect(http.StatusSeeOther, "/auth/mfa")
	}
	return c.Redirect(http.StatusSeeOther, user.Role.DashboardPath())
}

// Logout revokes the current session and clears the cookie. Safe to call
// without a session.
func (h *AuthHandlers) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	if claims := auth.ClaimsFromContext(ctx); claims != nil {
		if err := h.sessions.Delete(ctx, claims.SessionID); err != nil {
			slog.Error("failed to delete session", "error", err, "session_id", claims.SessionID)
		}
		h.events.Success(ctx, seclog.EventLogout, &claims.UserID, "", requestMeta(c))
	}

	c.SetCookie(h.sessions.ClearCookie())
	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Me returns the authenticated user.
func (h *AuthHandlers) Me(c echo.Context) error {
	user := auth.UserFromContext(c.Request().Context())
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, user)
}

// requestMeta extracts client attribution for the audit trail.
func requestMeta(c echo.Context) seclog.RequestMeta {
	return seclog.RequestMeta{
		IPAddress: c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	}
}
