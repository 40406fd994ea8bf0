// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package middleware

import (
	"net/http"

	"github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/internal/repository"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/labstack/echo/v4"
)

// LoadUser verifies the session against the database and loads the user
// record into the request context. Unlike Guard this catches revoked
// sessions and deactivated accounts, so it fronts every route that acts on
// user state. Requests without a valid session pass through unauthenticated;
// rejection is left to RequireAuth.
func LoadUser(sessions *session.Manager, repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			claims, err := sessions.Verify(ctx, c.Request())
			if err != nil {
				return next(c)
			}

			user, err := repo.GetUserByID(ctx, claims.UserID)
			if err != nil || !user.IsActive {
				return next(c)
			}

			ctx = auth.WithClaims(ctx, claims)
			ctx = auth.WithUser(ctx, user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// RequireAuth rejects requests without a loaded user. Sessions that still owe
// an MFA check are accepted; use RequireMFACompleted where that matters.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if auth.UserFromContext(c.Request().Context()) == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		}
		return next(c)
	}
}

// RequireMFACompleted rejects sessions that have not finished their MFA
// challenge.
func RequireMFACompleted(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := auth.ClaimsFromContext(c.Request().Context())
		if claims == nil || auth.UserFromContext(c.Request().Context()) == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		}
		if !claims.MFAVerified {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "mfa verification required"})
		}
		return next(c)
	}
}
