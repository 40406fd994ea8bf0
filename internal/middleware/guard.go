// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package middleware contains the HTTP middleware stack.
package middleware

import (
	"net/http"
	"strings"

	"github.com/hireloop/hireloop/internal/auth"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/labstack/echo/v4"
)

// areaRoles maps protected route areas to the role allowed inside.
var areaRoles = map[string]models.Role{
	"/admin":     models.RoleAdmin,
	"/employer":  models.RoleEmployer,
	"/candidate": models.RoleCandidate,
}

// Guard is the edge route guard. It classifies requests using only the
// session cookie, without touching the database, so it is cheap enough to
// run on every request. Revocation is enforced later by LoadUser on routes
// that read user state; the guard's job is navigation:
//
//   - anonymous visitors are sent to the login page
//   - signed-in visitors are kept out of the login page
//   - sessions still owing an MFA check are pinned to the challenge page
//   - visitors in the wrong role area are sent to their own dashboard
func Guard(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			claims := sessions.Decode(c.Request())
			if claims != nil {
				ctx := auth.WithClaims(c.Request().Context(), claims)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			switch {
			case path == "/auth/login" && c.Request().Method == http.MethodGet:
				if claims == nil {
					return next(c)
				}
				if !claims.MFAVerified {
					return c.Redirect(http.StatusSeeOther, "/auth/mfa")
				}
				return c.Redirect(http.StatusSeeOther, claims.Role.DashboardPath())

			case path == "/auth/mfa" && c.Request().Method == http.MethodGet:
				if claims == nil {
					return c.Redirect(http.StatusSeeOther, "/auth/login")
				}
				if claims.MFAVerified {
					return c.Redirect(http.StatusSeeOther, claims.Role.DashboardPath())
				}
				return next(c)

			case strings.HasPrefix(path, "/auth/") || path == "/health":
				return next(c)
			}

			if area, role := matchArea(path); area != "" {
				if claims == nil {
					return c.Redirect(http.StatusSeeOther, "/auth/login")
				}
				if !claims.MFAVerified {
					return c.Redirect(http.StatusSeeOther, "/auth/mfa")
				}
				if claims.Role != role {
					return c.Redirect(http.StatusSeeOther, claims.Role.DashboardPath())
				}
			}

			return next(c)
		}
	}
}

// matchArea returns the protected area prefix covering path, if any.
func matchArea(path string) (string, models.Role) {
	for area, role := range areaRoles {
		if path == area || strings.HasPrefix(path, area+"/") {
			return area, role
		}
	}
	return "", ""
}
