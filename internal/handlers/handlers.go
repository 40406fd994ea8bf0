// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package handlers contains the HTTP handlers.
package handlers

import (
	"net/http"

	"github.com/hireloop/hireloop/internal/auth"
	"github.com/labstack/echo/v4"
)

// Health reports service liveness.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// LoginPage is the sign-in entry point. The SPA renders the form; this
// endpoint exists so unauthenticated redirects land somewhere meaningful.
func LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"page": "login"})
}

// Dashboard returns the landing payload for a role area. Role access is
// enforced by the route guard before this runs.
func Dashboard(area string) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := auth.ClaimsFromContext(c.Request().Context())
		if claims == nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"area":    area,
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
	}
}
