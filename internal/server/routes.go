// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package server

import (
	"github.com/hireloop/hireloop/internal/handlers"
	appmw "github.com/hireloop/hireloop/internal/middleware"
	"github.com/hireloop/hireloop/internal/services/magiclink"
	"github.com/hireloop/hireloop/internal/services/mfa"
	"github.com/hireloop/hireloop/internal/services/seclog"
	"github.com/hireloop/hireloop/internal/services/session"
	"github.com/labstack/echo/v4"
)

func setupRoutes(e *echo.Echo, magicLinks *magiclink.Service, mfaSvc *mfa.Service, sessions *session.Manager, events *seclog.Logger) {
	authHandlers := handlers.NewAuth(magicLinks, sessions, events)
	mfaHandlers := handlers.NewMFA(mfaSvc, sessions)

	e.GET("/health", handlers.Health)

	// Login flow
	e.GET("/auth/login", handlers.LoginPage)
	e.POST("/auth/magic-link/request", authHandlers.RequestMagicLink)
	e.GET("/auth/verify", authHandlers.VerifyMagicLink)
	e.POST("/auth/logout", authHandlers.Logout)
	e.GET("/auth/me", authHandlers.Me, appmw.RequireAuth)

	// MFA flow. Verify and recovery accept pending sessions; managing
	// enrollment requires a fully verified one.
	e.GET("/auth/mfa", mfaHandlers.ChallengePage)
	e.POST("/auth/mfa/verify", mfaHandlers.Verify, appmw.RequireAuth)
	e.POST("/auth/mfa/recovery", mfaHandlers.Recovery, appmw.RequireAuth)
	e.POST("/auth/mfa/setup", mfaHandlers.BeginSetup, appmw.RequireMFACompleted)
	e.POST("/auth/mfa/confirm-setup", mfaHandlers.ConfirmSetup, appmw.RequireMFACompleted)
	e.POST("/auth/mfa/disable", mfaHandlers.Disable, appmw.RequireMFACompleted)

	// Role dashboards, access enforced by the route guard
	e.GET("/admin", handlers.Dashboard("admin"))
	e.GET("/employer", handlers.Dashboard("employer"))
	e.GET("/candidate", handlers.Dashboard("candidate"))
}
