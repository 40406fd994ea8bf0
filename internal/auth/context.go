// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package auth provides helpers for accessing authentication state from a
// request context.
package auth

import (
	"context"

	"github.com/hireloop/hireloop/internal/ctxkeys"
	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/services/session"
)

// ClaimsFromContext retrieves the decoded session claims from the context.
// Returns nil if the request carries no valid credential.
func ClaimsFromContext(ctx context.Context) *session.Claims {
	claims, ok := ctx.Value(ctxkeys.Claims).(*session.Claims)
	if !ok {
		return nil
	}
	return claims
}

// UserFromContext retrieves the authenticated user from the context. Returns
// nil when no user is loaded.
func UserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(ctxkeys.User).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// WithClaims returns a copy of ctx carrying the session claims.
func WithClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, ctxkeys.Claims, claims)
}

// WithUser returns a copy of ctx carrying the authenticated user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, ctxkeys.User, user)
}
