// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

// Package ctxkeys defines context keys shared across packages.
package ctxkeys

type contextKey string

const (
	// Claims is the context key for the decoded session claims.
	Claims contextKey = "claims"
	// User is the context key for the authenticated user record.
	User contextKey = "user"
)
