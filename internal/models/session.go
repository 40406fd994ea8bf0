// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package models

import "time"

// Session is the server-side session record. The signed cookie the browser
// holds is a cache of this row; the row remains the source of truth for
// revocation.
type Session struct { //nolint:govet // fieldalignment: readability over optimization
	ID          string    `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Role        Role      `db:"role" json:"role"`
	MFAVerified bool      `db:"mfa_verified" json:"mfa_verified"`
	ExpiresAt   time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
