// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package models

import "time"

// Role is the marketplace role a user acts in.
type Role string

const (
	RoleCandidate Role = "candidate"
	RoleEmployer  Role = "employer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCandidate, RoleEmployer, RoleAdmin:
		return true
	}
	return false
}

// DashboardPath returns the home path for the role. Unknown roles land on the
// login page.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin"
	case RoleEmployer:
		return "/employer"
	case RoleCandidate:
		return "/candidate"
	}
	return "/auth/login"
}

// User is an identity record. MFASecret holds the AES-GCM envelope of the TOTP
// secret, never the plaintext.
type User struct { //nolint:govet // fieldalignment: readability over optimization
	ID            int64      `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	Role          Role       `db:"role" json:"role"`
	EmailVerified bool       `db:"email_verified" json:"email_verified"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	MFAEnabled    bool       `db:"mfa_enabled" json:"mfa_enabled"`
	MFASecret     *string    `db:"mfa_secret" json:"-"`
	MFAVerifiedAt *time.Time `db:"mfa_verified_at" json:"mfa_verified_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
