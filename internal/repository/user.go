// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"strings"
	"time"

	"github.com/hireloop/hireloop/internal/models"
)

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email. Matching is case-insensitive via
// the column collation.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.GetContext(ctx, &user, `SELECT * FROM users WHERE email = ?`, email); err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// CreateUser creates a new user with the given role.
func (r *Repository) CreateUser(ctx context.Context, email string, role models.Role) (*models.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, role) VALUES (?, ?)`,
		email, role)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetUserByID(ctx, id)
}

// FindOrCreateUser returns the user for email, auto-provisioning a candidate
// account if none exists. Concurrent first requests for the same address are
// resolved by the unique email constraint: the loser of the insert race
// re-reads instead of failing.
func (r *Repository) FindOrCreateUser(ctx context.Context, email string) (*models.User, error) {
	user, err := r.GetUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	user, err = r.CreateUser(ctx, email, models.RoleCandidate)
	if err != nil {
		if isUniqueViolation(err) {
			return r.GetUserByEmail(ctx, email)
		}
		return nil, err
	}
	return user, nil
}

// MarkEmailVerified records that the user proved ownership of their address.
func (r *Repository) MarkEmailVerified(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID)
	return err
}

// EnableUserMFA stores the encrypted TOTP secret and flips mfa_enabled on.
func (r *Repository) EnableUserMFA(ctx context.Context, userID int64, encryptedSecret string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = 1, mfa_secret = ?, mfa_verified_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		encryptedSecret, time.Now().UTC(), userID)
	return err
}

// DisableUserMFA clears all MFA state for a user.
func (r *Repository) DisableUserMFA(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_enabled = 0, mfa_secret = NULL, mfa_verified_at = NULL, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		userID)
	return err
}

// TouchMFAVerifiedAt records a successful MFA check.
func (r *Repository) TouchMFAVerifiedAt(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET mfa_verified_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		time.Now().UTC(), userID)
	return err
}

// SetUserActive activates or deactivates an account.
func (r *Repository) SetUserActive(ctx context.Context, userID int64, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, userID)
	return err
}

// isUniqueViolation reports whether err is a SQLite unique constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
