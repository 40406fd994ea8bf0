// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/hireloop/hireloop/internal/models"
)

// UpsertSession creates or replaces the server-side session record. Re-upserting
// with the same id and a new mfa_verified flag transitions the same logical
// session; the MFA flow uses this to upgrade a pending session.
func (r *Repository) UpsertSession(ctx context.Context, s *models.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, role, mfa_verified, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET mfa_verified = excluded.mfa_verified, expires_at = excluded.expires_at`,
		s.ID, s.UserID, s.Role, s.MFAVerified, s.ExpiresAt)
	return err
}

// GetSessionByID retrieves a session record.
func (r *Repository) GetSessionByID(ctx context.Context, id string) (*models.Session, error) {
	var s models.Session
	if err := r.db.GetContext(ctx, &s, `SELECT * FROM sessions WHERE id = ?`, id); err != nil {
		return nil, wrapError(err)
	}
	return &s, nil
}

// DeleteSession removes a session record. Deleting a nonexistent session is
// not an error.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteUserSessions removes all sessions for a user.
func (r *Repository) DeleteUserSessions(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteExpiredSessions removes sessions past their expiry.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
