// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/hireloop/hireloop/internal/models"
)

// InsertSecurityEvent appends one row to the audit trail. Rows are never
// updated or deleted by this subsystem.
func (r *Repository) InsertSecurityEvent(ctx context.Context, e *models.SecurityEvent) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO security_events (event_type, user_id, email, ip_address, user_agent, success, failure_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.EventType, e.UserID, e.Email, e.IPAddress, e.UserAgent, e.Success, e.FailureReason)
	return err
}

// CountSecurityEvents returns the number of events of a type for an email.
// Exists for tests; production consumers read the table out-of-band.
func (r *Repository) CountSecurityEvents(ctx context.Context, eventType, email string) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM security_events WHERE event_type = ? AND email = ?`,
		eventType, email)
	return count, err
}
