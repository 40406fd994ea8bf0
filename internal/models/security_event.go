// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package models

import "time"

// SecurityEvent is one row of the append-only auth audit trail. This
// subsystem only ever inserts; aggregation happens downstream.
type SecurityEvent struct { //nolint:govet // fieldalignment: readability over optimization
	ID            int64     `db:"id" json:"id"`
	EventType     string    `db:"event_type" json:"event_type"`
	UserID        *int64    `db:"user_id" json:"user_id,omitempty"`
	Email         string    `db:"email" json:"email"`
	IPAddress     string    `db:"ip_address" json:"ip_address"`
	UserAgent     string    `db:"user_agent" json:"user_agent"`
	Success       bool      `db:"success" json:"success"`
	FailureReason *string   `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
