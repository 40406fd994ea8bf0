// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"github.com/hireloop/hireloop/internal/models"
)

// CreateMagicLinkToken persists a new token hash. Outstanding tokens for the
// same user are consumed first, so only the newest link ever verifies.
func (r *Repository) CreateMagicLinkToken(ctx context.Context, t *models.MagicLinkToken) error {
	if err := r.ConsumeOutstandingMagicLinkTokens(ctx, t.UserID); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO magic_link_tokens (user_id, token_hash, expires_at, ip_address, user_agent)
		 VALUES (?, ?, ?, ?, ?)`,
		t.UserID, t.TokenHash, t.ExpiresAt, t.IPAddress, t.UserAgent)
	if err != nil {
		return err
	}
	t.ID, err = res.LastInsertId()
	return err
}

// GetMagicLinkTokenByHash retrieves a token by hash regardless of state, so
// the flow can distinguish expired from unknown.
func (r *Repository) GetMagicLinkTokenByHash(ctx context.Context, tokenHash string) (*models.MagicLinkToken, error) {
	var t models.MagicLinkToken
	err := r.db.GetContext(ctx, &t,
		`SELECT * FROM magic_link_tokens WHERE token_hash = ? ORDER BY created_at DESC LIMIT 1`,
		tokenHash)
	if err != nil {
		return nil, wrapError(err)
	}
	return &t, nil
}

// ConsumeMagicLinkToken marks a token consumed. The conditional update makes
// consumption single-winner: a second concurrent verify of the same token
// sees zero rows affected and fails.
func (r *Repository) ConsumeMagicLinkToken(ctx context.Context, tokenID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE magic_link_tokens SET consumed_at = ? WHERE id = ? AND consumed_at IS NULL`,
		time.Now().UTC(), tokenID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ConsumeOutstandingMagicLinkTokens invalidates all unconsumed tokens for a
// user.
func (r *Repository) ConsumeOutstandingMagicLinkTokens(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE magic_link_tokens SET consumed_at = ? WHERE user_id = ? AND consumed_at IS NULL`,
		time.Now().UTC(), userID)
	return err
}

// DeleteExpiredMagicLinkTokens removes tokens past their expiry.
func (r *Repository) DeleteExpiredMagicLinkTokens(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM magic_link_tokens WHERE expires_at < ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
