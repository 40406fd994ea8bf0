// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"github.com/hireloop/hireloop/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// CreateRecoveryCodes creates recovery codes for a user.
func (r *Repository) CreateRecoveryCodes(ctx context.Context, userID int64, codeHashes []string) error {
	for _, hash := range codeHashes {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO recovery_codes (user_id, code_hash) VALUES (?, ?)`,
			userID, hash)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetUnusedRecoveryCodes retrieves unused recovery codes for a user.
func (r *Repository) GetUnusedRecoveryCodes(ctx context.Context, userID int64) ([]models.RecoveryCode, error) {
	var codes []models.RecoveryCode
	err := r.db.SelectContext(ctx, &codes, `SELECT * FROM recovery_codes WHERE user_id = ? AND used = 0`, userID)
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// GetUnusedRecoveryCodeCount returns the count of unused recovery codes.
func (r *Repository) GetUnusedRecoveryCodeCount(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM recovery_codes WHERE user_id = ? AND used = 0`, userID)
	return count, err
}

// MarkRecoveryCodeUsed spends a recovery code. The conditional update makes
// concurrent attempts race for a single winner; the losers see false.
func (r *Repository) MarkRecoveryCodeUsed(ctx context.Context, codeID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recovery_codes SET used = 1, used_at = CURRENT_TIMESTAMP WHERE id = ? AND used = 0`,
		codeID)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// DeleteRecoveryCodes deletes all recovery codes for a user.
func (r *Repository) DeleteRecoveryCodes(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM recovery_codes WHERE user_id = ?`, userID)
	return err
}

// ValidateAndUseRecoveryCode matches a code against the user's unused hashes
// and irrevocably spends the match. Returns false when nothing matches,
// without revealing which codes remain.
func (r *Repository) ValidateAndUseRecoveryCode(ctx context.Context, userID int64, code string) (bool, error) {
	codes, err := r.GetUnusedRecoveryCodes(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, c := range codes {
		if bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(code)) == nil {
			// Losing the spend race counts as no-match: the code was
			// consumed by a concurrent request.
			return r.MarkRecoveryCodeUsed(ctx, c.ID)
		}
	}

	return false, nil
}
