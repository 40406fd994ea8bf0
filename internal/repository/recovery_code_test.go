// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/services/recovery"
	"github.com/hireloop/hireloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateAndUseRecoveryCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	codes, hashes, err := recovery.NewService().GenerateCodes()
	require.NoError(t, err)
	require.NoError(t, repo.CreateRecoveryCodes(ctx, user.ID, hashes))

	count, err := repo.GetUnusedRecoveryCodeCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, len(codes), count)

	ok, err := repo.ValidateAndUseRecoveryCode(ctx, user.ID, codes[0])
	require.NoError(t, err)
	assert.True(t, ok)

	// Spent codes never validate again.
	ok, err = repo.ValidateAndUseRecoveryCode(ctx, user.ID, codes[0])
	require.NoError(t, err)
	assert.False(t, ok)

	count, err = repo.GetUnusedRecoveryCodeCount(ctx, user.ID)
	require.NoError(t, err)
	assert.EqualValues(t, len(codes)-1, count)
}

func TestMarkRecoveryCodeUsedHasSingleWinner(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	_, hashes, err := recovery.NewService().GenerateCodes()
	require.NoError(t, err)
	require.NoError(t, repo.CreateRecoveryCodes(ctx, user.ID, hashes))

	codes, err := repo.GetUnusedRecoveryCodes(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, codes)

	// Two requests racing for the same code: only the first spend succeeds,
	// the second sees the conditional update touch zero rows.
	ok, err := repo.MarkRecoveryCodeUsed(ctx, codes[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkRecoveryCodeUsed(ctx, codes[0].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValidateRejectsUnknownCode(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	_, hashes, err := recovery.NewService().GenerateCodes()
	require.NoError(t, err)
	require.NoError(t, repo.CreateRecoveryCodes(ctx, user.ID, hashes))

	ok, err := repo.ValidateAndUseRecoveryCode(ctx, user.ID, "WRONGCOD")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteRecoveryCodes(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)

	_, hashes, err := recovery.NewService().GenerateCodes()
	require.NoError(t, err)
	require.NoError(t, repo.CreateRecoveryCodes(ctx, user.ID, hashes))
	require.NoError(t, repo.DeleteRecoveryCodes(ctx, user.ID))

	count, err := repo.GetUnusedRecoveryCodeCount(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
