// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"testing"

	"github.com/hireloop/hireloop/internal/models"
	"github.com/hireloop/hireloop/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertSecurityEvent(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	user := testutil.NewTestUser(t, repo, "alice@example.com", models.RoleCandidate)
	reason := "token expired"

	require.NoError(t, repo.InsertSecurityEvent(ctx, &models.SecurityEvent{
		EventType:     "magic_link_expired",
		UserID:        &user.ID,
		Email:         user.Email,
		IPAddress:     "203.0.113.7",
		UserAgent:     "test-agent",
		Success:       false,
		FailureReason: &reason,
	}))

	// Events without a resolved user are valid too.
	require.NoError(t, repo.InsertSecurityEvent(ctx, &models.SecurityEvent{
		EventType: "magic_link_invalid",
		Email:     "ghost@example.com",
		IPAddress: "203.0.113.7",
		Success:   false,
	}))

	count, err := repo.CountSecurityEvents(ctx, "magic_link_expired", user.Email)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
