// Copyright 2025 Hireloop
// Licensed under the EUPL-1.2

package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleCandidate.Valid())
	assert.True(t, RoleEmployer.Valid())
	assert.True(t, RoleAdmin.Valid())

	assert.False(t, Role("").Valid())
	assert.False(t, Role("superuser").Valid())
}

func TestDashboardPath(t *testing.T) {
	assert.Equal(t, "/admin", RoleAdmin.DashboardPath())
	assert.Equal(t, "/employer", RoleEmployer.DashboardPath())
	assert.Equal(t, "/candidate", RoleCandidate.DashboardPath())
	assert.Equal(t, "/auth/login", Role("bogus").DashboardPath())
}

func TestUserJSONHidesSecrets(t *testing.T) {
	secret := "encrypted-totp-secret"
	user := User{
		ID:        1,
		Email:     "alice@example.com",
		Role:      RoleCandidate,
		MFASecret: &secret,
	}

	raw, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "encrypted-totp-secret")
	assert.NotContains(t, string(raw), "mfa_secret")
	assert.Contains(t, string(raw), "alice@example.com")
}
