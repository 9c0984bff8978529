package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApplicationStatusValid(t *testing.T) {
	for _, status := range ApplicationStatuses {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, ApplicationStatus("cancelled").Valid())
	assert.False(t, ApplicationStatus("").Valid())
	assert.False(t, ApplicationStatus("PENDING").Valid())
}

func TestApplicationStatusLabel(t *testing.T) {
	assert.Equal(t, "under review", ApplicationStatusUnderReview.Label())
	assert.Equal(t, "approved", ApplicationStatusApproved.Label())
}

func TestRole(t *testing.T) {
	assert.True(t, RoleCitizen.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("citizen").Valid())

	assert.False(t, RoleCitizen.IsOperator())
	assert.True(t, RoleStaff.IsOperator())
	assert.True(t, RoleAdmin.IsOperator())
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now.Add(time.Minute)}
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Minute)))
	assert.False(t, (&Session{}).Expired(now))
}
