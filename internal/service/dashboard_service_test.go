package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/seed"
)

func TestUserDashboard(t *testing.T) {
	env := newTestEnv(t, true)
	ramesh := env.user(t, seed.CitizenEmail)

	dash, err := env.dashboards.User(context.Background(), ramesh.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, dash.TotalApplications)
	assert.Equal(t, 2, dash.InProgress)
	assert.Equal(t, 1, dash.Approved)
	assert.Equal(t, 7, dash.AvailableServices)
	assert.Len(t, dash.RecentApplications, 3)
	assert.Len(t, dash.FeaturedServices, featuredServicesLimit)
}

func TestStaffDashboard(t *testing.T) {
	env := newTestEnv(t, true)

	dash, err := env.dashboards.Staff(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StaffDashboard{Total: 3, Pending: 1, UnderReview: 1, Approved: 1}, *dash)
}

func TestAdminDashboard(t *testing.T) {
	env := newTestEnv(t, true)

	dash, err := env.dashboards.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, dash.Stats.TotalUsers)
	assert.Equal(t, 8, dash.Stats.TotalServices)
	assert.Equal(t, 7, dash.Stats.ActiveServices)
	assert.Equal(t, 3, dash.Stats.TotalApplications)
	assert.Equal(t, 0, dash.Stats.ByStatus[domain.ApplicationStatusRejected])
	assert.Equal(t, 3, dash.ServicesByCategory["Certificates"])
	assert.Equal(t, 1, dash.ServicesByCategory["Agriculture"])
	assert.Len(t, dash.RecentApplications, 3)
}

func TestDashboardsOnEmptyStore(t *testing.T) {
	env := newTestEnv(t, false)

	dash, err := env.dashboards.Admin(context.Background())
	require.NoError(t, err)
	assert.Zero(t, dash.Stats.TotalApplications)
	assert.Empty(t, dash.RecentApplications)
}
