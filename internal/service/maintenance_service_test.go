package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/seed"
)

func TestPurgePasswordResets(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	ramesh := env.user(t, seed.CitizenEmail)
	resets := env.store.PasswordResets()

	require.NoError(t, resets.Create(ctx, &domain.PasswordResetToken{UserID: ramesh.ID, Token: "expired", ExpiresAt: time.Now().Add(-time.Minute)}))
	require.NoError(t, resets.Create(ctx, &domain.PasswordResetToken{UserID: ramesh.ID, Token: "live", ExpiresAt: time.Now().Add(time.Hour)}))

	svc := NewMaintenanceService(MaintenanceDependencies{PasswordResetRepo: resets, ApplicationRepo: env.store.Applications()})
	removed, err := svc.PurgePasswordResets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = resets.GetByToken(ctx, "live")
	require.NoError(t, err)
}

func TestPurgeSessions(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	require.NoError(t, env.sessions.Save(ctx, &domain.Session{ID: "gone", UserID: "u-1", ExpiresAt: time.Now().Add(-time.Second)}))
	require.NoError(t, env.sessions.Save(ctx, &domain.Session{ID: "live", UserID: "u-1", ExpiresAt: time.Now().Add(time.Hour)}))

	svc := NewMaintenanceService(MaintenanceDependencies{Sessions: env.sessions})
	removed, err := svc.PurgeSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, env.sessions.Len())

	removed, err = NewMaintenanceService(MaintenanceDependencies{}).PurgeSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "stores without a sweeper are skipped")
}

func TestScanStaleApplications(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()

	svc := NewMaintenanceService(MaintenanceDependencies{
		PasswordResetRepo: env.store.PasswordResets(),
		ApplicationRepo:   env.store.Applications(),
		Metrics:           env.metrics,
		StaleAfter:        24 * time.Hour,
	})
	stale, err := svc.ScanStaleApplications(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stale, "seeded birth certificate request is two days old")
	assert.Equal(t, 1.0, gaugeValue(t, env, "egram_applications_stale_pending"))

	svc.staleAfter = 7 * 24 * time.Hour
	stale, err = svc.ScanStaleApplications(ctx)
	require.NoError(t, err)
	assert.Zero(t, stale)
	assert.Zero(t, gaugeValue(t, env, "egram_applications_stale_pending"))

	disabled := NewMaintenanceService(MaintenanceDependencies{ApplicationRepo: env.store.Applications()})
	stale, err = disabled.ScanStaleApplications(ctx)
	require.NoError(t, err)
	assert.Zero(t, stale)
}

func gaugeValue(t *testing.T, env *testEnv, name string) float64 {
	t.Helper()
	families, err := env.metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name && len(family.GetMetric()) > 0 {
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("gauge %s not registered", name)
	return 0
}
