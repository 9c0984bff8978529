package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gram-portal/internal/domain"
)

func seedMemory(t *testing.T) (*MemoryStore, *domain.User, *domain.Service) {
	t.Helper()
	ctx := context.Background()
	store := NewMemoryStore()

	user := &domain.User{Name: "Ramesh Kumar", Email: "Ramesh@Example.com", Role: domain.RoleCitizen}
	require.NoError(t, store.Users().Create(ctx, user))

	svc := &domain.Service{
		Title:             "Birth Certificate",
		Category:          "Certificates",
		RequiredDocuments: []string{" Hospital record ", "", "Parent ID"},
		IsActive:          true,
	}
	require.NoError(t, store.Services().Create(ctx, svc))
	return store, user, svc
}

func TestMemoryUsersEmailIsUniqueAndCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	store, user, _ := seedMemory(t)

	assert.Equal(t, "ramesh@example.com", user.Email)
	found, err := store.Users().GetByEmail(ctx, "RAMESH@example.com ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	err = store.Users().Create(ctx, &domain.User{Email: "ramesh@EXAMPLE.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	_, err = store.Users().GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryServicesNormalizeDocumentsAndCopy(t *testing.T) {
	ctx := context.Background()
	store, _, svc := seedMemory(t)

	assert.Equal(t, []string{"Hospital record", "Parent ID"}, svc.RequiredDocuments)

	fetched, err := store.Services().GetByID(ctx, svc.ID)
	require.NoError(t, err)
	fetched.RequiredDocuments[0] = "mutated"

	again, err := store.Services().GetByID(ctx, svc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hospital record", again.RequiredDocuments[0])
}

func TestMemoryServiceDeleteRefusesReferencedService(t *testing.T) {
	ctx := context.Background()
	store, user, svc := seedMemory(t)

	app := &domain.Application{UserID: user.ID, ServiceID: svc.ID, Status: domain.ApplicationStatusPending}
	require.NoError(t, store.Applications().Create(ctx, app))

	assert.ErrorIs(t, store.Services().Delete(ctx, svc.ID), ErrInUse)

	unused := &domain.Service{Title: "Unused", Category: "Misc"}
	require.NoError(t, store.Services().Create(ctx, unused))
	require.NoError(t, store.Services().Delete(ctx, unused.ID))
	assert.ErrorIs(t, store.Services().Delete(ctx, unused.ID), ErrNotFound)
}

func TestMemoryApplicationsListNewestFirstWithJoinedTitle(t *testing.T) {
	ctx := context.Background()
	store, user, svc := seedMemory(t)

	var ids []string
	for i := 0; i < 3; i++ {
		app := &domain.Application{UserID: user.ID, ServiceID: svc.ID, Status: domain.ApplicationStatusPending}
		require.NoError(t, store.Applications().Create(ctx, app))
		assert.Equal(t, "Birth Certificate", app.ServiceTitle)
		ids = append(ids, app.ID)
	}

	list, total, err := store.Applications().List(ctx, ApplicationFilter{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)
	assert.Equal(t, "Birth Certificate", list[0].ServiceTitle)

	counts, err := store.Applications().CountByStatus(ctx, &user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, counts[domain.ApplicationStatusPending])
	assert.Equal(t, 0, counts[domain.ApplicationStatusCompleted])
}

func TestMemoryApplicationsRejectUnknownReferences(t *testing.T) {
	ctx := context.Background()
	store, user, _ := seedMemory(t)

	err := store.Applications().Create(ctx, &domain.Application{UserID: user.ID, ServiceID: "nope"})
	assert.ErrorIs(t, err, ErrInUse)
}

func TestMemoryTransitionIsConditionalAndAtomic(t *testing.T) {
	ctx := context.Background()
	store, user, svc := seedMemory(t)

	app := &domain.Application{UserID: user.ID, ServiceID: svc.ID, Status: domain.ApplicationStatusPending}
	require.NoError(t, store.Applications().Create(ctx, app))

	app.Status = domain.ApplicationStatusUnderReview
	entry := &domain.ApplicationHistory{ChangedBy: user.ID, OldStatus: domain.ApplicationStatusPending, NewStatus: app.Status}
	require.NoError(t, store.Applications().Transition(ctx, app, domain.ApplicationStatusPending, entry))
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, app.ID, entry.ApplicationID)

	stale := *app
	stale.Status = domain.ApplicationStatusApproved
	err := store.Applications().Transition(ctx, &stale, domain.ApplicationStatusPending,
		&domain.ApplicationHistory{ChangedBy: user.ID, OldStatus: domain.ApplicationStatusPending, NewStatus: stale.Status})
	assert.ErrorIs(t, err, ErrStaleStatus)

	stored, err := store.Applications().GetByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatusUnderReview, stored.Status)
	history, err := store.History().ListByApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "rejected write leaves no audit entry")

	missing := &domain.Application{ID: "missing", Status: domain.ApplicationStatusApproved}
	assert.ErrorIs(t, store.Applications().Transition(ctx, missing, domain.ApplicationStatusPending, nil), ErrNotFound)
}

func TestMemoryCountStale(t *testing.T) {
	ctx := context.Background()
	store, user, svc := seedMemory(t)

	old := &domain.Application{
		UserID: user.ID, ServiceID: svc.ID,
		Status:    domain.ApplicationStatusPending,
		CreatedAt: time.Now().Add(-10 * 24 * time.Hour),
	}
	require.NoError(t, store.Applications().Create(ctx, old))
	fresh := &domain.Application{UserID: user.ID, ServiceID: svc.ID, Status: domain.ApplicationStatusPending}
	require.NoError(t, store.Applications().Create(ctx, fresh))

	stale, err := store.Applications().CountStale(ctx, domain.ApplicationStatusPending, time.Now().Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, stale)
}

func TestMemoryPasswordResets(t *testing.T) {
	ctx := context.Background()
	store, user, _ := seedMemory(t)
	resets := store.PasswordResets()

	token := &domain.PasswordResetToken{UserID: user.ID, Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, resets.Create(ctx, token))
	assert.ErrorIs(t, resets.Create(ctx, &domain.PasswordResetToken{Token: "tok"}), ErrDuplicate)

	expired := &domain.PasswordResetToken{UserID: user.ID, Token: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, resets.Create(ctx, expired))

	require.NoError(t, resets.MarkUsed(ctx, token.ID))
	assert.ErrorIs(t, resets.MarkUsed(ctx, token.ID), ErrNotFound)

	removed, err := resets.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}

func TestMemoryHonoursCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Users().GetByID(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
