package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/seed"
)

func newAccountService(env *testEnv) *AccountService {
	return NewAccountService(testConfig(), AccountDependencies{UserRepo: env.store.Users()})
}

func TestCreateStaffAccountCanLogIn(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	admin := env.user(t, seed.AdminEmail)
	accounts := newAccountService(env)

	user, err := accounts.CreateAccount(ctx, admin, AccountInput{
		Name:     "Clerk Two",
		Email:    "Clerk2@GramPanchayat.gov",
		Password: "clerk123",
		Role:     domain.RoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, "clerk2@grampanchayat.gov", user.Email)

	result, err := env.auth.Login(ctx, "clerk2@grampanchayat.gov", "clerk123")
	require.NoError(t, err)
	assert.Equal(t, "/staff/dashboard", result.Redirect)

	_, err = accounts.CreateAccount(ctx, admin, AccountInput{Name: "Dup", Email: seed.StaffEmail, Password: "secret1", Role: domain.RoleStaff})
	assertCode(t, err, "CONFLICT")

	_, err = accounts.CreateAccount(ctx, admin, AccountInput{Name: "Root", Email: "root@example.com", Password: "secret1", Role: "root"})
	assertCode(t, err, "VALIDATION_FAILED")
}

func TestAccountOperationsRequireAdmin(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	staff := env.user(t, seed.StaffEmail)
	accounts := newAccountService(env)

	_, err := accounts.CreateAccount(ctx, staff, AccountInput{Name: "X", Email: "x@example.com", Password: "secret1", Role: domain.RoleAdmin})
	assertCode(t, err, "FORBIDDEN")

	_, err = accounts.GetAccount(ctx, nil, staff.ID)
	assertCode(t, err, "FORBIDDEN")
}

func TestUpdateAccountRole(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	admin := env.user(t, seed.AdminEmail)
	ramesh := env.user(t, seed.CitizenEmail)
	accounts := newAccountService(env)

	promoted, err := accounts.UpdateAccount(ctx, admin, ramesh.ID, AccountUpdate{Role: domain.RoleStaff})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, promoted.Role)
	assert.Equal(t, "Ramesh Kumar", promoted.Name)

	_, err = accounts.UpdateAccount(ctx, admin, admin.ID, AccountUpdate{Role: domain.RoleCitizen})
	assertCode(t, err, "VALIDATION_FAILED")

	_, err = accounts.UpdateAccount(ctx, admin, "missing", AccountUpdate{Name: "Ghost"})
	assertCode(t, err, "NOT_FOUND")

	fetched, err := accounts.GetAccount(ctx, admin, ramesh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, fetched.Role)
}
