package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/domain"
)

const principalKey = "auth_principal"

type principalCtxKey struct{}

// Principal represents the authenticated caller of a request.
type Principal struct {
	User    *domain.User
	Session *domain.Session
}

// Role returns the role the session was issued for.
func (p *Principal) Role() domain.Role {
	if p == nil || p.User == nil {
		return ""
	}
	return p.User.Role
}

// WithPrincipal returns a child context carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalCtxKey{}, p)
}

// FromContext extracts the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalCtxKey{}).(*Principal)
	return p, ok && p != nil
}

// PrincipalFromContext retrieves the authenticated entity from fiber locals.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

// Landing dashboards per role.
const (
	AdminDashboardRoute = "/admin/dashboard"
	StaffDashboardRoute = "/staff/dashboard"
	UserDashboardRoute  = "/user/dashboard"
)

// LandingRoute maps a role to the dashboard shown after login.
func LandingRoute(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminDashboardRoute
	case domain.RoleStaff:
		return StaffDashboardRoute
	default:
		return UserDashboardRoute
	}
}
