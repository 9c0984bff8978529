package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/domain"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// RequireRoles lets the request through when a principal is present and its
// role is in allowed. An empty allowed set admits any authenticated user.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.User == nil {
			return apperrors.NewLoginRequired()
		}
		if !RoleAllowed(principal.Role(), allowedSet) {
			return apperrors.NewNotAuthorized()
		}
		return c.Next()
	}
}

// RoleAllowed is the guard decision: an empty set admits every role.
func RoleAllowed(role domain.Role, allowed map[domain.Role]struct{}) bool {
	if len(allowed) == 0 {
		return true
	}
	_, ok := allowed[role]
	return ok
}
