package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/auth"
	"github.com/spec-kit/gram-portal/pkg/pagination"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewLoginRequired()
	}
	return principal, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}

func paginated(c *fiber.Ctx, data any, params pagination.Params, total int) error {
	return c.JSON(pagination.NewResponse(data, params, total))
}
