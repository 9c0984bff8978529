package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/api/dto"
	"github.com/spec-kit/gram-portal/internal/service"
)

// DashboardHandler renders the per-role landing pages.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// User GET /user/dashboard.
func (h *DashboardHandler) User(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	dash, err := h.dashboards.User(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserDashboard(dash)})
}

// Staff GET /staff/dashboard.
func (h *DashboardHandler) Staff(c *fiber.Ctx) error {
	dash, err := h.dashboards.Staff(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffDashboard(dash)})
}

// Admin GET /admin/dashboard.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	dash, err := h.dashboards.Admin(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdminDashboard(dash)})
}
