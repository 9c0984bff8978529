package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/api/dto"
	"github.com/spec-kit/gram-portal/internal/service"
	"github.com/spec-kit/gram-portal/pkg/pagination"
)

// ApplicationsHandler serves citizen applications and the staff/admin
// review queue.
type ApplicationsHandler struct {
	service *service.ApplicationService
}

// NewApplicationsHandler constructs handler.
func NewApplicationsHandler(applications *service.ApplicationService) *ApplicationsHandler {
	return &ApplicationsHandler{service: applications}
}

// Submit POST /user/applications.
func (h *ApplicationsHandler) Submit(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SubmitApplicationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.service.Submit(c.UserContext(), principal.User, service.SubmitInput{
		ServiceID: req.ServiceID,
		FormData:  req.FormData,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

// ListOwn GET /user/applications?search=&status=.
func (h *ApplicationsHandler) ListOwn(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	params := pagination.GetParams(c)
	apps, total, err := h.service.ListForUser(c.UserContext(), principal.User.ID, applicationQuery(c, params))
	if err != nil {
		return err
	}
	return paginated(c, dto.NewApplicationList(apps), params, total)
}

// GetOwn GET /user/applications/:id.
func (h *ApplicationsHandler) GetOwn(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetForUser(c.UserContext(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationDetail(detail.Application, detail.History, nil)})
}

// List GET /staff/applications and /admin/applications.
func (h *ApplicationsHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	apps, total, err := h.service.ListForOperator(c.UserContext(), applicationQuery(c, params))
	if err != nil {
		return err
	}
	return paginated(c, dto.NewApplicationList(apps), params, total)
}

// Get GET /staff/applications/:id and /admin/applications/:id.
func (h *ApplicationsHandler) Get(c *fiber.Ctx) error {
	detail, err := h.service.GetForOperator(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	next := service.NextStatuses(detail.Application.Status)
	return c.JSON(fiber.Map{"data": dto.NewApplicationDetail(detail.Application, detail.History, next)})
}

// UpdateStatus PATCH /staff/applications/:id/status and the admin twin.
func (h *ApplicationsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	app, err := h.service.UpdateStatus(c.UserContext(), principal.User, c.Params("id"), req.Status, req.Remarks)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewApplicationResponse(app)})
}

func applicationQuery(c *fiber.Ctx, params pagination.Params) service.ApplicationQuery {
	return service.ApplicationQuery{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Limit:  params.Limit,
		Offset: params.Offset,
	}
}
