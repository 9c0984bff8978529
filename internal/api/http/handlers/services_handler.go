package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/api/dto"
	"github.com/spec-kit/gram-portal/internal/service"
	"github.com/spec-kit/gram-portal/pkg/pagination"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// ServicesHandler serves the public catalogue and its admin management.
type ServicesHandler struct {
	catalog *service.CatalogService
}

// NewServicesHandler constructs handler.
func NewServicesHandler(catalog *service.CatalogService) *ServicesHandler {
	return &ServicesHandler{catalog: catalog}
}

// List GET /services?search=&category=.
func (h *ServicesHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	services, total, err := h.catalog.ListPublic(c.UserContext(), service.CatalogQuery{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Limit:    params.Limit,
		Offset:   params.Offset,
	})
	if err != nil {
		return err
	}
	return paginated(c, dto.NewServiceList(services), params, total)
}

// Categories GET /services/categories.
func (h *ServicesHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.catalog.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categories})
}

// Get GET /services/:id.
func (h *ServicesHandler) Get(c *fiber.Ctx) error {
	svc, err := h.catalog.GetPublic(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// AdminList GET /admin/services?search=.
func (h *ServicesHandler) AdminList(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	services, total, err := h.catalog.ListAdmin(c.UserContext(), service.CatalogQuery{
		Search: c.Query("search"),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}
	return paginated(c, dto.NewServiceList(services), params, total)
}

// AdminGet GET /admin/services/:id.
func (h *ServicesHandler) AdminGet(c *fiber.Ctx) error {
	svc, err := h.catalog.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// Create POST /admin/services.
func (h *ServicesHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ServiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.catalog.Create(c.UserContext(), principal.User, serviceInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// Update PUT /admin/services/:id.
func (h *ServicesHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ServiceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	svc, err := h.catalog.Update(c.UserContext(), principal.User, c.Params("id"), serviceInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// SetActive PATCH /admin/services/:id/active.
func (h *ServicesHandler) SetActive(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ServiceActiveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.IsActive == nil {
		return apperrors.NewValidationError("is_active required", map[string]any{"field": "is_active"})
	}
	svc, err := h.catalog.SetActive(c.UserContext(), principal.User, c.Params("id"), *req.IsActive)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewServiceResponse(svc)})
}

// Delete DELETE /admin/services/:id.
func (h *ServicesHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.catalog.Delete(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func serviceInput(req dto.ServiceRequest) service.ServiceInput {
	return service.ServiceInput{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Eligibility:       req.Eligibility,
		RequiredDocuments: req.RequiredDocuments,
		IsActive:          req.IsActive,
	}
}
