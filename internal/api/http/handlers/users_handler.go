package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/api/dto"
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/repository"
	"github.com/spec-kit/gram-portal/internal/service"
	"github.com/spec-kit/gram-portal/pkg/pagination"
)

// UsersHandler exposes account administration.
type UsersHandler struct {
	auth     *service.AuthService
	accounts *service.AccountService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, accounts *service.AccountService) *UsersHandler {
	return &UsersHandler{auth: authService, accounts: accounts}
}

// List handles GET /admin/users?role=&search=&page=&limit=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	users, total, err := h.auth.ListUsers(c.UserContext(), repository.UserFilter{
		Role:   domain.Role(strings.ToLower(strings.TrimSpace(c.Query("role")))),
		Search: c.Query("search"),
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		return err
	}
	return paginated(c, dto.NewUserList(users), params, total)
}

// Create handles POST /admin/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AccountRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.accounts.CreateAccount(c.UserContext(), principal.User, service.AccountInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Get handles GET /admin/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.accounts.GetAccount(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update handles PUT /admin/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AccountUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.accounts.UpdateAccount(c.UserContext(), principal.User, c.Params("id"), service.AccountUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
		Role:    req.Role,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
