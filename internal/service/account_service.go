package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/gram-portal/internal/auth"
	"github.com/spec-kit/gram-portal/internal/config"
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/repository"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// AccountService lets administrators provision staff and admin accounts.
// Citizens sign themselves up through AuthService.Register.
type AccountService struct {
	users      repository.UserRepository
	bcryptCost int
	logger     *zap.Logger
}

// AccountDependencies bundles requirements for the account service.
type AccountDependencies struct {
	UserRepo repository.UserRepository
	Logger   *zap.Logger
}

// NewAccountService constructs the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	return &AccountService{
		users:      deps.UserRepo,
		bcryptCost: cfg.Auth.BcryptCost,
		logger:     loggerOrNop(deps.Logger),
	}
}

// AccountInput is the admin form for a new account.
type AccountInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     domain.Role
}

// AccountUpdate changes an existing account. Empty fields keep their value.
type AccountUpdate struct {
	Name    string
	Phone   string
	Address string
	Role    domain.Role
}

func requireAdmin(actor *domain.User) error {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateAccount adds a new account with the requested role.
func (s *AccountService) CreateAccount(ctx context.Context, actor *domain.User, input AccountInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := requireFields(map[string]string{
		"name":     input.Name,
		"email":    input.Email,
		"password": input.Password,
		"role":     string(input.Role),
	}, "name", "email", "password", "role"); err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": input.Role})
	}
	if !validEmail(input.Email) {
		return nil, apperrors.NewValidationError("invalid email address", map[string]any{"field": "email"})
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		PasswordHash: hash,
		Role:         input.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Email already registered", map[string]any{"email": input.Email})
		}
		return nil, err
	}
	s.logger.Info("account provisioned", zap.String("user_id", user.ID), zap.String("role", string(user.Role)), zap.String("by", actor.ID))
	return user, nil
}

// GetAccount fetches any account.
func (s *AccountService) GetAccount(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// UpdateAccount edits profile fields and the role. Administrators cannot
// change their own role, so at least one admin always remains.
func (s *AccountService) UpdateAccount(ctx context.Context, actor *domain.User, id string, update AccountUpdate) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound("user", err)
	}
	if update.Role != "" {
		if !update.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": update.Role})
		}
		if user.ID == actor.ID && update.Role != user.Role {
			return nil, apperrors.NewValidationError("cannot change your own role", map[string]any{"field": "role"})
		}
		user.Role = update.Role
	}
	if name := strings.TrimSpace(update.Name); name != "" {
		user.Name = name
	}
	if phone := strings.TrimSpace(update.Phone); phone != "" {
		user.Phone = phone
	}
	if address := strings.TrimSpace(update.Address); address != "" {
		user.Address = address
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}
