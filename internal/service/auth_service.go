package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/gram-portal/internal/auth"
	"github.com/spec-kit/gram-portal/internal/config"
	"github.com/spec-kit/gram-portal/internal/domain"
	"github.com/spec-kit/gram-portal/internal/events"
	"github.com/spec-kit/gram-portal/internal/observability"
	"github.com/spec-kit/gram-portal/internal/repository"
	"github.com/spec-kit/gram-portal/internal/session"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// AuthService coordinates registration, login and account flows.
type AuthService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	sessions   session.Store
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Sessions          session.Store
	Dispatcher        events.Dispatcher
	Metrics           *observability.Metrics
	Logger            *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		sessions:   deps.Sessions,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
		now:        time.Now,
	}
}

// AuthResult is the session handed to a client after login or registration.
type AuthResult struct {
	User      *domain.User
	Token     string
	SessionID string
	ExpiresAt time.Time
	Redirect  string
}

// RegisterInput carries the sign-up form.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
}

// ProfileInput carries the editable profile fields.
type ProfileInput struct {
	Name    string
	Phone   string
	Address string
}

// Register creates a citizen account and signs it in.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = normalizeEmail(input.Email)
	if err := requireFields(map[string]string{
		"name":     input.Name,
		"email":    input.Email,
		"password": input.Password,
	}, "name", "email", "password"); err != nil {
		return nil, err
	}
	if !validEmail(input.Email) {
		return nil, apperrors.NewValidationError("invalid email address", map[string]any{"field": "email"})
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"field": "password"})
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewConflict("Email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("Email already registered", nil)
		}
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.New(events.EventUserRegistered, user.ID, actorOf(user),
		events.UserRegisteredPayload{Name: user.Name, Email: user.Email}))

	return s.startSession(ctx, user)
}

// Login authenticates by email and password. A failed attempt leaves every
// existing session untouched.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordLogin(false)
			return nil, apperrors.NewInvalidCredentials()
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		s.metrics.RecordLogin(false)
		return nil, apperrors.NewInvalidCredentials()
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordLogin(true)
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return result, nil
}

func (s *AuthService) startSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	issued, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, &issued.Session); err != nil {
		return nil, err
	}
	return &AuthResult{
		User:      user,
		Token:     issued.Token,
		SessionID: issued.Session.ID,
		ExpiresAt: issued.Session.ExpiresAt,
		Redirect:  auth.LandingRoute(user.Role),
	}, nil
}

// Logout revokes the session. Revoking an unknown session is not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return nil
}

// UpdateProfile edits the caller's own name, phone and address.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound("user", err)
	}
	user.Name = input.Name
	user.Phone = strings.TrimSpace(input.Phone)
	user.Address = strings.TrimSpace(input.Address)
	if err := s.users.Update(ctx, user); err != nil {
		return nil, notFound("user", err)
	}
	return user, nil
}

// ChangePassword verifies the current password before storing the new hash,
// then signs out every other session of the account. keepSessionID names the
// caller's own session.
func (s *AuthService) ChangePassword(ctx context.Context, userID, keepSessionID, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "new_password"})
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return notFound("user", err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", map[string]any{"field": "current_password"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return notFound("user", err)
	}
	return s.revokeSessions(ctx, user.ID, keepSessionID)
}

func (s *AuthService) revokeSessions(ctx context.Context, userID, keep string) error {
	removed, err := s.sessions.DeleteByUser(ctx, userID, keep)
	if err != nil {
		return err
	}
	if removed > 0 {
		s.logger.Info("revoked sessions after password change", zap.String("user_id", userID), zap.Int("count", removed))
	}
	return nil
}

// RequestPasswordReset stores a one-time token for the account. Unknown
// emails yield (nil, nil) so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*domain.PasswordResetToken, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, err
	}
	s.logger.Info("password reset requested", zap.String("user_id", user.ID))
	return token, nil
}

// ConfirmPasswordReset consumes the reset token, updates the password and
// signs out every session of the account.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "new_password"})
	}
	invalid := apperrors.NewValidationError("reset token is invalid or expired", map[string]any{"field": "token"})

	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return err
	}
	if token.UsedAt != nil || s.now().After(token.ExpiresAt) {
		return invalid
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		return notFound("user", err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	// Claim the token before touching the password so two concurrent
	// confirmations cannot both succeed.
	if err := s.resets.MarkUsed(ctx, token.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return err
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return notFound("user", err)
	}
	return s.revokeSessions(ctx, user.ID, "")
}

// ListUsers returns accounts for the admin console.
func (s *AuthService) ListUsers(ctx context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, 0, apperrors.NewValidationError("invalid role", map[string]any{"role": filter.Role})
	}
	return s.users.List(ctx, filter)
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
