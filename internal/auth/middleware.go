package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gram-portal/internal/repository"
	"github.com/spec-kit/gram-portal/internal/session"
	apperrors "github.com/spec-kit/gram-portal/pkg/util/errorutil"
)

// Authenticator validates bearer tokens against the session store and loads
// the calling user.
type Authenticator struct {
	tokens   *TokenManager
	sessions session.Store
	users    repository.UserRepository
}

// NewAuthenticator constructs middleware.
func NewAuthenticator(tokens *TokenManager, sessions session.Store, users repository.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, sessions: sessions, users: users}
}

// Handle enforces a live session for protected routes.
func (m *Authenticator) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewLoginRequired()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return apperrors.NewLoginRequired()
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewLoginRequired()
	}

	ctx := c.UserContext()
	sess, err := m.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return apperrors.NewLoginRequired()
		}
		return apperrors.MapError(err)
	}
	if sess.UserID != claims.Subject {
		return apperrors.NewLoginRequired()
	}

	user, err := m.users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewLoginRequired()
		}
		return apperrors.MapError(err)
	}

	principal := &Principal{User: user, Session: sess}
	c.Locals(principalKey, principal)
	c.SetUserContext(WithPrincipal(ctx, principal))
	return c.Next()
}
