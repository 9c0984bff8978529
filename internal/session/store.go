package session

import (
	"context"
	"errors"

	"github.com/spec-kit/gram-portal/internal/domain"
)

// ErrNotFound is returned when a session does not exist, was revoked or expired.
var ErrNotFound = errors.New("session not found")

// Store keeps the server-side half of login sessions.
type Store interface {
	Save(ctx context.Context, s *domain.Session) error
	Get(ctx context.Context, id string) (*domain.Session, error)
	Delete(ctx context.Context, id string) error
	// DeleteByUser revokes every session of userID except keep, which may be
	// empty, and reports how many were removed.
	DeleteByUser(ctx context.Context, userID, keep string) (int, error)
}
