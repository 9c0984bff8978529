package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"domain error passes through", NewConflict("Email already registered", nil), "CONFLICT", http.StatusConflict},
		{"wrapped domain error", fmt.Errorf("register: %w", NewValidationError("bad", nil)), "VALIDATION_FAILED", http.StatusBadRequest},
		{"pgx no rows", pgx.ErrNoRows, "NOT_FOUND", http.StatusNotFound},
		{"fiber not found", fiber.ErrNotFound, "NOT_FOUND", http.StatusNotFound},
		{"fiber too many requests", fiber.NewError(http.StatusTooManyRequests, "slow down"), "RATE_LIMITED", http.StatusTooManyRequests},
		{"unknown error", errors.New("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToDomainError(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantStatus, got.HTTPStatus)
		})
	}
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
}

func TestGuardErrorsCarryRedirect(t *testing.T) {
	login := ToDomainError(NewLoginRequired())
	assert.Equal(t, http.StatusUnauthorized, login.HTTPStatus)
	assert.Equal(t, "/login", login.Details["redirect"])

	denied := ToDomainError(NewNotAuthorized())
	assert.Equal(t, http.StatusForbidden, denied.HTTPStatus)
	assert.Equal(t, "/unauthorized", denied.Details["redirect"])
}

func TestInternalErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
