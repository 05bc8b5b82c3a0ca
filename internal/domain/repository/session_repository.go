package repository

import (
	"context"
	"errors"

	"bazaar/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned when a platform session row does not exist.
var ErrSessionNotFound = errors.New("platform session not found")

// SessionRepository stores database-backed platform sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *entity.PlatformSession) error

	FindByID(ctx context.Context, id uuid.UUID) (*entity.PlatformSession, error)

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id uuid.UUID) error
}
