// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"bazaar/internal/domain/entity"
)

var (
	// ErrUserNotFound is a domain-specific error returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")

	// ErrConflict is returned when a write hits a unique constraint.
	// Callers that race on the same key re-read instead of surfacing it.
	ErrConflict = errors.New("unique constraint conflict")
)

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*entity.User, error)

	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	// Create persists a new user and fills its generated ID. Returns ErrConflict on a duplicate email or username.
	Create(ctx context.Context, user *entity.User) error
}
