package usecase

import (
	"context"

	"bazaar/internal/domain/entity"
)

// RegisterInput defines the data required to register a password user.
type RegisterInput struct {
	Username string
	Email    string
	Name     string
	Password string
}

// LoginInput defines the data required for a password login.
type LoginInput struct {
	Username string
	Password string
}

// LegacyLoginOutput carries what the legacy cookies are built from.
type LegacyLoginOutput struct {
	User *entity.User
	Info entity.LegacyUserInfo
}

// LegacyAuthUsecase is the username/password channel that predates provider sign-in.
type LegacyAuthUsecase interface {
	Register(ctx context.Context, input RegisterInput) (*entity.User, error)
	Login(ctx context.Context, input LoginInput) (*LegacyLoginOutput, error)
}
