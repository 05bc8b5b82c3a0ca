package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/domain/service"
	"bazaar/internal/usecase"

	"github.com/pkg/errors"
)

// legacyAuthService implements the LegacyAuthUsecase interface.
type legacyAuthService struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	linkRepo  repository.ProviderLinkRepository
	hasher    service.PasswordHasher
	logger    *slog.Logger
}

// NewLegacyAuthService is the constructor for legacyAuthService.
func NewLegacyAuthService(
	txManager repository.TransactionManager,
	userRepo repository.UserRepository,
	linkRepo repository.ProviderLinkRepository,
	hasher service.PasswordHasher,
	logger *slog.Logger,
) usecase.LegacyAuthUsecase {
	return &legacyAuthService{
		txManager: txManager,
		userRepo:  userRepo,
		linkRepo:  linkRepo,
		hasher:    hasher,
		logger:    logger,
	}
}

func (srv *legacyAuthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates a user plus a credentials link holding the password hash.
func (srv *legacyAuthService) Register(ctx context.Context, input usecase.RegisterInput) (*entity.User, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	if username == "" || email == "" || input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("username, email and password are required")
	}

	// Synthesized provider addresses must stay free for the ledger.
	if entity.IsSyntheticEmail(email) {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("email domain is reserved")
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(domainerrors.ErrPasswordHashFailed, err.Error())
	}

	user := &entity.User{
		Email:    email,
		Name:     input.Name,
		Username: &username,
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()

		if _, err := userRepo.FindByUsername(ctx, username); err == nil {
			return domainerrors.ErrUserAlreadyExists
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check username")
		}

		if _, err := userRepo.FindByEmail(ctx, email); err == nil {
			return domainerrors.ErrUserAlreadyExists
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return errors.Wrap(err, "failed to check email")
		}

		if err := userRepo.Create(ctx, user); err != nil {
			return err
		}

		return repoFactory.LinkRepo().Create(ctx, &entity.ProviderLink{
			UserID:            user.ID,
			Provider:          entity.ProviderTypeCredentials,
			ProviderAccountID: username,
			PasswordHash:      hash,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, domainerrors.ErrUserAlreadyExists
		}

		srv.log(ctx).Warn("Failed to register user", slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Password user registered", slog.Int64("user_id", user.ID))

	return user, nil
}

// Login checks the password and returns the data for the userId/userInfo cookies.
func (srv *legacyAuthService) Login(ctx context.Context, input usecase.LoginInput) (*usecase.LegacyLoginOutput, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("username and password are required")
	}

	link, err := srv.linkRepo.Find(ctx, entity.ProviderTypeCredentials, username)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, domainerrors.ErrInvalidCredentials
		}

		return nil, errors.Wrap(err, "failed to find credentials")
	}

	if !srv.hasher.Check(input.Password, link.PasswordHash) {
		srv.log(ctx).Info("Password login rejected", slog.Int64("user_id", link.UserID))

		return nil, domainerrors.ErrInvalidCredentials
	}

	user, err := srv.userRepo.FindByID(ctx, link.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}

	return &usecase.LegacyLoginOutput{
		User: user,
		Info: entity.LegacyUserInfo{
			ID:       user.ID,
			Email:    user.Email,
			Name:     user.Name,
			Username: user.DisplayUsername(),
		},
	}, nil
}
