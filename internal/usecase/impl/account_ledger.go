// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/domain/service"
	"bazaar/internal/usecase"

	"github.com/pkg/errors"
)

// accountLedger implements the AccountLedger interface.
type accountLedger struct {
	txManager repository.TransactionManager
	userRepo  repository.UserRepository
	linkRepo  repository.ProviderLinkRepository
	publisher service.EventPublisher
	metrics   service.IdentityMetrics
	logger    *slog.Logger
	now       func() time.Time
}

// NewAccountLedger is the constructor for accountLedger.
func NewAccountLedger(
	txManager repository.TransactionManager,
	userRepo repository.UserRepository,
	linkRepo repository.ProviderLinkRepository,
	publisher service.EventPublisher,
	metrics service.IdentityMetrics,
	logger *slog.Logger,
) usecase.AccountLedger {
	return &accountLedger{
		txManager: txManager,
		userRepo:  userRepo,
		linkRepo:  linkRepo,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *accountLedger) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Resolve finds or creates the user for a provider account. The unique index on
// (provider, provider_account_id) decides races: the loser rolls back and reads the winner.
func (srv *accountLedger) Resolve(ctx context.Context, provider entity.ProviderType, providerAccountID string, hints entity.ProfileHints) (*usecase.ResolveResult, error) {
	if !provider.IsValid() || providerAccountID == "" {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("provider and provider account id are required")
	}

	logger := srv.log(ctx).With(slog.String("provider", provider.String()))

	result, err := srv.findOrCreate(ctx, provider, providerAccountID, hints, false)
	if errors.Is(err, repository.ErrConflict) {
		logger.Info("Concurrent link creation detected, re-reading winner")

		result, err = srv.readWinner(ctx, provider, providerAccountID)
		if errors.Is(err, repository.ErrLinkNotFound) {
			// The conflict was on the user's email, not the link. Retry with the synthesized address.
			logger.Info("Email already taken, creating user with synthesized email")

			result, err = srv.findOrCreate(ctx, provider, providerAccountID, hints, true)
			if errors.Is(err, repository.ErrConflict) {
				result, err = srv.readWinner(ctx, provider, providerAccountID)
			}
		}
	}
	if err != nil {
		logger.Error("Failed to resolve provider account", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to resolve provider account")
	}

	if result.Created {
		srv.metrics.RecordLinkCreated(provider.String())
		srv.publishLinked(ctx, result.User, provider, providerAccountID)
		logger.Info("Provider account linked to new user", slog.Int64("user_id", result.User.ID))
	}

	return result, nil
}

func (srv *accountLedger) findOrCreate(ctx context.Context, provider entity.ProviderType, providerAccountID string, hints entity.ProfileHints, forceSyntheticEmail bool) (*usecase.ResolveResult, error) {
	var result *usecase.ResolveResult

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.UserRepo()
		linkRepo := repoFactory.LinkRepo()

		// 1. Existing link wins; profile fields are never overwritten.
		link, err := linkRepo.Find(ctx, provider, providerAccountID)
		if err == nil {
			user, err := userRepo.FindByID(ctx, link.UserID)
			if err != nil {
				return errors.Wrap(err, "failed to load linked user")
			}

			result = &usecase.ResolveResult{User: user}

			return nil
		}
		if !errors.Is(err, repository.ErrLinkNotFound) {
			return errors.Wrap(err, "failed to find provider link")
		}

		// 2. Pick an email that cannot unify this identity with an existing user.
		email, err := srv.chooseEmail(ctx, userRepo, provider, providerAccountID, hints.Email, forceSyntheticEmail)
		if err != nil {
			return err
		}

		user := &entity.User{
			Email:   email,
			Name:    hints.Name,
			Picture: hints.Picture,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			return err
		}

		// 3. The link insert is the serialization point for concurrent first sign-ins.
		if err := linkRepo.Create(ctx, &entity.ProviderLink{
			UserID:            user.ID,
			Provider:          provider,
			ProviderAccountID: providerAccountID,
		}); err != nil {
			return err
		}

		// 4. Welcome notification commits with the link.
		if err := repoFactory.NotificationRepo().Create(ctx, entity.NewWelcomeNotification(user.ID, provider)); err != nil {
			return errors.Wrap(err, "failed to create welcome notification")
		}

		result = &usecase.ResolveResult{User: user, Created: true}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (srv *accountLedger) chooseEmail(ctx context.Context, userRepo repository.UserRepository, provider entity.ProviderType, providerAccountID, hinted string, forceSynthetic bool) (string, error) {
	synthetic := provider.SyntheticEmail(providerAccountID)
	if hinted == "" || forceSynthetic {
		return synthetic, nil
	}

	_, err := userRepo.FindByEmail(ctx, hinted)
	if errors.Is(err, repository.ErrUserNotFound) {
		return hinted, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to check email")
	}

	return synthetic, nil
}

// readWinner runs outside the aborted transaction.
func (srv *accountLedger) readWinner(ctx context.Context, provider entity.ProviderType, providerAccountID string) (*usecase.ResolveResult, error) {
	link, err := srv.linkRepo.Find(ctx, provider, providerAccountID)
	if err != nil {
		return nil, err
	}

	user, err := srv.userRepo.FindByID(ctx, link.UserID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load linked user")
	}

	return &usecase.ResolveResult{User: user}, nil
}

// publishLinked is best effort; the link is already committed.
func (srv *accountLedger) publishLinked(ctx context.Context, user *entity.User, provider entity.ProviderType, providerAccountID string) {
	event := &service.AccountLinkedEvent{
		RequestID:         deliverycontext.GetRequestIDFromContext(ctx),
		UserID:            user.ID,
		Provider:          provider.String(),
		ProviderAccountID: providerAccountID,
		LinkedAt:          srv.now().UTC(),
	}

	if err := srv.publisher.PublishAccountLinked(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish account linked event",
			slog.Any("error", err),
			slog.Int64("user_id", user.ID),
		)
	}
}
