package impl

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"bazaar/config"
	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/repository"
	"bazaar/internal/domain/service"
	"bazaar/internal/usecase"

	"github.com/pkg/errors"
)

const (
	defaultSessionTTL = 30 * 24 * time.Hour
	sourceGuest       = "guest"
)

// sessionService implements the SessionUsecase interface.
type sessionService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      service.TokenService
	metrics     service.IdentityMetrics
	sessionTTL  time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewSessionService is the constructor for sessionService.
func NewSessionService(
	cfg *config.Config,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokens service.TokenService,
	metrics service.IdentityMetrics,
	logger *slog.Logger,
) usecase.SessionUsecase {
	ttl := defaultSessionTTL
	if cfg.Session != nil && cfg.Session.SessionTTL > 0 {
		ttl = cfg.Session.SessionTTL
	}

	return &sessionService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		metrics:     metrics,
		sessionTTL:  ttl,
		logger:      logger,
		now:         time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *sessionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Resolve returns the current user for the request. Every source that fails to verify is
// treated as absent and the next one is tried; an invalid credential never fails the request.
func (srv *sessionService) Resolve(ctx context.Context, creds usecase.Credentials) (*entity.CurrentUser, error) {
	resolvers := []func(context.Context, usecase.Credentials) *entity.CurrentUser{
		srv.fromPlatformSession,
		srv.fromBearer,
		srv.fromLegacy,
	}

	for _, resolve := range resolvers {
		if user := resolve(ctx, creds); user != nil {
			srv.metrics.RecordCurrentUser(string(user.Source))

			return user, nil
		}
	}

	srv.metrics.RecordCurrentUser(sourceGuest)

	return nil, nil
}

func (srv *sessionService) fromPlatformSession(ctx context.Context, creds usecase.Credentials) *entity.CurrentUser {
	if creds.SessionToken == "" {
		return nil
	}

	claims, err := srv.tokens.VerifySession(creds.SessionToken)
	if err != nil {
		srv.log(ctx).Debug("Ignoring invalid session cookie", slog.Any("error", err))

		return nil
	}

	session, err := srv.sessionRepo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			srv.log(ctx).Error("Failed to load platform session", slog.Any("error", err))
		}

		return nil
	}

	if session.IsExpired(srv.now()) || session.UserID != claims.UserID {
		return nil
	}

	user, err := srv.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		srv.log(ctx).Warn("Platform session points at unknown user", slog.Any("error", err))

		return nil
	}

	return entity.CurrentUserFromUser(user, session.Provider, entity.SourcePlatformSession)
}

func (srv *sessionService) fromBearer(ctx context.Context, creds usecase.Credentials) *entity.CurrentUser {
	if creds.BearerToken == "" {
		return nil
	}

	claims, err := srv.tokens.VerifyBearer(creds.BearerToken)
	if err != nil {
		srv.log(ctx).Debug("Ignoring invalid bearer token", slog.Any("error", err))

		return nil
	}

	current := &entity.CurrentUser{
		ID:           claims.UserID,
		Email:        claims.Email,
		Provider:     entity.SessionKindOAuth,
		AuthProvider: claims.Provider,
		Source:       entity.SourceBearer,
	}

	// The token is authoritative; the lookup only adds display fields.
	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	switch {
	case err == nil:
		current.Name = user.Name
		current.Username = user.DisplayUsername()
	case errors.Is(err, repository.ErrUserNotFound):
		return nil
	default:
		srv.log(ctx).Warn("Failed to enrich bearer user", slog.Any("error", err))
	}

	return current
}

func (srv *sessionService) fromLegacy(ctx context.Context, creds usecase.Credentials) *entity.CurrentUser {
	if creds.LegacyUserInfo != "" {
		var info entity.LegacyUserInfo
		if err := json.Unmarshal([]byte(creds.LegacyUserInfo), &info); err == nil && info.ID > 0 {
			return &entity.CurrentUser{
				ID:       info.ID,
				Email:    info.Email,
				Name:     info.Name,
				Username: info.Username,
				Provider: entity.SessionKindTraditional,
				Source:   entity.SourceLegacy,
			}
		}

		srv.log(ctx).Debug("Ignoring unreadable userInfo cookie")
	}

	if creds.LegacyUserID == "" {
		return nil
	}

	userID, err := strconv.ParseInt(creds.LegacyUserID, 10, 64)
	if err != nil || userID <= 0 {
		return nil
	}

	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil
	}

	return &entity.CurrentUser{
		ID:       user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Username: user.DisplayUsername(),
		Provider: entity.SessionKindTraditional,
		Source:   entity.SourceLegacy,
	}
}

// Adopt turns a bearer token into a platform session so downstream code sees one mechanism.
func (srv *sessionService) Adopt(ctx context.Context, bearerToken string) (*usecase.SessionOutput, error) {
	if bearerToken == "" {
		return nil, domainerrors.ErrMissingParameter.WrapMessage("token is required")
	}

	claims, err := srv.tokens.VerifyBearer(bearerToken)
	if err != nil {
		return nil, domainerrors.ErrInvalidToken.WrapMessage(err.Error())
	}

	user, err := srv.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, domainerrors.ErrInvalidToken.WrapMessage("token user no longer exists")
		}

		return nil, errors.Wrap(err, "failed to load token user")
	}

	return srv.StartSession(ctx, user, claims.Provider)
}

// StartSession persists a platform session row and signs its cookie value.
func (srv *sessionService) StartSession(ctx context.Context, user *entity.User, provider entity.ProviderType) (*usecase.SessionOutput, error) {
	session := &entity.PlatformSession{
		UserID:    user.ID,
		Provider:  provider,
		ExpiresAt: srv.now().Add(srv.sessionTTL).UTC(),
	}

	if err := srv.sessionRepo.Create(ctx, session); err != nil {
		return nil, errors.Wrap(err, "failed to create platform session")
	}

	token, err := srv.tokens.IssueSession(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign platform session")
	}

	srv.log(ctx).Info("Platform session started",
		slog.Int64("user_id", user.ID),
		slog.String("provider", provider.String()),
	)

	return &usecase.SessionOutput{
		SessionToken: token,
		ExpiresAt:    session.ExpiresAt,
		User:         entity.CurrentUserFromUser(user, provider, entity.SourcePlatformSession),
	}, nil
}

// Logout deletes the platform session row when one is presented. Bearer and legacy
// credentials have no server-side state.
func (srv *sessionService) Logout(ctx context.Context, creds usecase.Credentials) error {
	if creds.SessionToken == "" {
		return nil
	}

	claims, err := srv.tokens.VerifySession(creds.SessionToken)
	if err != nil {
		return nil
	}

	if err := srv.sessionRepo.Delete(ctx, claims.SessionID); err != nil {
		return errors.Wrap(err, "failed to delete platform session")
	}

	srv.log(ctx).Info("Platform session ended", slog.Int64("user_id", claims.UserID))

	return nil
}
