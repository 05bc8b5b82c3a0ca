package impl

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/service"
	"bazaar/internal/usecase"

	"github.com/pkg/errors"
)

// oauthService implements the OAuthUsecase interface.
type oauthService struct {
	providers map[entity.ProviderType]service.OAuthProvider
	ledger    usecase.AccountLedger
	sessions  usecase.SessionUsecase
	metrics   service.IdentityMetrics
	logger    *slog.Logger
}

// NewOAuthService is the constructor for oauthService.
func NewOAuthService(
	providers []service.OAuthProvider,
	ledger usecase.AccountLedger,
	sessions usecase.SessionUsecase,
	metrics service.IdentityMetrics,
	logger *slog.Logger,
) usecase.OAuthUsecase {
	byType := make(map[entity.ProviderType]service.OAuthProvider, len(providers))
	for _, provider := range providers {
		byType[provider.Provider()] = provider
	}

	return &oauthService{
		providers: byType,
		ledger:    ledger,
		sessions:  sessions,
		metrics:   metrics,
		logger:    logger,
	}
}

func (srv *oauthService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// StartSignIn returns the provider authorization URL for the redirect.
func (srv *oauthService) StartSignIn(_ context.Context, providerType entity.ProviderType, callbackURL string) (string, error) {
	provider, ok := srv.providers[providerType]
	if !ok {
		return "", domainerrors.ErrValidationFailed.WrapMessage("unsupported sign-in provider")
	}

	authURL, err := provider.AuthCodeURL(sanitizeCallbackURL(callbackURL))
	if err != nil {
		return "", errors.Wrap(err, "failed to build authorization url")
	}

	return authURL, nil
}

// CompleteSignIn validates state, exchanges the code and starts a platform session.
func (srv *oauthService) CompleteSignIn(ctx context.Context, providerType entity.ProviderType, code, state string) (*usecase.OAuthSignInOutput, error) {
	provider, ok := srv.providers[providerType]
	if !ok {
		return nil, domainerrors.ErrValidationFailed.WrapMessage("unsupported sign-in provider")
	}

	callbackURL, ok := provider.ConsumeState(state)
	if !ok {
		return nil, domainerrors.ErrOAuthStateInvalid
	}

	if code == "" {
		return nil, domainerrors.ErrMissingCode
	}

	identity, err := provider.Exchange(ctx, code)
	if err != nil {
		srv.metrics.RecordExchange(providerType.String(), outcomeRejected)

		var rejected *service.ProviderRejectedError
		if errors.As(err, &rejected) {
			return nil, domainerrors.ErrProviderAuthFailed.WithDetails(rejected.Raw)
		}

		srv.log(ctx).Error("OAuth code exchange failed", slog.Any("error", err))

		return nil, domainerrors.ErrProviderUnavailable.WrapMessage(err.Error())
	}

	resolved, err := srv.ledger.Resolve(ctx, providerType, identity.ProviderAccountID, identity.Hints())
	if err != nil {
		srv.metrics.RecordExchange(providerType.String(), outcomeError)

		return nil, err
	}

	session, err := srv.sessions.StartSession(ctx, resolved.User, providerType)
	if err != nil {
		srv.metrics.RecordExchange(providerType.String(), outcomeError)

		return nil, err
	}

	srv.metrics.RecordExchange(providerType.String(), outcomeSuccess)

	return &usecase.OAuthSignInOutput{
		Session:     session,
		CallbackURL: callbackURL,
	}, nil
}

// sanitizeCallbackURL only allows same-origin paths so sign-in cannot be used as an open redirect.
func sanitizeCallbackURL(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return "/"
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return "/"
	}

	return parsed.String()
}
