package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"bazaar/config"
	deliverycontext "bazaar/internal/delivery/context"
	"bazaar/internal/domain/entity"
	domainerrors "bazaar/internal/domain/errors"
	"bazaar/internal/domain/service"
	"bazaar/internal/usecase"

	"github.com/pkg/errors"
)

// Exchange outcomes recorded in metrics.
const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeInvalid  = "invalid_request"
	outcomeError    = "error"
	outcomeDevToken = "dev_token"
	outcomeCacheHit = "cache_hit"
)

const defaultCodeCacheTTL = 5 * time.Minute

// exchangeService implements the ExchangeUsecase interface.
type exchangeService struct {
	ledger       usecase.AccountLedger
	tokens       service.TokenService
	lineVerifier service.LineTokenVerifier
	wechat       service.WeChatCodeExchanger
	devResolver  service.DevIdentityResolver
	codeCache    service.CodeCache
	metrics      service.IdentityMetrics
	codeCacheTTL time.Duration
	logger       *slog.Logger
}

// NewExchangeService is the constructor for exchangeService.
func NewExchangeService(
	cfg *config.Config,
	ledger usecase.AccountLedger,
	tokens service.TokenService,
	lineVerifier service.LineTokenVerifier,
	wechat service.WeChatCodeExchanger,
	devResolver service.DevIdentityResolver,
	codeCache service.CodeCache,
	metrics service.IdentityMetrics,
	logger *slog.Logger,
) usecase.ExchangeUsecase {
	ttl := defaultCodeCacheTTL
	if cfg.WeChat != nil && cfg.WeChat.CodeCacheTTL > 0 {
		ttl = cfg.WeChat.CodeCacheTTL
	}

	return &exchangeService{
		ledger:       ledger,
		tokens:       tokens,
		lineVerifier: lineVerifier,
		wechat:       wechat,
		devResolver:  devResolver,
		codeCache:    codeCache,
		metrics:      metrics,
		codeCacheTTL: ttl,
		logger:       logger,
	}
}

func (srv *exchangeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ExchangeLine verifies a LINE ID token and returns a bearer token for the linked user.
func (srv *exchangeService) ExchangeLine(ctx context.Context, idToken string) (*usecase.ExchangeOutput, error) {
	provider := entity.ProviderTypeLine
	idToken = strings.TrimSpace(idToken)

	if idToken == "" {
		srv.metrics.RecordExchange(provider.String(), outcomeInvalid)

		return nil, domainerrors.ErrMissingParameter
	}

	outcome := outcomeSuccess

	identity, ok := srv.devResolver.Resolve(idToken)
	if ok {
		outcome = outcomeDevToken
	} else {
		var err error

		identity, err = srv.lineVerifier.VerifyIDToken(ctx, idToken)
		if err != nil {
			srv.metrics.RecordExchange(provider.String(), outcomeRejected)
			srv.log(ctx).Warn("LINE ID token rejected", slog.Any("error", err))

			return nil, domainerrors.ErrInvalidToken.WrapMessage(err.Error())
		}
	}

	output, err := srv.issue(ctx, provider, identity)
	if err != nil {
		srv.metrics.RecordExchange(provider.String(), outcomeError)

		return nil, err
	}

	srv.metrics.RecordExchange(provider.String(), outcome)

	return output, nil
}

const wechatUnreachableDetails = "wechat code2session unreachable"

// ExchangeWeChat trades a mini-program code for a bearer token. A code seen recently
// resolves from the cache, so client retries never reach code2session twice.
func (srv *exchangeService) ExchangeWeChat(ctx context.Context, code string) (*usecase.ExchangeOutput, error) {
	provider := entity.ProviderTypeWeChat
	code = strings.TrimSpace(code)

	if code == "" {
		srv.metrics.RecordExchange(provider.String(), outcomeInvalid)

		return nil, domainerrors.ErrMissingCode
	}

	outcome := outcomeSuccess

	openID, cached, err := srv.codeCache.Get(ctx, code)
	if err != nil {
		srv.log(ctx).Warn("WeChat code cache lookup failed", slog.Any("error", err))
	}

	identity := &entity.ProviderIdentity{Provider: provider, ProviderAccountID: openID}
	if cached {
		outcome = outcomeCacheHit
	} else {
		identity, err = srv.wechat.ExchangeCode(ctx, code)
		if err != nil {
			var rejected *service.ProviderRejectedError
			if errors.As(err, &rejected) {
				srv.metrics.RecordExchange(provider.String(), outcomeRejected)
				srv.log(ctx).Warn("WeChat rejected code", slog.String("raw", rejected.Raw))

				return nil, domainerrors.ErrProviderAuthFailed.WithDetails(rejected.Raw)
			}

			srv.metrics.RecordExchange(provider.String(), outcomeError)
			srv.log(ctx).Error("WeChat code exchange failed", slog.Any("error", err))

			// The transport error embeds the code2session URL, secret included.
			return nil, domainerrors.ErrProviderAuthFailed.WithDetails(wechatUnreachableDetails)
		}

		if err := srv.codeCache.Set(ctx, code, identity.ProviderAccountID, srv.codeCacheTTL); err != nil {
			srv.log(ctx).Warn("Failed to cache WeChat code", slog.Any("error", err))
		}
	}

	output, err := srv.issue(ctx, provider, identity)
	if err != nil {
		srv.metrics.RecordExchange(provider.String(), outcomeError)

		return nil, err
	}

	srv.metrics.RecordExchange(provider.String(), outcome)

	return output, nil
}

func (srv *exchangeService) issue(ctx context.Context, provider entity.ProviderType, identity *entity.ProviderIdentity) (*usecase.ExchangeOutput, error) {
	resolved, err := srv.ledger.Resolve(ctx, provider, identity.ProviderAccountID, identity.Hints())
	if err != nil {
		return nil, err
	}

	token, err := srv.tokens.IssueBearer(resolved.User.ID, resolved.User.Email, provider)
	if err != nil {
		return nil, errors.Wrap(err, "failed to issue bearer token")
	}

	return &usecase.ExchangeOutput{
		Token:   token,
		User:    resolved.User,
		Created: resolved.Created,
	}, nil
}
