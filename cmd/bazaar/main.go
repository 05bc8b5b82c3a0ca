package main

import (
	"context"
	"log/slog"
	"os"

	"bazaar/config"
	"bazaar/internal/delivery"
	"bazaar/internal/delivery/api"
	apimiddleware "bazaar/internal/delivery/api/middleware"
	"bazaar/internal/delivery/api/cookie"
	"bazaar/internal/delivery/api/router/handler"
	"bazaar/internal/delivery/edge"
	"bazaar/internal/domain/service"
	"bazaar/internal/infra/auth"
	"bazaar/internal/infra/auth/devauth"
	"bazaar/internal/infra/auth/facebook"
	"bazaar/internal/infra/auth/line"
	"bazaar/internal/infra/auth/wechat"
	"bazaar/internal/infra/cache"
	logs "bazaar/internal/infra/log"
	"bazaar/internal/infra/metrics"
	"bazaar/internal/infra/persistence/postgres"
	"bazaar/internal/infra/pubsub"
	"bazaar/internal/usecase/impl"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectMiddleware(),
		injectHandler(),
		injectDelivery(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
			metrics.NewRegistry,
			func(reg *prometheus.Registry) prometheus.Registerer { return reg },
			func(reg *prometheus.Registry) prometheus.Gatherer { return reg },
		),
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewUserRepository,
			postgres.NewProviderLinkRepository,
			postgres.NewSessionRepository,
			postgres.NewNotificationRepository,
			postgres.NewLocationLogRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			line.NewVerifier,
			wechat.NewCodeExchanger,
			devauth.NewResolver,
			cache.NewCodeCache,
			fx.Annotate(
				metrics.NewCollector,
				fx.As(new(service.IdentityMetrics)),
			),
			fx.Annotate(
				facebook.NewOAuthProvider,
				fx.ResultTags(`group:"oauth_providers"`),
			),
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAccountLedger,
			impl.NewExchangeService,
			impl.NewSessionService,
			impl.NewLegacyAuthService,
			impl.NewLocationLogService,
			impl.NewNotificationService,
			fx.Annotate(
				impl.NewOAuthService,
				fx.ParamTags(`group:"oauth_providers"`),
			),
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			cookie.NewJar,
			edge.NewVerifier,
			apimiddleware.NewSessionMiddleware,
			apimiddleware.NewEdgeAuth,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewExchangeHandler,
			handler.NewSessionHandler,
			handler.NewLegacyAuthHandler,
			handler.NewOAuthHandler,
			handler.NewLocationHandler,
			handler.NewNotificationHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				// Trigger graceful shutdown to execute all OnStop hooks
				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}
