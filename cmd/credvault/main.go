package main

import (
	"context"
	"log/slog"
	"os"

	"credvault/config"
	"credvault/internal/delivery"
	"credvault/internal/delivery/api"
	"credvault/internal/delivery/api/router/handler"
	"credvault/internal/domain/policy"
	"credvault/internal/domain/repository"
	"credvault/internal/domain/service"
	"credvault/internal/infra/auth"
	"credvault/internal/infra/breach"
	"credvault/internal/infra/cache"
	logs "credvault/internal/infra/log"
	"credvault/internal/infra/persistence/memory"
	"credvault/internal/infra/persistence/postgres"
	"credvault/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		cache.NewRedis,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			newAccountRepository,
		),
	)
}

// newAccountRepository selects the account store by store.driver.
// The postgres connection is only opened for the postgres driver.
func newAccountRepository(cfg *config.Config, logger *slog.Logger, lc fx.Lifecycle) (repository.AccountRepository, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		logger.Warn("Using in-memory account store, accounts are lost on restart")

		return memory.NewAccountRepository(), nil
	}

	db, err := postgres.New(postgres.Params{Lifecycle: lc, Config: cfg, Logger: logger})
	if err != nil {
		return nil, err
	}

	return postgres.NewAccountRepository(db), nil
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewPasswordHasher,
			breach.NewBreachOracle,
			newPasswordPolicy,
		),
	)
}

// newPasswordPolicy builds the policy from config; a nil oracle skips the breach rule.
func newPasswordPolicy(cfg *config.Config, hasher service.PasswordHasher, oracle service.BreachOracle, logger *slog.Logger) *policy.Policy {
	opts := policy.Options{FailureMode: policy.FailClosed}
	if cfg.Policy != nil {
		opts.MinLength = cfg.Policy.MinLength
		opts.MaxLength = cfg.Policy.MaxLength
	}
	if cfg.Breach != nil && cfg.Breach.FailureMode == config.BreachFailOpen {
		opts.FailureMode = policy.FailOpen
	}

	return policy.New(opts, hasher, oracle, logger)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewRegistrationService,
			impl.NewRotationService,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAccountHandler,
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
				os.Exit(1)
			}
		}()
	}
}
