// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "credvault/internal/delivery/context"
	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/policy"
	"credvault/internal/domain/repository"
	"credvault/internal/domain/service"
	"credvault/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// registrationService implements the RegistrationUsecase interface.
type registrationService struct {
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	policy      *policy.Policy
	logger      *slog.Logger
}

// RegistrationServiceParams holds dependencies for RegistrationService, injected by Fx.
type RegistrationServiceParams struct {
	fx.In

	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Policy      *policy.Policy
	Logger      *slog.Logger
}

// NewRegistrationService is the constructor for registrationService.
func NewRegistrationService(params RegistrationServiceParams) usecase.RegistrationUsecase {
	return &registrationService{
		accountRepo: params.AccountRepo,
		hasher:      params.Hasher,
		policy:      params.Policy,
		logger:      params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *registrationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register checks email uniqueness, evaluates the password, hashes it and
// creates the account. Nothing is written unless every step succeeds.
func (srv *registrationService) Register(ctx context.Context, input *usecase.RegisterInput) (*usecase.RegisterOutput, error) {
	email := entity.NormalizeEmail(input.Email)
	if email == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("email is required")
	}

	srv.log(ctx).Info("Starting registration", slog.String("email", email))

	_, err := srv.accountRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		srv.log(ctx).Info("Registration refused, email taken", slog.String("email", email))

		return nil, domainerrors.ErrEmailAlreadyRegistered
	case !errors.Is(err, domainerrors.ErrAccountNotFound):
		return nil, errors.Wrap(err, "failed to look up email")
	}

	decision, err := srv.policy.Evaluate(ctx, input.Password, policy.NewContext(email, ""))
	if err != nil {
		return nil, errors.Wrap(err, "failed to evaluate password policy")
	}
	if !decision.IsAccepted() {
		srv.log(ctx).Info("Registration refused by password policy",
			slog.String("email", email),
			slog.String("violation", string(decision.Violation)),
		)

		return nil, domainerrors.ErrWeakPassword.WithDetails(string(decision.Violation))
	}

	hash, err := srv.hasher.Hash(input.Password)
	if err != nil {
		return nil, errors.Wrap(err, "failed to hash password")
	}

	account := &entity.Account{
		Email:        email,
		PasswordHash: hash,
	}
	if err := srv.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domainerrors.ErrEmailAlreadyRegistered) {
			srv.log(ctx).Info("Registration lost a race for the email", slog.String("email", email))
		}

		return nil, errors.Wrap(err, "failed to create account")
	}

	srv.log(ctx).Info("Registration completed", slog.String("email", email), slog.String("accountID", account.ID.String()))

	return &usecase.RegisterOutput{Account: usecase.NewAccountView(account)}, nil
}
