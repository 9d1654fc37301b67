package impl

import (
	"context"
	"log/slog"

	deliverycontext "credvault/internal/delivery/context"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/policy"
	"credvault/internal/domain/repository"
	"credvault/internal/domain/service"
	"credvault/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// rotationService implements the RotationUsecase interface.
type rotationService struct {
	accountRepo repository.AccountRepository
	hasher      service.PasswordHasher
	policy      *policy.Policy
	logger      *slog.Logger
}

// RotationServiceParams holds dependencies for RotationService, injected by Fx.
type RotationServiceParams struct {
	fx.In

	AccountRepo repository.AccountRepository
	Hasher      service.PasswordHasher
	Policy      *policy.Policy
	Logger      *slog.Logger
}

// NewRotationService is the constructor for rotationService.
func NewRotationService(params RotationServiceParams) usecase.RotationUsecase {
	return &rotationService{
		accountRepo: params.AccountRepo,
		hasher:      params.Hasher,
		policy:      params.Policy,
		logger:      params.Logger,
	}
}

func (srv *rotationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ChangePassword verifies the current password before any policy work, then
// swaps the digest only if it is still the one that was verified.
func (srv *rotationService) ChangePassword(ctx context.Context, input *usecase.ChangePasswordInput) error {
	logger := srv.log(ctx).With(slog.String("accountID", input.AccountID.String()))
	logger.Info("Starting password rotation")

	account, err := srv.accountRepo.FindByID(ctx, input.AccountID)
	if err != nil {
		return errors.Wrap(err, "failed to find account")
	}

	ok, err := srv.hasher.Check(input.CurrentPassword, account.PasswordHash)
	if err != nil {
		logger.Error("Stored digest could not be verified", slog.Any("error", err))

		return errors.Wrap(err, "failed to verify current password")
	}
	if !ok {
		logger.Info("Password rotation refused, current password mismatch")

		return domainerrors.ErrInvalidCurrentPassword
	}

	decision, err := srv.policy.Evaluate(ctx, input.NewPassword, policy.NewContext(account.Email, account.PasswordHash))
	if err != nil {
		return errors.Wrap(err, "failed to evaluate password policy")
	}
	if !decision.IsAccepted() {
		logger.Info("Password rotation refused by password policy", slog.String("violation", string(decision.Violation)))

		return domainerrors.ErrWeakPassword.WithDetails(string(decision.Violation))
	}

	hash, err := srv.hasher.Hash(input.NewPassword)
	if err != nil {
		return errors.Wrap(err, "failed to hash password")
	}

	if err := srv.accountRepo.UpdatePasswordHash(ctx, account.ID, account.PasswordHash, hash); err != nil {
		if errors.Is(err, domainerrors.ErrConcurrentRotation) {
			logger.Warn("Password rotation lost to a concurrent rotation")
		}

		return errors.Wrap(err, "failed to store new password hash")
	}

	logger.Info("Password rotation completed")

	return nil
}
