package impl

import (
	"io"
	"log/slog"
	"testing"

	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/policy"
	mockRepo "credvault/internal/mocks/repository"
	mockSvc "credvault/internal/mocks/service"
	"credvault/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// serviceFixtures holds both credential use cases and their mocked collaborators.
// The policy is real and shares the hasher and oracle mocks.
type serviceFixtures struct {
	registration usecase.RegistrationUsecase
	rotation     usecase.RotationUsecase
	accountRepo  *mockRepo.MockAccountRepository
	hasher       *mockSvc.MockPasswordHasher
	oracle       *mockSvc.MockBreachOracle
}

func createTestServices(t *testing.T, mode policy.FailureMode) serviceFixtures {
	accountRepo := mockRepo.NewMockAccountRepository(t)
	hasher := mockSvc.NewMockPasswordHasher(t)
	oracle := mockSvc.NewMockBreachOracle(t)
	logger := newDiscardLogger()
	p := policy.New(policy.Options{FailureMode: mode}, hasher, oracle, logger)

	return serviceFixtures{
		registration: NewRegistrationService(RegistrationServiceParams{
			AccountRepo: accountRepo,
			Hasher:      hasher,
			Policy:      p,
			Logger:      logger,
		}),
		rotation: NewRotationService(RotationServiceParams{
			AccountRepo: accountRepo,
			Hasher:      hasher,
			Policy:      p,
			Logger:      logger,
		}),
		accountRepo: accountRepo,
		hasher:      hasher,
		oracle:      oracle,
	}
}

// assertNoWrites checks that neither store mutation ran.
func (fx serviceFixtures) assertNoWrites(t *testing.T) {
	t.Helper()

	fx.accountRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	fx.accountRepo.AssertNotCalled(t, "UpdatePasswordHash", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func violationOf(t *testing.T, err error) string {
	t.Helper()

	var baseErr *domainerrors.BaseError
	require.True(t, errors.As(err, &baseErr), "expected a BaseError, got %v", err)

	return baseErr.Details()
}
