package impl

import (
	"context"
	"testing"

	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/policy"
	"credvault/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStoredAccount(email string) *entity.Account {
	return &entity.Account{ID: uuid.New(), Email: email, PasswordHash: "digest-old"}
}

func TestRotationService_ChangePassword_Success(t *testing.T) {
	fx := createTestServices(t, policy.FailClosed)

	ctx := context.Background()
	account := newStoredAccount("alice@example.com")
	input := &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: "old-password-1",
		NewPassword:     "brand-new-password-2",
	}

	fx.accountRepo.EXPECT().FindByID(ctx, account.ID).Return(account, nil).Once()
	fx.hasher.EXPECT().Check(input.CurrentPassword, "digest-old").Return(true, nil).Once()
	fx.hasher.EXPECT().Check(input.NewPassword, "digest-old").Return(false, nil).Once()
	fx.oracle.EXPECT().IsCompromised(ctx, input.NewPassword).Return(false, nil).Once()
	fx.hasher.EXPECT().Hash(input.NewPassword).Return("digest-new", nil).Once()
	fx.accountRepo.EXPECT().
		UpdatePasswordHash(ctx, account.ID, "digest-old", "digest-new").
		Return(nil).
		Once()

	err := fx.rotation.ChangePassword(ctx, input)

	require.NoError(t, err)
}

func TestRotationService_ChangePassword_AccountNotFound(t *testing.T) {
	fx := createTestServices(t, policy.FailClosed)
	ctx := context.Background()
	id := uuid.New()

	fx.accountRepo.EXPECT().FindByID(ctx, id).Return(nil, domainerrors.ErrAccountNotFound).Once()

	err := fx.rotation.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       id,
		CurrentPassword: "old-password-1",
		NewPassword:     "brand-new-password-2",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrAccountNotFound))
	fx.hasher.AssertNotCalled(t, "Check", mock.Anything, mock.Anything)
	fx.oracle.AssertNotCalled(t, "IsCompromised", mock.Anything, mock.Anything)
	fx.assertNoWrites(t)
}

func TestRotationService_ChangePassword_StoreUnavailable(t *testing.T) {
	fx := createTestServices(t, policy.FailClosed)
	ctx := context.Background()
	id := uuid.New()

	fx.accountRepo.EXPECT().
		FindByID(ctx, id).
		Return(nil, domainerrors.NewDatabaseExecuteError(errors.New("connection refused"), "find")).
		Once()

	err := fx.rotation.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       id,
		CurrentPassword: "old-password-1",
		NewPassword:     "brand-new-password-2",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrStoreUnavailable))
	fx.assertNoWrites(t)
}

func TestRotationService_ChangePassword_WrongCurrentPasswordShortCircuits(t *testing.T) {
	fx := createTestServices(t, policy.FailClosed)
	ctx := context.Background()
	account := newStoredAccount("bob@example.com")

	fx.accountRepo.EXPECT().FindByID(ctx, account.ID).Return(account, nil).Once()
	fx.hasher.EXPECT().Check("not-my-password", "digest-old").Return(false, nil).Once()

	err := fx.rotation.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: "not-my-password",
		NewPassword:     "brand-new-password-2",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrInvalidCurrentPassword))
	// no policy work happens before the current password is proven
	fx.hasher.AssertNotCalled(t, "Check", "brand-new-password-2", mock.Anything)
	fx.oracle.AssertNotCalled(t, "IsCompromised", mock.Anything, mock.Anything)
	fx.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	fx.assertNoWrites(t)
}

func TestRotationService_ChangePassword_PolicyRejections(t *testing.T) {
	tests := []struct {
		name        string
		newPassword string
		reuse       bool
		breached    bool
		violation   policy.Violation
	}{
		{name: "reuse of current password", newPassword: "old-password-1", reuse: true, violation: policy.ViolationMatchesCurrentPassword},
		{name: "too short", newPassword: "tiny", violation: policy.ViolationTooShort},
		{name: "contains email local part", newPassword: "Carol-rocks-2024", violation: policy.ViolationContainsEmailFragment},
		{name: "breached", newPassword: "Password123", breached: true, violation: policy.ViolationPreviouslyBreached},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := createTestServices(t, policy.FailClosed)
			ctx := context.Background()
			account := newStoredAccount("carol@example.com")

			fx.accountRepo.EXPECT().FindByID(ctx, account.ID).Return(account, nil).Once()
			fx.hasher.EXPECT().Check("old-password-1", "digest-old").Return(true, nil)
			if tt.breached {
				fx.hasher.EXPECT().Check(tt.newPassword, "digest-old").Return(false, nil).Once()
				fx.oracle.EXPECT().IsCompromised(ctx, tt.newPassword).Return(true, nil).Once()
			}

			err := fx.rotation.ChangePassword(ctx, &usecase.ChangePasswordInput{
				AccountID:       account.ID,
				CurrentPassword: "old-password-1",
				NewPassword:     tt.newPassword,
			})

			require.True(t, errors.Is(err, domainerrors.ErrWeakPassword), "got %v", err)
			assert.Equal(t, string(tt.violation), violationOf(t, err))
			fx.hasher.AssertNotCalled(t, "Hash", mock.Anything)
			fx.assertNoWrites(t)
		})
	}
}

func TestRotationService_ChangePassword_OracleUnavailableFailsClosed(t *testing.T) {
	fx := createTestServices(t, policy.FailClosed)
	ctx := context.Background()
	account := newStoredAccount("dave@example.com")

	fx.accountRepo.EXPECT().FindByID(ctx, account.ID).Return(account, nil).Once()
	fx.hasher.EXPECT().Check("old-password-1", "digest-old").Return(true, nil).Once()
	fx.hasher.EXPECT().Check("brand-new-password-2", "digest-old").Return(false, nil).Once()
	fx.oracle.EXPECT().
		IsCompromised(ctx, "brand-new-password-2").
		Return(false, errors.Wrap(domainerrors.ErrOracleUnavailable, "down")).
		Once()

	err := fx.rotation.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: "old-password-1",
		NewPassword:     "brand-new-password-2",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrOracleUnavailable))
	fx.hasher.AssertNotCalled(t, "Hash", mock.Anything)
	fx.assertNoWrites(t)
}

func TestRotationService_ChangePassword_ConcurrentRotation(t *testing.T) {
	fx := createTestServices(t, policy.FailClosed)
	ctx := context.Background()
	account := newStoredAccount("erin@example.com")

	fx.accountRepo.EXPECT().FindByID(ctx, account.ID).Return(account, nil).Once()
	fx.hasher.EXPECT().Check("old-password-1", "digest-old").Return(true, nil).Once()
	fx.hasher.EXPECT().Check("brand-new-password-2", "digest-old").Return(false, nil).Once()
	fx.oracle.EXPECT().IsCompromised(ctx, "brand-new-password-2").Return(false, nil).Once()
	fx.hasher.EXPECT().Hash("brand-new-password-2").Return("digest-new", nil).Once()
	fx.accountRepo.EXPECT().
		UpdatePasswordHash(ctx, account.ID, "digest-old", "digest-new").
		Return(domainerrors.ErrConcurrentRotation).
		Once()

	err := fx.rotation.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: "old-password-1",
		NewPassword:     "brand-new-password-2",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrConcurrentRotation))
}

func TestRotationService_ChangePassword_CorruptStoredDigest(t *testing.T) {
	fx := createTestServices(t, policy.FailClosed)
	ctx := context.Background()
	account := newStoredAccount("frank@example.com")
	account.PasswordHash = "plaintext?"

	fx.accountRepo.EXPECT().FindByID(ctx, account.ID).Return(account, nil).Once()
	fx.hasher.EXPECT().
		Check("old-password-1", "plaintext?").
		Return(false, errors.Wrap(domainerrors.ErrInvalidDigestFormat, "unrecognized digest scheme")).
		Once()

	err := fx.rotation.ChangePassword(ctx, &usecase.ChangePasswordInput{
		AccountID:       account.ID,
		CurrentPassword: "old-password-1",
		NewPassword:     "brand-new-password-2",
	})

	assert.True(t, errors.Is(err, domainerrors.ErrInvalidDigestFormat))
	fx.oracle.AssertNotCalled(t, "IsCompromised", mock.Anything, mock.Anything)
	fx.assertNoWrites(t)
}
