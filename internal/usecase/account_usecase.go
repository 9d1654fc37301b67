// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"credvault/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a new account.
type RegisterInput struct {
	Email    string
	Password string
}

// ChangePasswordInput defines the data required to rotate an account's password.
type ChangePasswordInput struct {
	AccountID       uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// --- Output DTOs ---

// AccountView is the public view of an account. It never carries the password digest.
type AccountView struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewAccountView copies the public fields of an account.
func NewAccountView(account *entity.Account) AccountView {
	return AccountView{
		ID:        account.ID,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
		UpdatedAt: account.UpdatedAt,
	}
}

// RegisterOutput returns the newly created account.
type RegisterOutput struct {
	Account AccountView
}

// RegistrationUsecase creates accounts whose first password satisfies the policy.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type RegistrationUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
}

// RotationUsecase replaces an account's password after verifying the current one.
type RotationUsecase interface {
	ChangePassword(ctx context.Context, input *ChangePasswordInput) error
}
