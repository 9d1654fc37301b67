// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"credvault/internal/domain/entity"

	"github.com/google/uuid"
)

// AccountRepository defines the persistence operations the credential use cases rely on.
//
// Implementations must enforce email uniqueness themselves (unique index or an
// equivalent atomic check): Create returns domainerrors.ErrEmailAlreadyRegistered
// when another account already owns the email, even if the caller's earlier
// FindByEmail saw none.
type AccountRepository interface {
	// FindByID retrieves a single account by its unique ID.
	// It returns domainerrors.ErrAccountNotFound when no account matches.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error)

	// FindByEmail retrieves a single account by its normalized email address.
	// It returns domainerrors.ErrAccountNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*entity.Account, error)

	// Create persists a new account and fills in its generated ID and timestamps.
	Create(ctx context.Context, account *entity.Account) error

	// UpdatePasswordHash replaces the stored digest of a single account.
	// When expectedHash is non-empty the write only happens if the stored digest
	// still equals expectedHash; otherwise domainerrors.ErrConcurrentRotation is returned.
	// An empty expectedHash makes the update unconditional (last write wins).
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, expectedHash, newHash string) error
}
