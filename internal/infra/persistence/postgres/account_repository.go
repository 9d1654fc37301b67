// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"

	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/repository"
	"credvault/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// accountRepository implements the repository.AccountRepository interface using GORM.
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository is the constructor for accountRepository.
// It returns the repository as a repository.AccountRepository interface, adhering to dependency inversion.
func NewAccountRepository(db *gorm.DB) repository.AccountRepository {
	return &accountRepository{
		db: db,
	}
}

// FindByID retrieves a single account by its unique ID.
func (repo *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Account, error) {
	var accountM model.AccountModel
	err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAccountNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find account by id")
	}

	return toAccountDomain(&accountM), nil
}

// FindByEmail retrieves a single account by its normalized email address.
func (repo *accountRepository) FindByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var accountM model.AccountModel
	err := repo.db.WithContext(ctx).
		Where("email = ?", email).
		First(&accountM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrAccountNotFound
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to find account by email")
	}

	return toAccountDomain(&accountM), nil
}

// Create persists a new account. The unique index on email decides registration races.
func (repo *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	accountM := fromAccountDomain(account)

	if err := repo.db.WithContext(ctx).Create(accountM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrEmailAlreadyRegistered
		}
		if isNotNullConstraintViolation(err) {
			return domainerrors.ErrValidationFailed.WithDetails("missing required account information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create account")
	}

	// Update the account entity with the generated ID and timestamps
	account.ID = accountM.ID
	account.CreatedAt = accountM.CreatedAt
	account.UpdatedAt = accountM.UpdatedAt

	return nil
}

// UpdatePasswordHash swaps the digest in a single UPDATE, guarded by the expected digest when one is given.
func (repo *accountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, expectedHash, newHash string) error {
	tx := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id)
	if expectedHash != "" {
		tx = tx.Where("password_hash = ?", expectedHash)
	}

	result := tx.Update("password_hash", newHash)
	if result.Error != nil {
		return domainerrors.NewDatabaseExecuteError(result.Error, "failed to update password hash")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing matched: the account is gone or its digest moved on.
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.AccountModel{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to check account existence")
	}
	if count == 0 {
		return domainerrors.ErrAccountNotFound
	}

	return domainerrors.ErrConcurrentRotation
}

func toAccountDomain(m *model.AccountModel) *entity.Account {
	return &entity.Account{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromAccountDomain(a *entity.Account) *model.AccountModel {
	return &model.AccountModel{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
