// Package memory provides an in-process AccountRepository for local runs and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/domain/repository"

	"github.com/google/uuid"
)

// accountRepository keeps accounts in maps guarded by a single mutex,
// which makes the email uniqueness check and the digest swap atomic.
type accountRepository struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*entity.Account
	byEmail map[string]uuid.UUID
	now     func() time.Time
}

// NewAccountRepository returns an empty in-memory store.
func NewAccountRepository() repository.AccountRepository {
	return &accountRepository{
		byID:    make(map[uuid.UUID]*entity.Account),
		byEmail: make(map[string]uuid.UUID),
		now:     time.Now,
	}
}

func (r *accountRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.byID[id]
	if !ok {
		return nil, domainerrors.ErrAccountNotFound
	}

	return clone(account), nil
}

func (r *accountRepository) FindByEmail(_ context.Context, email string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, domainerrors.ErrAccountNotFound
	}

	return clone(r.byID[id]), nil
}

func (r *accountRepository) Create(ctx context.Context, account *entity.Account) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "create account")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[account.Email]; exists {
		return domainerrors.ErrEmailAlreadyRegistered
	}

	if account.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domainerrors.NewDatabaseExecuteError(err, "generate account id")
		}
		account.ID = id
	}
	now := r.now()
	account.CreatedAt = now
	account.UpdatedAt = now

	r.byID[account.ID] = clone(account)
	r.byEmail[account.Email] = account.ID

	return nil
}

func (r *accountRepository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, expectedHash, newHash string) error {
	if err := ctx.Err(); err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "update password hash")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.byID[id]
	if !ok {
		return domainerrors.ErrAccountNotFound
	}
	if expectedHash != "" && account.PasswordHash != expectedHash {
		return domainerrors.ErrConcurrentRotation
	}

	account.PasswordHash = newHash
	account.UpdatedAt = r.now()

	return nil
}

func clone(a *entity.Account) *entity.Account {
	c := *a

	return &c
}
