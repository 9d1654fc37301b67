package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"credvault/internal/domain/entity"
	domainerrors "credvault/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_CreateAndFind(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	account := &entity.Account{Email: "alice@example.com", PasswordHash: "digest-1"}
	require.NoError(t, repo.Create(ctx, account))
	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.False(t, account.CreatedAt.IsZero())

	byID, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)
	assert.Equal(t, "digest-1", byID.PasswordHash)

	byEmail, err := repo.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, account.ID, byEmail.ID)

	// returned values are copies
	byEmail.PasswordHash = "tampered"
	again, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "digest-1", again.PasswordHash)
}

func TestAccountRepository_NotFound(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	_, err := repo.FindByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, domainerrors.ErrAccountNotFound))

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, domainerrors.ErrAccountNotFound))

	err = repo.UpdatePasswordHash(ctx, uuid.New(), "", "digest")
	assert.True(t, errors.Is(err, domainerrors.ErrAccountNotFound))
}

func TestAccountRepository_DuplicateEmail(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &entity.Account{Email: "bob@example.com", PasswordHash: "a"}))

	err := repo.Create(ctx, &entity.Account{Email: "bob@example.com", PasswordHash: "b"})
	assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyRegistered))

	stored, err := repo.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", stored.PasswordHash)
}

func TestAccountRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	var created atomic.Int32
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := repo.Create(ctx, &entity.Account{Email: "race@example.com", PasswordHash: "x"}); err == nil {
				created.Add(1)
			} else {
				assert.True(t, errors.Is(err, domainerrors.ErrEmailAlreadyRegistered))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), created.Load())
}

func TestAccountRepository_UpdatePasswordHash(t *testing.T) {
	repo := NewAccountRepository()
	ctx := context.Background()

	account := &entity.Account{Email: "carol@example.com", PasswordHash: "old"}
	require.NoError(t, repo.Create(ctx, account))

	// stale expectation loses
	err := repo.UpdatePasswordHash(ctx, account.ID, "not-the-current-digest", "new")
	assert.True(t, errors.Is(err, domainerrors.ErrConcurrentRotation))

	require.NoError(t, repo.UpdatePasswordHash(ctx, account.ID, "old", "new"))
	stored, err := repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", stored.PasswordHash)

	// a second swap from the same starting digest now conflicts
	err = repo.UpdatePasswordHash(ctx, account.ID, "old", "newer")
	assert.True(t, errors.Is(err, domainerrors.ErrConcurrentRotation))

	// empty expectation is unconditional
	require.NoError(t, repo.UpdatePasswordHash(ctx, account.ID, "", "forced"))
	stored, err = repo.FindByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "forced", stored.PasswordHash)
}

func TestAccountRepository_CanceledContext(t *testing.T) {
	repo := NewAccountRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Create(ctx, &entity.Account{Email: "dave@example.com", PasswordHash: "x"})
	assert.True(t, errors.Is(err, domainerrors.ErrStoreUnavailable))
}
