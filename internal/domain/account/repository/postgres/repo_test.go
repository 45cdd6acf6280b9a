package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Conte777/telegram-files/internal/domain/account/entities"
	accounterrors "github.com/Conte777/telegram-files/internal/domain/account/errors"
	"github.com/Conte777/telegram-files/internal/infrastructure/database/testdb"
)

func TestRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	account := &entities.Account{ID: 42, FirstName: "Ada", RootPath: "/data/account-abc"}
	require.NoError(t, repo.Create(ctx, account))
	assert.False(t, account.CreatedAt.IsZero())

	got, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.FirstName)

	got, err = repo.GetByRootPath(ctx, "/data/account-abc")
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.ID)

	_, err = repo.GetByID(ctx, 7)
	assert.ErrorIs(t, err, accounterrors.ErrAccountNotFound)
}

func TestRepository_CreateDuplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	require.NoError(t, repo.Create(ctx, &entities.Account{ID: 42, RootPath: "/data/account-a"}))

	err := repo.Create(ctx, &entities.Account{ID: 42, RootPath: "/data/account-b"})
	assert.ErrorIs(t, err, accounterrors.ErrAccountAlreadyExists)

	err = repo.Create(ctx, &entities.Account{ID: 43, RootPath: "/data/account-a"})
	assert.ErrorIs(t, err, accounterrors.ErrAccountAlreadyExists)
}

func TestRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testdb.NewSQLite(t))

	require.NoError(t, repo.Create(ctx, &entities.Account{ID: 1, RootPath: "/data/account-a"}))
	require.NoError(t, repo.Create(ctx, &entities.Account{ID: 2, RootPath: "/data/account-b"}))

	accounts, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	require.NoError(t, repo.Delete(ctx, 1))
	require.NoError(t, repo.Delete(ctx, 1))

	accounts, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(2), accounts[0].ID)
}

func TestRootID(t *testing.T) {
	assert.Equal(t, "k3j9x0a1b2", entities.RootID("/data/accounts/account-k3j9x0a1b2"))
	assert.Equal(t, "k3j9x0a1b2", entities.RootID("/data/accounts/account-k3j9x0a1b2/"))
	assert.Equal(t, "plain", entities.RootID("/data/plain"))
}
