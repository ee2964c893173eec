package sqlite

import (
	"context"
	"strings"
	"testing"

	"github.com/rpggio/scopeguard/internal/repository"
	"github.com/stretchr/testify/require"
)

func TestAPIKeyRepository_CreateResolve(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAPIKeyRepository(db)
	ctx := context.Background()

	token, key, err := repo.Create(ctx, "user1", "laptop")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(token, "sg_"))
	require.Equal(t, HashToken(token), key.KeyHash)
	require.NotContains(t, key.KeyHash, token)

	userID, err := repo.ResolveUser(ctx, token)
	require.NoError(t, err)
	require.Equal(t, "user1", userID)

	keys, err := repo.List(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, "laptop", keys[0].Description)
	require.NotNil(t, keys[0].LastUsed)
}

func TestAPIKeyRepository_UnknownToken(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAPIKeyRepository(db)

	_, err := repo.ResolveUser(context.Background(), "sg_nope")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.ResolveUser(context.Background(), "")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestAPIKeyRepository_GeneratesUserID(t *testing.T) {
	db := NewTestDB(t)
	repo := NewAPIKeyRepository(db)

	token, key, err := repo.Create(context.Background(), "", "")
	require.NoError(t, err)
	require.NotEmpty(t, key.UserID)

	userID, err := repo.ResolveUser(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, key.UserID, userID)

	all, err := repo.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 1)
}
