package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_Load_Missing(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = NewTokenStore(local, "token.json").Load(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestTokenStore_SaveLoad(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	tokens := NewTokenStore(local, "token.json")
	require.NoError(t, tokens.Save(ctx, &Token{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
	}))

	loaded, err := tokens.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "access-1", loaded.AccessToken)
	assert.Equal(t, "refresh-1", loaded.RefreshToken)
}

func TestTokenStore_Load_EmptyAccessToken(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, local.Write(ctx, "token.json", []byte(`{}`)))

	_, err = NewTokenStore(local, "token.json").Load(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}
