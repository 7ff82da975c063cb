package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Read_Missing(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = local.Read(context.Background(), "missing.json")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocal_WriteRead(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, local.Write(ctx, "state.json", []byte(`{"a":1}`)))

	data, err := local.Read(ctx, "state.json")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))
}

func TestLocal_Write_Replaces(t *testing.T) {
	local, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, local.Write(ctx, "state.json", []byte("first")))
	require.NoError(t, local.Write(ctx, "state.json", []byte("second")))

	data, err := local.Read(ctx, "state.json")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestLocal_Write_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	local, err := NewLocal(dir)
	require.NoError(t, err)

	require.NoError(t, local.Write(context.Background(), "state.json", []byte("data")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestNewLocal_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")

	_, err := NewLocal(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
