package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")

	require.NoError(t, New(path).Set(ctx, "token", "t1"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(fileMode), info.Mode().Perm())

	// a fresh store sees what the previous process wrote
	val, err := New(path).Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "t1", val)

	require.NoError(t, New(path).Remove(ctx, "token", "refreshToken"))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty store removes its file")
}

func TestStore_corruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := New(path).Get(context.Background(), "token")
	assert.Error(t, err)
}

func TestStore_emptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	val, err := New(path).Get(context.Background(), "token")
	require.NoError(t, err)
	assert.Empty(t, val)
}
