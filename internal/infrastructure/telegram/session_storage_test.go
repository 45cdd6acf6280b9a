package telegram

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gotd/td/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSessionStorage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	storage, err := NewFileSessionStorage(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)

	_, err = storage.LoadSession(ctx)
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.False(t, storage.SessionExists())

	require.NoError(t, storage.StoreSession(ctx, []byte(`{"Version":1}`)))
	assert.True(t, storage.SessionExists())
	assert.NoFileExists(t, filepath.Join(dir, sessionFileName+".tmp"))

	data, err := storage.LoadSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"Version":1}`, string(data))

	require.NoError(t, storage.DeleteSession())
	assert.False(t, storage.SessionExists())
	require.NoError(t, storage.DeleteSession(), "deleting a missing session is not an error")
}

func TestFileSessionStorage_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, sessionFileName), nil, 0o600))

	storage, err := NewFileSessionStorage(dir)
	require.NoError(t, err)

	_, err = storage.LoadSession(context.Background())
	assert.ErrorIs(t, err, session.ErrNotFound)
}
