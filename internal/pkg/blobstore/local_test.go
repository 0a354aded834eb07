package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutGetRoundTrip(t *testing.T) {
	store := NewLocal()
	path := filepath.Join(t.TempDir(), "avatars", "42.png")
	content := []byte{0x89, 'P', 'N', 'G', 1, 2, 3}

	err := store.Put(context.Background(), path, content)
	require.NoError(t, err)

	got, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalPutCreatesParentDirectories(t *testing.T) {
	store := NewLocal()
	path := filepath.Join(t.TempDir(), "a", "b", "c", "7.png")

	err := store.Put(context.Background(), path, []byte("x"))
	require.NoError(t, err)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestLocalPutReplacesExistingContent(t *testing.T) {
	store := NewLocal()
	path := filepath.Join(t.TempDir(), "5.png")

	require.NoError(t, store.Put(context.Background(), path, []byte("first")))
	require.NoError(t, store.Put(context.Background(), path, []byte("second, longer content")))

	got, err := store.Get(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []byte("second, longer content"), got)
}

func TestLocalPutLeavesNoTempFiles(t *testing.T) {
	store := NewLocal()
	dir := t.TempDir()
	path := filepath.Join(dir, "9.png")

	require.NoError(t, store.Put(context.Background(), path, []byte("data")))
	require.NoError(t, store.Put(context.Background(), path, []byte("data2")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "9.png", entries[0].Name())
}

func TestLocalPutCancelledContext(t *testing.T) {
	store := NewLocal()
	dir := t.TempDir()
	path := filepath.Join(dir, "3.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, path, []byte("never visible"))
	require.ErrorIs(t, err, context.Canceled)

	// Nothing may be observable at the path, not even a partial file.
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestLocalGetMissing(t *testing.T) {
	store := NewLocal()

	_, err := store.Get(context.Background(), filepath.Join(t.TempDir(), "missing.png"))
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLocalDeleteIsIdempotent(t *testing.T) {
	store := NewLocal()
	path := filepath.Join(t.TempDir(), "11.png")

	require.NoError(t, store.Put(context.Background(), path, []byte("x")))
	require.NoError(t, store.Delete(context.Background(), path))

	// Second delete of the same path must also succeed.
	require.NoError(t, store.Delete(context.Background(), path))

	_, err := store.Get(context.Background(), path)
	require.ErrorIs(t, err, ErrNotFound)
}
