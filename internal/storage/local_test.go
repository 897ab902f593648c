package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalStorage {
	ls, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return ls
}

func TestLocalStorage_StoreAndRetrieve(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	content := []byte("package content")
	err := ls.Store(ctx, "foo/1.0.0/foo.1.0.0.pkg", bytes.NewReader(content), "application/octet-stream")
	require.NoError(t, err)

	reader, err := ls.Retrieve(ctx, "foo/1.0.0/foo.1.0.0.pkg")
	require.NoError(t, err)
	defer reader.Close()

	got, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLocalStorage_StoreReplacesExisting(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, ls.Store(ctx, "a/b", bytes.NewReader([]byte("old")), ""))
	require.NoError(t, ls.Store(ctx, "a/b", bytes.NewReader([]byte("new")), ""))

	reader, err := ls.Retrieve(ctx, "a/b")
	require.NoError(t, err)
	defer reader.Close()

	got, _ := io.ReadAll(reader)
	assert.Equal(t, "new", string(got))
}

func TestLocalStorage_StoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	ls, err := NewLocalStorage(dir)
	require.NoError(t, err)

	require.NoError(t, ls.Store(context.Background(), "a/b", bytes.NewReader([]byte("x")), ""))

	var files []string
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			files = append(files, filepath.Base(path))
		}
		return nil
	})
	assert.Equal(t, []string{"b"}, files)
}

func TestLocalStorage_RetrieveMissing(t *testing.T) {
	ls := newTestStorage(t)

	_, err := ls.Retrieve(context.Background(), "missing")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLocalStorage_Delete(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, ls.Store(ctx, "a/b", bytes.NewReader([]byte("x")), ""))
	require.NoError(t, ls.Delete(ctx, "a/b"))

	exists, err := ls.Exists(ctx, "a/b")
	require.NoError(t, err)
	assert.False(t, exists)

	// deleting again is not an error
	assert.NoError(t, ls.Delete(ctx, "a/b"))
}

func TestLocalStorage_ExistsAndSize(t *testing.T) {
	ls := newTestStorage(t)
	ctx := context.Background()

	exists, err := ls.Exists(ctx, "a/b")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, ls.Store(ctx, "a/b", bytes.NewReader([]byte("12345")), ""))

	exists, err = ls.Exists(ctx, "a/b")
	require.NoError(t, err)
	assert.True(t, exists)

	size, err := ls.GetSize(ctx, "a/b")
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)
}

func TestLocalStorage_CancelledContext(t *testing.T) {
	ls := newTestStorage(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := ls.Store(ctx, "a/b", bytes.NewReader([]byte("x")), "")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = ls.Retrieve(ctx, "a/b")
	assert.ErrorIs(t, err, context.Canceled)
}
