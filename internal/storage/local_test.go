package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_PutGetDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)
	ctx := context.Background()

	key := "uploads/a1b2c3d4_test.pdf"

	info, err := store.Put(ctx, key, strings.NewReader("hello world"), PutObjectOptions{
		Size:        11,
		ContentType: "application/pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, key, info.Key)
	assert.Equal(t, int64(11), info.Size)

	rc, got, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, int64(11), got.Size)

	require.NoError(t, store.Delete(ctx, key))

	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorage_PutOverwritesSameKey(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	key := "uploads/hash_same.pdf"
	_, err = store.Put(ctx, key, strings.NewReader("first"), PutObjectOptions{Size: 5})
	require.NoError(t, err)
	_, err = store.Put(ctx, key, strings.NewReader("second"), PutObjectOptions{Size: 6})
	require.NoError(t, err)

	rc, _, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "second", string(data))
}

func TestLocalStorage_DeleteMissing(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	err = store.Delete(context.Background(), "uploads/nope.pdf")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestLocalStorage_List(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	_, err = store.Put(ctx, "uploads/one.pdf", strings.NewReader("1"), PutObjectOptions{Size: 1})
	require.NoError(t, err)
	_, err = store.Put(ctx, "uploads/two.pdf", strings.NewReader("2"), PutObjectOptions{Size: 1})
	require.NoError(t, err)
	_, err = store.Put(ctx, "other/three.pdf", strings.NewReader("3"), PutObjectOptions{Size: 1})
	require.NoError(t, err)

	keys, err := store.List(ctx, "uploads/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"uploads/one.pdf", "uploads/two.pdf"}, keys)
}

func TestLocalStorage_ListMissingPrefixDir(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	keys, err := store.List(context.Background(), "uploads/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestLocalStorage_KeyMapsStraightToPath(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "uploads/h_doc.pdf", strings.NewReader("x"), PutObjectOptions{Size: 1})
	require.NoError(t, err)

	// The key is the path under the base dir; no extra directory level is added.
	_, err = os.Stat(filepath.Join(dir, "uploads", "h_doc.pdf"))
	assert.NoError(t, err)
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = store.Put(context.Background(), "../escape.pdf", strings.NewReader("x"), PutObjectOptions{Size: 1})
	assert.Error(t, err)
}
