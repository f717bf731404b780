package local

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveGetDelete(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	filename, err := store.Save(ctx, "os", "image/png", strings.NewReader("fake png bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "os_"))
	assert.True(t, strings.HasSuffix(filename, ".png"))

	blob, mimeType, err := store.Get(ctx, filename)
	require.NoError(t, err)
	defer blob.Close()
	assert.Equal(t, "image/png", mimeType)
	data, err := io.ReadAll(blob)
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(data))

	require.NoError(t, store.Delete(ctx, filename))
	_, _, err = store.Get(ctx, filename)
	assert.Error(t, err)
	assert.Error(t, store.Delete(ctx, filename))
}

func TestSaveUnknownMimeFallsBackToJpg(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	filename, err := store.Save(context.Background(), "orcamento", "application/octet-stream", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".jpg"))
}

func TestTraversalIsRejected(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"../fora.jpg", "../../etc/passwd", "..", "a/../../b.jpg"} {
		_, _, err := store.Get(ctx, name)
		assert.Error(t, err, "Get(%q) must fail", name)
		assert.Error(t, store.Delete(ctx, name), "Delete(%q) must fail", name)
	}
}

func TestFilenamesAreUnique(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	a, err := store.Save(ctx, "os", "image/jpeg", strings.NewReader("a"))
	require.NoError(t, err)
	b, err := store.Save(ctx, "os", "image/jpeg", strings.NewReader("b"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
