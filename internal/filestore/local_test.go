package filestore

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/gallery/internal/config"
)

func newLocalGateway(t *testing.T) (*Gateway, string) {
	t.Helper()
	root := t.TempDir()
	store, err := NewLocalStore(config.LocalConfig{BasePath: root, PublicURL: "/storage/"})
	require.NoError(t, err)
	return NewGateway(store), root
}

func TestLocal_StoreResolveDelete(t *testing.T) {
	ctx := context.Background()
	gw, root := newLocalGateway(t)

	p, err := gw.Store(ctx, []byte("jpeg bytes"), "events/7", "abc.jpg", "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "events/7/abc.jpg", p)

	data, err := os.ReadFile(filepath.Join(root, "events", "7", "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(data))

	u1, err := gw.ResolveURL(ctx, p)
	require.NoError(t, err)
	u2, err := gw.ResolveURL(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "/storage/events/7/abc.jpg", u1)
	assert.Equal(t, u1, u2, "local URLs are deterministic")

	require.NoError(t, gw.Delete(ctx, p))
	_, err = os.Stat(filepath.Join(root, "events", "7", "abc.jpg"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, gw.Delete(ctx, p), "second delete must not fail")
	assert.NoError(t, gw.Delete(ctx, "events/7/never-existed.png"))
}

func TestLocal_URLEscapesKeySegments(t *testing.T) {
	ctx := context.Background()
	gw, root := newLocalGateway(t)

	for _, name := range []string{"a.j#g", "b.j?g", "c d.JPG"} {
		p, err := gw.Store(ctx, []byte("x"), "events/7", name, "image/jpeg")
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(root, "events", "7", name))
		require.NoError(t, err)

		u, err := gw.ResolveURL(ctx, p)
		require.NoError(t, err)
		assert.NotContains(t, u, "#")
		assert.NotContains(t, u, "?")
		assert.NotContains(t, u, " ")

		parsed, err := url.Parse(u)
		require.NoError(t, err)
		assert.Equal(t, "/storage/events/7/"+name, parsed.Path)
	}
}

func TestLocal_NoTempFilesLeft(t *testing.T) {
	ctx := context.Background()
	gw, root := newLocalGateway(t)

	_, err := gw.Store(ctx, []byte("a"), "events/1", "one.jpg", "image/jpeg")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "events", "1"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "one.jpg", entries[0].Name())
}

func TestLocal_FailedWriteLeavesNothing(t *testing.T) {
	ctx := context.Background()
	gw, root := newLocalGateway(t)

	// A regular file where the folder should be makes the write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "events"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "events", "9"), []byte("x"), 0o644))

	_, err := gw.Store(ctx, []byte("data"), "events/9", "photo.jpg", "image/jpeg")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWrite)

	_, statErr := os.Stat(filepath.Join(root, "events", "9", "photo.jpg"))
	assert.Error(t, statErr)
}

func TestLocal_RejectsEscapingKeys(t *testing.T) {
	ctx := context.Background()
	gw, _ := newLocalGateway(t)

	for _, key := range []string{"../outside.jpg", "/etc/passwd", "", "events/../../x"} {
		t.Run(key, func(t *testing.T) {
			_, err := gw.ResolveURL(ctx, key)
			assert.ErrorIs(t, err, ErrRead)
			err = gw.Delete(ctx, key)
			assert.ErrorIs(t, err, ErrDelete)
		})
	}

	_, err := gw.Store(ctx, []byte("x"), "..", "escape.jpg", "image/jpeg")
	assert.ErrorIs(t, err, ErrWrite)
}

func TestLocal_Ping(t *testing.T) {
	gw, _ := newLocalGateway(t)
	assert.NoError(t, gw.Ping(context.Background()))
	assert.Equal(t, config.StorageLocal, gw.BackendName())
}

func TestNew_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	gw, err := New(ctx, config.StorageConfig{
		Type:  config.StorageLocal,
		Local: config.LocalConfig{BasePath: t.TempDir(), PublicURL: "/files"},
	})
	require.NoError(t, err)
	assert.Equal(t, config.StorageLocal, gw.BackendName())

	u, err := gw.ResolveURL(ctx, "events/1/x.jpg")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "/files/"))

	_, err = New(ctx, config.StorageConfig{Type: "ftp"})
	assert.Error(t, err)

	_, err = New(ctx, config.StorageConfig{Type: config.StorageGCS})
	assert.Error(t, err, "gcs requires a bucket")
}
