package osfs

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/virtio9p/ninep/backend"
	"github.com/virtio9p/ninep/p9"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	return New(t.TempDir(), nil)
}

func TestLstatRoot(t *testing.T) {
	b := newTestBackend(t)
	st, err := b.Lstat(context.Background(), "/")
	require.NoError(t, err)
	require.Equal(t, backend.DIRECTORY, st.Type)
}

func TestOpenWriteReadFile(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	fd, err := b.Open(ctx, "/f.txt", uint32(os.O_CREATE|os.O_WRONLY), 0644)
	require.NoError(t, err)
	n, err := b.Write(ctx, fd, []byte("hello world"), 0)
	require.NoError(t, err)
	require.Equal(t, 11, n)
	require.NoError(t, b.Close(ctx, fd))

	data, err := b.ReadFile(ctx, "/f.txt")
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
}

func TestLstatMissingReturnsNotExist(t *testing.T) {
	b := newTestBackend(t)
	_, err := b.Lstat(context.Background(), "/missing")
	require.Error(t, err)
	require.Equal(t, p9.KindNotExist, backend.KindOf(err))
}

func TestMkdirAndList(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Mkdir(ctx, "/dir", 0755))
	_, err := b.Open(ctx, "/dir/a.txt", uint32(os.O_CREATE|os.O_WRONLY), 0644)
	require.NoError(t, err)

	entries, err := b.List(ctx, "/dir")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a.txt", entries[0].Name)
}

func TestSymlinkAndReadlink(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Symlink(ctx, "/target", "/link"))
	target, err := b.Readlink(ctx, "/link")
	require.NoError(t, err)
	require.Equal(t, "/target", target)

	st, err := b.Lstat(ctx, "/link")
	require.NoError(t, err)
	require.Equal(t, backend.SYMLINK, st.Type)
}

func TestRenameAndUnlink(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	fd, err := b.Open(ctx, "/a.txt", uint32(os.O_CREATE|os.O_WRONLY), 0644)
	require.NoError(t, err)
	require.NoError(t, b.Close(ctx, fd))

	require.NoError(t, b.Rename(ctx, "/a.txt", "/b.txt"))
	_, err = b.Lstat(ctx, "/a.txt")
	require.Error(t, err)

	require.NoError(t, b.Unlink(ctx, "/b.txt"))
	_, err = b.Lstat(ctx, "/b.txt")
	require.Error(t, err)
}

func TestTruncateAndChmod(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	fd, err := b.Open(ctx, "/f.txt", uint32(os.O_CREATE|os.O_WRONLY), 0644)
	require.NoError(t, err)
	_, err = b.Write(ctx, fd, []byte("0123456789"), 0)
	require.NoError(t, err)
	require.NoError(t, b.Close(ctx, fd))

	require.NoError(t, b.Truncate(ctx, "/f.txt", 4))
	st, err := b.Lstat(ctx, "/f.txt")
	require.NoError(t, err)
	require.Equal(t, uint64(4), st.Size)

	require.NoError(t, b.Chmod(ctx, "/f.txt", 0600))
	st, err = b.Lstat(ctx, "/f.txt")
	require.NoError(t, err)
	require.Equal(t, uint32(0600), st.Mode)
}

func TestResolveStaysWithinRoot(t *testing.T) {
	b := newTestBackend(t)
	resolved := b.resolve("/../../etc/passwd")
	require.True(t, strings.HasPrefix(resolved, b.Root))
}
