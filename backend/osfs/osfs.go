// Package osfs implements backend.Backend over the real host filesystem,
// rooted at a configured directory. Grounded on go9p's ufs.Ufs
// (p/srv/ufs/ufs.go): dir2Qid/dir2Npmode/toError become Stat-field
// derivation, and each handler body (Open, Create, Read, Write, Wstat,
// ...) becomes one Backend method with its *srv.Req threading removed.
package osfs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/virtio9p/ninep/backend"
	"github.com/virtio9p/ninep/backend/blobstore"
)

// Backend roots all paths under Root, the way go9p's ufs.Ufs treats
// Root as "a 'chroot' of a sort": client paths never escape it.
type Backend struct {
	Root string
	Log  *logrus.Entry

	// Blobs, if non-nil, receives a copy of every buffer passed to
	// Write, stored under its sha256. The file on disk is still written
	// in full; Blobs does not replace or deduplicate file storage.
	Blobs blobstore.Store

	mu   sync.Mutex
	fds  map[*osFD]struct{}
}

// osFD wraps an *os.File as a backend.FD.
type osFD struct {
	f *os.File
}

// New returns a Backend rooted at root. root must exist and be a
// directory.
func New(root string, log *logrus.Entry) *Backend {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Backend{Root: root, Log: log, fds: make(map[*osFD]struct{})}
}

func (b *Backend) resolve(path string) string {
	return filepath.Join(b.Root, filepath.Clean("/"+path))
}

func statFromFileInfo(fi os.FileInfo) backend.Stat {
	st := backend.Stat{
		Mode:    uint32(fi.Mode().Perm()),
		Size:    uint64(fi.Size()),
		Version: uint32(fi.ModTime().UnixNano() / 1e6),
	}
	switch {
	case fi.IsDir():
		st.Type = backend.DIRECTORY
	case fi.Mode()&os.ModeSymlink != 0:
		st.Type = backend.SYMLINK
	default:
		st.Type = backend.FILE
	}
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		st.UID = sys.Uid
		st.GID = sys.Gid
		st.NLink = uint64(sys.Nlink)
		st.Node = sys.Ino
		st.RDev = uint64(sys.Rdev)
		st.ATimeMs = unix.TimespecToNsec(unix.Timespec{Sec: sys.Atim.Sec, Nsec: sys.Atim.Nsec}) / 1e6
		st.MTimeMs = unix.TimespecToNsec(unix.Timespec{Sec: sys.Mtim.Sec, Nsec: sys.Mtim.Nsec}) / 1e6
		st.CTimeMs = unix.TimespecToNsec(unix.Timespec{Sec: sys.Ctim.Sec, Nsec: sys.Ctim.Nsec}) / 1e6
	} else {
		st.MTimeMs = fi.ModTime().UnixMilli()
	}
	return st
}

func (b *Backend) Stat(ctx context.Context, path string) (backend.Stat, error) {
	fi, err := os.Stat(b.resolve(path))
	if err != nil {
		return backend.Stat{}, backend.FromOSError(err)
	}
	return statFromFileInfo(fi), nil
}

func (b *Backend) Lstat(ctx context.Context, path string) (backend.Stat, error) {
	fi, err := os.Lstat(b.resolve(path))
	if err != nil {
		return backend.Stat{}, backend.FromOSError(err)
	}
	return statFromFileInfo(fi), nil
}

func (b *Backend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(b.resolve(path))
	if err != nil {
		return nil, backend.FromOSError(err)
	}
	return data, nil
}

func (b *Backend) Open(ctx context.Context, path string, flags uint32, mode uint32) (backend.FD, error) {
	f, err := os.OpenFile(b.resolve(path), int(flags), os.FileMode(mode))
	if err != nil {
		return nil, backend.FromOSError(err)
	}
	fd := &osFD{f: f}
	b.mu.Lock()
	b.fds[fd] = struct{}{}
	b.mu.Unlock()
	return fd, nil
}

func (b *Backend) Close(ctx context.Context, f backend.FD) error {
	fd, ok := f.(*osFD)
	if !ok {
		return nil
	}
	b.mu.Lock()
	delete(b.fds, fd)
	b.mu.Unlock()
	return backend.FromOSError(fd.f.Close())
}

func (b *Backend) Write(ctx context.Context, f backend.FD, buf []byte, offset uint64) (int, error) {
	fd, ok := f.(*osFD)
	if !ok {
		return 0, backend.NewError(0, io.ErrClosedPipe)
	}
	n, err := fd.f.WriteAt(buf, int64(offset))
	if err != nil {
		return n, backend.FromOSError(err)
	}
	if b.Blobs != nil {
		if _, putErr := b.Blobs.Put(ctx, buf); putErr != nil {
			b.Log.WithError(putErr).Warn("osfs: blob store put failed, continuing without dedup")
		}
	}
	return n, nil
}

func (b *Backend) Readlink(ctx context.Context, path string) (string, error) {
	target, err := os.Readlink(b.resolve(path))
	if err != nil {
		return "", backend.FromOSError(err)
	}
	return target, nil
}

func (b *Backend) Symlink(ctx context.Context, target, path string) error {
	return backend.FromOSError(os.Symlink(target, b.resolve(path)))
}

func (b *Backend) Mkdir(ctx context.Context, path string, mode uint32) error {
	return backend.FromOSError(os.Mkdir(b.resolve(path), os.FileMode(mode)))
}

// Mknod collapses every node type to a regular file; real 9P clients
// may rely on device-node semantics, but this server does not
// implement them.
func (b *Backend) Mknod(ctx context.Context, path string, kind backend.NodeType, mode uint32) error {
	f, err := os.OpenFile(b.resolve(path), os.O_CREATE|os.O_EXCL|os.O_WRONLY, os.FileMode(mode))
	if err != nil {
		return backend.FromOSError(err)
	}
	return backend.FromOSError(f.Close())
}

func (b *Backend) Link(ctx context.Context, existing, newpath string) error {
	return backend.FromOSError(os.Link(b.resolve(existing), b.resolve(newpath)))
}

func (b *Backend) Rename(ctx context.Context, oldpath, newpath string) error {
	return backend.FromOSError(os.Rename(b.resolve(oldpath), b.resolve(newpath)))
}

func (b *Backend) Unlink(ctx context.Context, path string) error {
	return backend.FromOSError(os.Remove(b.resolve(path)))
}

func (b *Backend) Rmdir(ctx context.Context, path string) error {
	return backend.FromOSError(os.Remove(b.resolve(path)))
}

func (b *Backend) Chmod(ctx context.Context, path string, mode uint32) error {
	return backend.FromOSError(os.Chmod(b.resolve(path), os.FileMode(mode)))
}

func (b *Backend) Chown(ctx context.Context, path string, uid, gid uint32) error {
	return backend.FromOSError(os.Chown(b.resolve(path), int(uid), int(gid)))
}

func (b *Backend) Utimes(ctx context.Context, path string, atimeMs, mtimeMs int64) error {
	at := time.UnixMilli(atimeMs)
	mt := time.UnixMilli(mtimeMs)
	return backend.FromOSError(os.Chtimes(b.resolve(path), at, mt))
}

func (b *Backend) Truncate(ctx context.Context, path string, size uint64) error {
	return backend.FromOSError(os.Truncate(b.resolve(path), int64(size)))
}

func (b *Backend) List(ctx context.Context, path string) ([]backend.DirEntry, error) {
	entries, err := os.ReadDir(b.resolve(path))
	if err != nil {
		return nil, backend.FromOSError(err)
	}
	out := make([]backend.DirEntry, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			b.Log.WithError(err).WithField("name", e.Name()).Warn("osfs: skipping unreadable dirent")
			continue
		}
		st := statFromFileInfo(fi)
		out = append(out, backend.DirEntry{
			Name:    e.Name(),
			Type:    st.Type,
			Mode:    st.Mode,
			Version: st.Version,
			Node:    st.Node,
		})
	}
	return out, nil
}

func (b *Backend) Fsync(ctx context.Context, f backend.FD) error {
	fd, ok := f.(*osFD)
	if !ok {
		return nil
	}
	return backend.FromOSError(fd.f.Sync())
}

func (b *Backend) Statfs(ctx context.Context) (backend.StatfsInfo, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(b.Root, &st); err != nil {
		return backend.StatfsInfo{}, backend.FromOSError(err)
	}
	return backend.StatfsInfo{
		Blocks: st.Blocks,
		Bfree:  st.Bfree,
		Bavail: st.Bavail,
		Files:  st.Files,
		Ffree:  st.Ffree,
		Fsid:   uint64(st.Fsid.Val[0])<<32 | uint64(uint32(st.Fsid.Val[1])),
	}, nil
}
