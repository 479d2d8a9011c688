// Package backend defines the pluggable filesystem backend interface the
// dispatcher (package srv) depends on, plus the translation from backend
// error kinds to the POSIX errno table in package p9.
//
// Grounded on go9p's ufs.Ufs handlers (p/srv/ufs/ufs.go): each backend
// method here corresponds to one or more of those handler bodies, pulled
// out from the *srv.Req-threading style into a standalone interface that
// returns (value, error) and accepts a context.Context for cancellation.
package backend

import (
	"context"
	"time"

	"github.com/virtio9p/ninep/p9"
)

// NodeType classifies a backend node for QID.Type and Tgetattr.Mode.
type NodeType int

const (
	FILE NodeType = iota
	DIRECTORY
	SYMLINK
)

// Stat is the minimal set of attributes every backend must report for a
// node.
type Stat struct {
	Type    NodeType
	Mode    uint32
	UID     uint32
	GID     uint32
	NLink   uint64
	Size    uint64
	ATimeMs int64
	MTimeMs int64
	CTimeMs int64
	Version uint32
	Node    uint64 // backend node identifier, fed to p9.NewQID
	RDev    uint64
}

// QIDType returns the p9 QID type bits for this stat's node type.
func (s Stat) QIDType() uint8 {
	switch s.Type {
	case DIRECTORY:
		return p9.QTDIR
	case SYMLINK:
		return p9.QTSYMLINK
	default:
		return p9.QTFILE
	}
}

// QID derives this stat's QID via p9.NewQID.
func (s Stat) QID() p9.QID {
	return p9.NewQID(s.Node, s.Version, s.QIDType())
}

// POSIX S_IFMT type bits, used by PosixMode.
const (
	sIFLNK = 0120000
	sIFREG = 0100000
	sIFDIR = 0040000
)

// PosixMode returns the full st_mode-style value (type bits plus
// permission bits) Tgetattr and Treaddir's entry type byte need.
func (s Stat) PosixMode() uint32 {
	perm := s.Mode & 0777
	switch s.Type {
	case DIRECTORY:
		return sIFDIR | perm
	case SYMLINK:
		return sIFLNK | perm
	default:
		return sIFREG | perm
	}
}

// DirEntry is one entry returned by List: name, type, mode, version,
// and node identifier.
type DirEntry struct {
	Name    string
	Type    NodeType
	Mode    uint32
	Version uint32
	Node    uint64
}

// FD is an opaque backend file handle returned by Open.
type FD interface{}

// Backend is the narrow async filesystem interface the dispatcher
// depends on. All methods may block; callers invoke them from a
// per-request goroutine and check tag.Registry.ShouldAbort on return
// before touching the reply buffer.
type Backend interface {
	Stat(ctx context.Context, path string) (Stat, error)
	Lstat(ctx context.Context, path string) (Stat, error)
	ReadFile(ctx context.Context, path string) ([]byte, error)

	Open(ctx context.Context, path string, flags uint32, mode uint32) (FD, error)
	Close(ctx context.Context, f FD) error
	Write(ctx context.Context, f FD, buf []byte, offset uint64) (int, error)

	Readlink(ctx context.Context, path string) (string, error)
	Symlink(ctx context.Context, target, path string) error

	Mkdir(ctx context.Context, path string, mode uint32) error
	Mknod(ctx context.Context, path string, kind NodeType, mode uint32) error

	Link(ctx context.Context, existing, newpath string) error
	Rename(ctx context.Context, oldpath, newpath string) error

	Unlink(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string) error

	Chmod(ctx context.Context, path string, mode uint32) error
	Chown(ctx context.Context, path string, uid, gid uint32) error
	Utimes(ctx context.Context, path string, atimeMs, mtimeMs int64) error
	Truncate(ctx context.Context, path string, size uint64) error

	List(ctx context.Context, path string) ([]DirEntry, error)

	Fsync(ctx context.Context, f FD) error

	// Statfs reports filesystem-wide usage figures for Tstatfs; a
	// backend with no real accounting may return zero values.
	Statfs(ctx context.Context) (StatfsInfo, error)
}

// StatfsInfo is what a Backend reports for Tstatfs, beyond the static
// constants in p9 (type/bsize/namelen).
type StatfsInfo struct {
	Blocks uint64
	Bfree  uint64
	Bavail uint64
	Files  uint64
	Ffree  uint64
	Fsid   uint64
}

// now is overridable in tests.
var now = func() time.Time { return time.Now() }
