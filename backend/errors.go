package backend

import (
	"errors"
	"io/fs"
	"os"
	"syscall"

	pkgerrors "github.com/pkg/errors"

	"github.com/virtio9p/ninep/p9"
)

// Error is a backend error tagged with a POSIX error kind, so the
// dispatcher can map it to an Rlerror errno without depending on
// syscall.Errno directly (a non-OS backend, e.g. an in-memory fs used in
// tests, has no syscall errno to report). Grounded on go9p's
// p.Error{Err string, Errornum uint32} (see ufs.go's toError).
type Error struct {
	Kind p9.ErrnoKind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with an explicit kind, using pkg/errors to retain a
// stack for diagnostics the way containers-podman and linuxkit-linuxkit
// wrap lower-level causes.
func NewError(kind p9.ErrnoKind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: pkgerrors.WithStack(err)}
}

// FromOSError classifies a stdlib os/syscall error into a backend.Error,
// grounded on go9p's ufs.go toError, extended with the errno kinds a
// POSIX-backed Backend needs (ENOTDIR, EISDIR, ENOTEMPTY, ELOOP).
func FromOSError(err error) error {
	if err == nil {
		return nil
	}
	var alreadyTagged *Error
	if errors.As(err, &alreadyTagged) {
		return err
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return NewError(kindFromErrno(errno), err)
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, fs.ErrNotExist) {
		return NewError(p9.KindNotExist, err)
	}
	if errors.Is(err, os.ErrExist) || errors.Is(err, fs.ErrExist) {
		return NewError(p9.KindExist, err)
	}
	if errors.Is(err, os.ErrPermission) || errors.Is(err, fs.ErrPermission) {
		return NewError(p9.KindPerm, err)
	}
	return NewError(p9.KindIO, err)
}

func kindFromErrno(errno syscall.Errno) p9.ErrnoKind {
	switch errno {
	case syscall.EPERM:
		return p9.KindPerm
	case syscall.ENOENT:
		return p9.KindNotExist
	case syscall.EBADF:
		return p9.KindBadFD
	case syscall.EBUSY:
		return p9.KindBusy
	case syscall.EEXIST:
		return p9.KindExist
	case syscall.ENOTDIR:
		return p9.KindNotDir
	case syscall.EISDIR:
		return p9.KindIsDir
	case syscall.EINVAL:
		return p9.KindInvalid
	case syscall.ENOTEMPTY:
		return p9.KindNotEmpty
	case syscall.ELOOP:
		return p9.KindLoop
	default:
		return p9.KindIO
	}
}

// KindOf extracts the errno kind from err, defaulting to KindIO for any
// error that was never classified by FromOSError/NewError.
func KindOf(err error) p9.ErrnoKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return p9.KindIO
}
