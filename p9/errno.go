package p9

// ErrnoKind identifies a POSIX error kind reported by a backend, decoupled
// from any particular OS's syscall.Errno so that backends (including
// non-OS ones, such as an in-memory filesystem) can report errors without
// importing syscall. Grounded on go9p's p.Error{Err string, Errornum
// uint32}, specialized to the kinds this server actually maps.
type ErrnoKind int

const (
	KindUnknown ErrnoKind = iota
	KindPerm
	KindNotExist
	KindIO
	KindBadFD
	KindBusy
	KindExist
	KindNotDir
	KindIsDir
	KindInvalid
	KindNotEmpty
	KindLoop
)

// errnoTable maps backend error kinds to POSIX errno numbers.
var errnoTable = map[ErrnoKind]uint32{
	KindPerm:     1,  // EPERM
	KindNotExist: 2,  // ENOENT
	KindIO:       5,  // EIO
	KindBadFD:    9,  // EBADF
	KindBusy:     11, // EBUSY
	KindExist:    17, // EEXIST
	KindNotDir:   20, // ENOTDIR
	KindIsDir:    21, // EISDIR
	KindInvalid:  22, // EINVAL
	KindNotEmpty: 39, // ENOTEMPTY
	KindLoop:     40, // ELOOP
}

// Errno converts a backend error kind to its POSIX errno. Unmapped kinds
// (including KindUnknown) fall back to EIO.
func Errno(k ErrnoKind) uint32 {
	if n, ok := errnoTable[k]; ok {
		return n
	}
	return errnoTable[KindIO]
}
