// Package srv implements the Request Dispatcher: per-message handlers
// that parse args, invoke the backend, and marshal replies, plus the
// fid/tag lifecycle and reply-buffer bookkeeping this requires.
//
// Grounded structurally on go9p's p/srv/conn.go dispatch loop
// (Conn.recv parses the header, registers the request, spawns
// go req.process()) and on p/srv/ufs/ufs.go's handler methods, reworked
// for the 9P2000.L message set: each Txxx handler below corresponds to
// one Ufs method there, generalized from *srv.Req-threading to
// (ctx, tag, body, reply buffer) -> reply bytes, where a nil result
// means no reply is sent.
package srv

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/virtio9p/ninep/backend"
	"github.com/virtio9p/ninep/fid"
	"github.com/virtio9p/ninep/p9"
	"github.com/virtio9p/ninep/tag"
	"github.com/virtio9p/ninep/transport"
)

// Srv is one session's dispatcher: it owns the fid table, tag registry,
// and negotiated session parameters, and drives a pluggable backend.
// Grounded on go9p's srv.Conn, minus the net.Conn (reading/writing
// frames is the transport's job here, not the dispatcher's).
type Srv struct {
	Backend backend.Backend
	Log     *logrus.Entry

	// Device mirrors the virtio "Device config" space (device id,
	// host feature bits, mount tag); this dispatcher does not speak
	// virtio, it only carries the value for session save/restore.
	Device transport.DeviceConfig

	mu      sync.Mutex
	msize   uint32
	started bool

	Fids *fid.Table
	Tags *tag.Registry

	readCacheMu sync.Mutex
	readCache   map[uint32][]byte
}

// New returns a dispatcher for backend b with the given maximum
// server-supported msize (before Tversion negotiation). maxMsize of 0
// falls back to p9.DefaultMsize.
func New(b backend.Backend, log *logrus.Entry, maxMsize uint32) *Srv {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if maxMsize == 0 {
		maxMsize = p9.DefaultMsize
	}
	return &Srv{
		Backend:   b,
		Log:       log,
		Device:    transport.DeviceConfig{MountTag: transport.DefaultMountTag},
		msize:     maxMsize,
		Fids:      fid.NewTable(),
		Tags:      tag.NewRegistry(),
		readCache: make(map[uint32][]byte),
	}
}

// cachedRead returns the whole-file bytes previously fetched for fid, if
// any. The cache is keyed by fid rather than by tag: a tag never outlives
// the single reply buildReply sends for it, so a fid (which persists
// across the separate Tread requests a chunked read actually arrives as)
// is the only thing a read cache can usefully survive between.
func (s *Srv) cachedRead(fidv uint32) ([]byte, bool) {
	s.readCacheMu.Lock()
	defer s.readCacheMu.Unlock()
	data, ok := s.readCache[fidv]
	return data, ok
}

// setCachedRead installs the whole-file bytes fetched for fid.
func (s *Srv) setCachedRead(fidv uint32, data []byte) {
	s.readCacheMu.Lock()
	defer s.readCacheMu.Unlock()
	s.readCache[fidv] = data
}

// invalidateRead drops any cached read data for fid, used whenever a
// write or truncate may have changed the bytes a later Tread would see.
func (s *Srv) invalidateRead(fidv uint32) {
	s.readCacheMu.Lock()
	defer s.readCacheMu.Unlock()
	delete(s.readCache, fidv)
}

// resetReadCache drops every cached read, used by Tversion.
func (s *Srv) resetReadCache() {
	s.readCacheMu.Lock()
	defer s.readCacheMu.Unlock()
	s.readCache = make(map[uint32][]byte)
}

// Msize returns the negotiated maximum message size (or the server's
// cap, before Tversion).
func (s *Srv) Msize() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msize
}

func (s *Srv) setMsize(v uint32) {
	s.mu.Lock()
	s.msize = v
	s.mu.Unlock()
}

// HandleFrame parses one 9P frame's header, registers its tag, and
// dispatches to the matching handler on its own goroutine so that a
// later Tflush referencing this tag can be serviced concurrently.
//
// frame must contain exactly one complete message (size[4] id[1]
// tag[2] body...); callers (the transport) are responsible for framing.
func (s *Srv) HandleFrame(frame []byte, index uint32, t transport.Transport) {
	if len(frame) < p9.FrameHeaderSize {
		t.Abort(errShortFrame)
		return
	}

	u := p9.NewUnmarshaller(frame)
	_ = u.GetUint32() // size, re-derived when building the reply
	id := u.GetUint8()
	tagv := u.GetUint16()

	s.Tags.Add(tagv)

	go s.dispatch(id, tagv, u, index, t)
}

func (s *Srv) dispatch(id uint8, tagv uint16, u *p9.Unmarshaller, index uint32, t transport.Transport) {
	ctx := context.Background()
	buf := make([]byte, 2*s.Msize())

	reply := s.route(ctx, id, tagv, u, buf, t)
	if reply == nil {
		// Either the handler aborted (ShouldAbort observed true) or
		// Tflush already cleared the tag; no reply is sent.
		return
	}
	if err := t.Send(index, reply); err != nil {
		s.Log.WithError(err).WithField("tag", tagv).Warn("srv: transport send failed")
	}
}

func (s *Srv) route(ctx context.Context, id uint8, tagv uint16, u *p9.Unmarshaller, buf []byte, t transport.Transport) []byte {
	switch id {
	case p9.Tversion:
		return s.handleVersion(ctx, tagv, u, buf)
	case p9.Tattach:
		return s.handleAttach(ctx, tagv, u, buf)
	case p9.Twalk:
		return s.handleWalk(ctx, tagv, u, buf)
	case p9.Tlopen:
		return s.handleLopen(ctx, tagv, u, buf)
	case p9.Tlcreate:
		return s.handleLcreate(ctx, tagv, u, buf)
	case p9.Tsymlink:
		return s.handleSymlink(ctx, tagv, u, buf)
	case p9.Tmknod:
		return s.handleMknod(ctx, tagv, u, buf)
	case p9.Treadlink:
		return s.handleReadlink(ctx, tagv, u, buf)
	case p9.Tgetattr:
		return s.handleGetattr(ctx, tagv, u, buf)
	case p9.Tsetattr:
		return s.handleSetattr(ctx, tagv, u, buf)
	case p9.Treaddir:
		return s.handleReaddir(ctx, tagv, u, buf)
	case p9.Tread:
		return s.handleRead(ctx, tagv, u, buf)
	case p9.Twrite:
		return s.handleWrite(ctx, tagv, u, buf)
	case p9.Trenameat:
		return s.handleRenameat(ctx, tagv, u, buf)
	case p9.Tunlinkat:
		return s.handleUnlinkat(ctx, tagv, u, buf)
	case p9.Tlink:
		return s.handleLink(ctx, tagv, u, buf)
	case p9.Tmkdir:
		return s.handleMkdir(ctx, tagv, u, buf)
	case p9.Tstatfs:
		return s.handleStatfs(ctx, tagv, u, buf)
	case p9.Tclunk:
		return s.handleClunk(ctx, tagv, u, buf)
	case p9.Tflush:
		return s.handleFlush(ctx, tagv, u, buf)
	case p9.Tfsync:
		return s.handleFsync(ctx, tagv, u, buf)
	case p9.Tlock:
		return s.handleLock(ctx, tagv, u, buf)
	case p9.Txattrwalk:
		return s.handleXattrwalk(ctx, tagv, u, buf)
	case p9.Txattrcreate:
		return s.handleXattrcreate(ctx, tagv, u, buf)
	case p9.Tauth:
		return s.sendError(tagv, buf, p9.KindInvalid)
	default:
		s.Tags.Flush(tagv)
		s.Log.WithField("id", id).Error("srv: unknown message id, aborting session")
		t.Abort(unknownMessageError{id: id})
		return nil
	}
}

type unknownMessageError struct{ id uint8 }

func (e unknownMessageError) Error() string {
	return "srv: unknown message id"
}

// aborted reports whether tag has been superseded by a Tflush. Handlers
// must call this immediately after any backend call returns, before
// touching the reply buffer.
func (s *Srv) aborted(tagv uint16) bool {
	return s.Tags.ShouldAbort(tagv)
}

// buildReply writes (size, replyID, tag) at offset 0 of buf and flushes
// the tag. n is the body length already written starting at offset 7.
func (s *Srv) buildReply(buf []byte, replyID uint8, tagv uint16, n int) []byte {
	total := n + p9.FrameHeaderSize
	m := p9.NewMarshaller(buf, 0)
	m.PutUint32(uint32(total))
	m.PutUint8(replyID)
	m.PutUint16(tagv)
	s.Tags.Flush(tagv)
	return buf[:total]
}

// sendError encodes an Rlerror reply for the given backend error kind
// and flushes the tag.
func (s *Srv) sendError(tagv uint16, buf []byte, kind p9.ErrnoKind) []byte {
	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRlerror(m, p9.Errno(kind))
	return s.buildReply(buf, p9.Rlerror, tagv, m.Offset()-p9.FrameHeaderSize)
}

var errShortFrame = shortFrameError{}

type shortFrameError struct{}

func (shortFrameError) Error() string { return "srv: frame shorter than header" }
