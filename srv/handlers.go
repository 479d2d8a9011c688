package srv

import (
	"context"
	"path"
	"time"

	"github.com/virtio9p/ninep/backend"
	"github.com/virtio9p/ninep/fid"
	"github.com/virtio9p/ninep/p9"
)

// nowMs returns the current wall-clock time in milliseconds, used by
// Tsetattr's ATIME/MTIME (without _SET) to stamp the current time.
func nowMs() int64 { return time.Now().UnixMilli() }

// Linux open(2) flag bits. O_CREAT and O_EXCL are added on top of the
// client-supplied flags for Tlcreate, since the 9P2000.L wire flags are
// what the client wants to use *after* creation and do not themselves
// request creation; O_WRONLY is the flag Twrite opens the file with.
const (
	linuxOCreat = 0o100
	linuxOExcl  = 0o200
	linuxOWronly = 0o1
)

func (s *Srv) getFid(tagv uint16, id uint32) (*fid.Fid, bool) {
	f, err := s.Fids.Get(id)
	if err != nil {
		return nil, false
	}
	return f, true
}

// --- Tversion -----------------------------------------------------------

func (s *Srv) handleVersion(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTversion(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	msize := a.Msize
	if cap := s.Msize(); msize > cap || msize == 0 {
		msize = cap
	}
	s.setMsize(msize)
	s.Fids.Reset()
	s.resetReadCache()

	if s.aborted(tagv) {
		return nil
	}
	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRversion(m, msize, p9.VersionString)
	return s.buildReply(buf, p9.Rversion, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tattach --------------------------------------------------------------

func (s *Srv) handleAttach(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTattach(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	st, err := s.Backend.Lstat(ctx, "/")
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	s.Fids.Set(a.Fid, &fid.Fid{Path: "/", Kind: fid.Inode, UID: a.UID})

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRattach(m, st.QID())
	return s.buildReply(buf, p9.Rattach, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Twalk ------------------------------------------------------------
//
// Strict-prefix walk: any failing component aborts the whole walk with
// an error and leaves newfid unbound. This is a deliberate
// simplification relative to stock 9P's short-walk success, which
// returns as many qids as resolved and leaves the client to retry the
// remainder.

func (s *Srv) handleWalk(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTwalk(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	if len(a.Wname) == 0 {
		s.Fids.Set(a.NewFid, &fid.Fid{Path: f.Path, Kind: f.Kind, UID: f.UID})
		if s.aborted(tagv) {
			return nil
		}
		m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
		p9.PackRwalk(m, nil)
		return s.buildReply(buf, p9.Rwalk, tagv, m.Offset()-p9.FrameHeaderSize)
	}

	cur := f.Path
	wqid := make([]p9.QID, 0, len(a.Wname))
	for _, name := range a.Wname {
		next := path.Join(cur, name)
		st, err := s.Backend.Lstat(ctx, next)
		if s.aborted(tagv) {
			return nil
		}
		if err != nil {
			return s.sendError(tagv, buf, backendKind(err))
		}
		wqid = append(wqid, st.QID())
		cur = next
	}

	s.Fids.Set(a.NewFid, &fid.Fid{Path: cur, Kind: fid.Inode, UID: f.UID})

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRwalk(m, wqid)
	return s.buildReply(buf, p9.Rwalk, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tlopen -----------------------------------------------------------

func (s *Srv) handleLopen(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTlopen(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	st, err := s.Backend.Lstat(ctx, f.Path)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRlopen(m, st.QID(), s.Msize()-p9.IOHeaderSize)
	return s.buildReply(buf, p9.Rlopen, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tlcreate -----------------------------------------------------------

func (s *Srv) handleLcreate(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTlcreate(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	newpath := path.Join(f.Path, a.Name)
	fd, err := s.Backend.Open(ctx, newpath, a.Flags|linuxOCreat|linuxOExcl, a.Mode)
	if s.aborted(tagv) {
		if err == nil {
			s.Backend.Close(ctx, fd)
		}
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}
	// The fd is closed before replying; Tread/Twrite on this fid
	// re-open the backend file per I/O.
	if err := s.Backend.Close(ctx, fd); err != nil && !s.aborted(tagv) {
		return s.sendError(tagv, buf, backendKind(err))
	}

	st, err := s.Backend.Lstat(ctx, newpath)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	s.Fids.Set(a.Fid, &fid.Fid{Path: newpath, Kind: fid.Inode, UID: f.UID})

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRlcreate(m, st.QID(), s.Msize()-p9.IOHeaderSize)
	return s.buildReply(buf, p9.Rlcreate, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tsymlink -----------------------------------------------------------

func (s *Srv) handleSymlink(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTsymlink(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.DFid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	newpath := path.Join(f.Path, a.Name)
	err := s.Backend.Symlink(ctx, a.Target, newpath)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	st, err := s.Backend.Lstat(ctx, newpath)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRsymlink(m, st.QID())
	return s.buildReply(buf, p9.Rsymlink, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tmknod -----------------------------------------------------------
//
// Special-file types are collapsed to FILE.

func (s *Srv) handleMknod(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTmknod(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.DFid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	newpath := path.Join(f.Path, a.Name)
	err := s.Backend.Mknod(ctx, newpath, backend.FILE, a.Mode)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	st, err := s.Backend.Lstat(ctx, newpath)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRmknod(m, st.QID())
	return s.buildReply(buf, p9.Rmknod, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Treadlink -----------------------------------------------------------

func (s *Srv) handleReadlink(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTreadlink(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	target, err := s.Backend.Readlink(ctx, f.Path)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRreadlink(m, target)
	return s.buildReply(buf, p9.Rreadlink, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tgetattr -----------------------------------------------------------

func (s *Srv) handleGetattr(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTgetattr(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	st, err := s.Backend.Lstat(ctx, f.Path)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	atSec, atNsec := msToSecNsec(st.ATimeMs)
	mtSec, mtNsec := msToSecNsec(st.MTimeMs)
	ctSec, ctNsec := msToSecNsec(st.CTimeMs)

	r := p9.GetattrReply{
		Valid:     p9.GetAttrAll,
		QID:       st.QID(),
		Mode:      st.PosixMode(),
		UID:       st.UID,
		GID:       st.GID,
		NLink:     st.NLink,
		RDev:      st.RDev,
		Size:      st.Size,
		BlkSize:   p9.BlockSize,
		Blocks:    st.Size/512 + 1,
		ATimeSec:  atSec,
		ATimeNsec: atNsec,
		MTimeSec:  mtSec,
		MTimeNsec: mtNsec,
		CTimeSec:  ctSec,
		CTimeNsec: ctNsec,
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRgetattr(m, r)
	return s.buildReply(buf, p9.Rgetattr, tagv, m.Offset()-p9.FrameHeaderSize)
}

// msToSecNsec converts a millisecond timestamp to (sec, nsec): sec =
// round(ms/1000), nsec = ms*1e6. nsec is not reduced modulo 1e9: it
// carries the whole timestamp in nanoseconds, not only its sub-second
// part.
func msToSecNsec(ms int64) (uint64, uint64) {
	sec := (ms + 500) / 1000
	if sec < 0 {
		sec = 0
	}
	nsec := ms * 1_000_000
	if nsec < 0 {
		nsec = 0
	}
	return uint64(sec), uint64(nsec)
}

// --- Tsetattr -----------------------------------------------------------

func (s *Srv) handleSetattr(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTsetattr(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	if a.Valid&p9.SetAttrMode != 0 {
		if err := s.Backend.Chmod(ctx, f.Path, a.Mode); err != nil {
			if s.aborted(tagv) {
				return nil
			}
			return s.sendError(tagv, buf, backendKind(err))
		}
		if s.aborted(tagv) {
			return nil
		}
	}

	// A UID bit without the GID bit (or the reverse) is ignored: no
	// Chown is issued, since this server would otherwise need to fetch
	// the other half from a stat it doesn't have handy here. The other
	// requested attributes are still applied.
	hasUID := a.Valid&p9.SetAttrUID != 0
	hasGID := a.Valid&p9.SetAttrGID != 0
	if hasUID && hasGID {
		if err := s.Backend.Chown(ctx, f.Path, a.UID, a.GID); err != nil {
			if s.aborted(tagv) {
				return nil
			}
			return s.sendError(tagv, buf, backendKind(err))
		}
		if s.aborted(tagv) {
			return nil
		}
	}

	if a.Valid&p9.SetAttrSize != 0 {
		if err := s.Backend.Truncate(ctx, f.Path, a.Size); err != nil {
			if s.aborted(tagv) {
				return nil
			}
			return s.sendError(tagv, buf, backendKind(err))
		}
		if s.aborted(tagv) {
			return nil
		}
		s.invalidateRead(a.Fid)
	}

	const atimeBits = p9.SetAttrATime | p9.SetAttrATimeSet
	const mtimeBits = p9.SetAttrMTime | p9.SetAttrMTimeSet
	if a.Valid&(atimeBits|mtimeBits) != 0 {
		st, err := s.Backend.Lstat(ctx, f.Path)
		if s.aborted(tagv) {
			return nil
		}
		if err != nil {
			return s.sendError(tagv, buf, backendKind(err))
		}

		atimeMs := st.ATimeMs
		mtimeMs := st.MTimeMs
		now := nowMs()
		switch {
		case a.Valid&p9.SetAttrATimeSet != 0:
			atimeMs = int64(a.ATimeSec)*1000 + int64(a.ATimeNsec)/1_000_000
		case a.Valid&p9.SetAttrATime != 0:
			atimeMs = now
		}
		switch {
		case a.Valid&p9.SetAttrMTimeSet != 0:
			mtimeMs = int64(a.MTimeSec)*1000 + int64(a.MTimeNsec)/1_000_000
		case a.Valid&p9.SetAttrMTime != 0:
			mtimeMs = now
		}

		if err := s.Backend.Utimes(ctx, f.Path, atimeMs, mtimeMs); err != nil {
			if s.aborted(tagv) {
				return nil
			}
			return s.sendError(tagv, buf, backendKind(err))
		}
		if s.aborted(tagv) {
			return nil
		}
	}

	// CTIME is accepted but ignored.

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRsetattr(m)
	return s.buildReply(buf, p9.Rsetattr, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Treaddir -----------------------------------------------------------

func (s *Srv) handleReaddir(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTreaddir(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	selfSt, err := s.Backend.Lstat(ctx, f.Path)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	entries, err := s.Backend.List(ctx, f.Path)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	full := serializeReaddir(selfSt, entries)

	start := a.Offset
	if start > uint64(len(full)) {
		start = uint64(len(full))
	}
	end := start + uint64(a.Count)
	if end > uint64(len(full)) {
		end = uint64(len(full))
	}
	data := full[start:end]

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRreaddir(m, data)
	return s.buildReply(buf, p9.Rreaddir, tagv, m.Offset()-p9.FrameHeaderSize)
}

// readdirPending is one not-yet-serialized directory entry, used by
// serializeReaddir to compute each entry's byte offset before packing.
type readdirPending struct {
	qid  p9.QID
	typ  uint8
	name string
}

func (p readdirPending) size() int { return 13 + 8 + 1 + 2 + len(p.name) }

// serializeReaddir packs the full directory listing: synthetic "." and
// ".." first, then the backend's entries in order. Each entry's Offset
// is the byte offset of the *next* entry.
func serializeReaddir(self backend.Stat, entries []backend.DirEntry) []byte {
	selfType := uint8(self.PosixMode() >> 12)
	all := make([]readdirPending, 0, len(entries)+2)
	all = append(all, readdirPending{qid: self.QID(), typ: selfType, name: "."})
	all = append(all, readdirPending{qid: self.QID(), typ: selfType, name: ".."})
	for _, e := range entries {
		st := backend.Stat{Type: e.Type, Mode: e.Mode, Version: e.Version, Node: e.Node}
		all = append(all, readdirPending{qid: st.QID(), typ: uint8(st.PosixMode() >> 12), name: e.Name})
	}

	size := 0
	for _, p := range all {
		size += p.size()
	}
	out := make([]byte, size)

	pos := 0
	m := p9.NewMarshaller(out, 0)
	for _, p := range all {
		pos += p.size()
		p9.PackReaddirEntry(m, p9.ReaddirEntry{QID: p.qid, Offset: uint64(pos), Type: p.typ, Name: p.name})
	}
	return out
}

// --- Tread ----------------------------------------------------------------
//
// The first Tread on a fid fetches the whole file and caches it on the
// fid; subsequent Tread calls on the same fid reuse it, so a chunked
// read issues at most one ReadFile per open file. A tag cannot anchor
// this cache: buildReply flushes a tag's bookkeeping on every reply, so
// nothing tied to a tag ever survives past the single request that
// populated it.

func (s *Srv) handleRead(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTread(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	data, ok := s.cachedRead(a.Fid)
	if !ok {
		fetched, err := s.Backend.ReadFile(ctx, f.Path)
		if s.aborted(tagv) {
			return nil
		}
		if err != nil {
			return s.sendError(tagv, buf, backendKind(err))
		}
		data = fetched
		s.setCachedRead(a.Fid, data)
	}

	start := a.Offset
	if start > uint64(len(data)) {
		start = uint64(len(data))
	}
	end := start + uint64(a.Count)
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	chunk := data[start:end]

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRread(m, chunk)
	return s.buildReply(buf, p9.Rread, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Twrite -----------------------------------------------------------

func (s *Srv) handleWrite(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTwrite(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	fd, err := s.Backend.Open(ctx, f.Path, linuxOWronly, 0)
	if s.aborted(tagv) {
		if err == nil {
			s.Backend.Close(ctx, fd)
		}
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	n, werr := s.Backend.Write(ctx, fd, a.Data, a.Offset)
	s.Backend.Close(ctx, fd)
	if s.aborted(tagv) {
		return nil
	}
	if werr != nil {
		return s.sendError(tagv, buf, backendKind(werr))
	}
	s.invalidateRead(a.Fid)

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRwrite(m, uint32(n))
	return s.buildReply(buf, p9.Rwrite, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Trenameat -----------------------------------------------------------

func (s *Srv) handleRenameat(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTrenameat(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	oldDir, ok := s.getFid(tagv, a.OldDirFid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}
	newDir, ok := s.getFid(tagv, a.NewDirFid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	oldpath := path.Join(oldDir.Path, a.OldName)
	newpath := path.Join(newDir.Path, a.NewName)
	err := s.Backend.Rename(ctx, oldpath, newpath)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRrenameat(m)
	return s.buildReply(buf, p9.Rrenameat, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tunlinkat -----------------------------------------------------------

func (s *Srv) handleUnlinkat(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTunlinkat(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	dir, ok := s.getFid(tagv, a.DirFid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	target := path.Join(dir.Path, a.Name)
	st, err := s.Backend.Lstat(ctx, target)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	if st.Type == backend.DIRECTORY {
		err = s.Backend.Rmdir(ctx, target)
	} else {
		err = s.Backend.Unlink(ctx, target)
	}
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRunlinkat(m)
	return s.buildReply(buf, p9.Runlinkat, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tlink -----------------------------------------------------------

func (s *Srv) handleLink(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTlink(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	dir, ok := s.getFid(tagv, a.DFid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}
	target, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	newpath := path.Join(dir.Path, a.Name)
	err := s.Backend.Link(ctx, target.Path, newpath)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRlink(m)
	return s.buildReply(buf, p9.Rlink, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tmkdir -----------------------------------------------------------

func (s *Srv) handleMkdir(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTmkdir(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	f, ok := s.getFid(tagv, a.DFid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	newpath := path.Join(f.Path, a.Name)
	err := s.Backend.Mkdir(ctx, newpath, a.Mode)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	st, err := s.Backend.Lstat(ctx, newpath)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRmkdir(m, st.QID())
	return s.buildReply(buf, p9.Rmkdir, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tstatfs -----------------------------------------------------------

func (s *Srv) handleStatfs(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTstatfs(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}
	if _, ok := s.getFid(tagv, a.Fid); !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	info, err := s.Backend.Statfs(ctx)
	if s.aborted(tagv) {
		return nil
	}
	if err != nil {
		return s.sendError(tagv, buf, backendKind(err))
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRstatfs(m, p9.StatfsReply{
		Type:    p9.StatfsType,
		Bsize:   p9.StatfsBsize,
		Blocks:  info.Blocks,
		Bfree:   info.Bfree,
		Bavail:  info.Bavail,
		Files:   info.Files,
		Ffree:   info.Ffree,
		Fsid:    info.Fsid,
		NameLen: p9.StatfsNameLen,
	})
	return s.buildReply(buf, p9.Rstatfs, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tclunk -----------------------------------------------------------

func (s *Srv) handleClunk(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTclunk(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	s.Fids.Delete(a.Fid)
	s.invalidateRead(a.Fid)
	if s.aborted(tagv) {
		return nil
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRclunk(m)
	return s.buildReply(buf, p9.Rclunk, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tflush -----------------------------------------------------------

func (s *Srv) handleFlush(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTflush(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}

	s.Tags.Flush(a.OldTag)
	if s.aborted(tagv) {
		return nil
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRflush(m)
	return s.buildReply(buf, p9.Rflush, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tfsync -----------------------------------------------------------

func (s *Srv) handleFsync(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTfsync(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}
	if _, ok := s.getFid(tagv, a.Fid); !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}
	if s.aborted(tagv) {
		return nil
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRfsync(m)
	return s.buildReply(buf, p9.Rfsync, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Tlock -----------------------------------------------------------
//
// Advisory locks always succeed; this server does not implement real
// lock contention.

func (s *Srv) handleLock(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTlock(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}
	if _, ok := s.getFid(tagv, a.Fid); !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}
	if s.aborted(tagv) {
		return nil
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRlock(m, 0)
	return s.buildReply(buf, p9.Rlock, tagv, m.Offset()-p9.FrameHeaderSize)
}

// --- Txattrwalk / Txattrcreate -------------------------------------------
//
// Extended attributes are stubbed: every fid advertises zero xattr
// bytes.

func (s *Srv) handleXattrwalk(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTxattrwalk(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}
	f, ok := s.getFid(tagv, a.Fid)
	if !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}

	s.Fids.Set(a.NewFid, &fid.Fid{Path: f.Path, Kind: fid.None, UID: f.UID})
	if s.aborted(tagv) {
		return nil
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRxattrwalk(m, 0)
	return s.buildReply(buf, p9.Rxattrwalk, tagv, m.Offset()-p9.FrameHeaderSize)
}

func (s *Srv) handleXattrcreate(ctx context.Context, tagv uint16, u *p9.Unmarshaller, buf []byte) []byte {
	a := p9.UnpackTxattrcreate(u)
	if u.Short() {
		return s.sendError(tagv, buf, p9.KindInvalid)
	}
	if _, ok := s.getFid(tagv, a.Fid); !ok {
		return s.sendError(tagv, buf, p9.KindBadFD)
	}
	if s.aborted(tagv) {
		return nil
	}

	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRxattrcreate(m)
	return s.buildReply(buf, p9.Rxattrcreate, tagv, m.Offset()-p9.FrameHeaderSize)
}

// backendKind extracts the errno kind from a backend error; anything
// unmapped falls back to EIO.
func backendKind(err error) p9.ErrnoKind {
	return backend.KindOf(err)
}
