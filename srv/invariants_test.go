package srv

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/virtio9p/ninep/backend"
	"github.com/virtio9p/ninep/backend/osfs"
	"github.com/virtio9p/ninep/fid"
	"github.com/virtio9p/ninep/p9"
)

// countingReadBackend wraps an osfs.Backend and counts ReadFile calls,
// so a test can assert how many times the backend was actually hit.
type countingReadBackend struct {
	*osfs.Backend
	reads int
}

func (b *countingReadBackend) ReadFile(ctx context.Context, path string) ([]byte, error) {
	b.reads++
	return b.Backend.ReadFile(ctx, path)
}

// Invariant 7: a chunked Tread over one fid issues at most one ReadFile
// to the backend, regardless of how many requests (each under its own
// tag, as a real client would send them) it takes to cover the file.
func TestReadCachesOneBackendCallPerFid(t *testing.T) {
	ctx := context.Background()
	cb := &countingReadBackend{Backend: osfs.New(t.TempDir(), nil)}
	s := New(cb, nil, 0)

	fd, err := cb.Open(ctx, "/big.txt", uint32(os.O_CREATE|os.O_WRONLY), 0644)
	require.NoError(t, err)
	payload := make([]byte, 100)
	for i := range payload {
		payload[i] = byte('a' + i%26)
	}
	_, err = cb.Write(ctx, fd, payload, 0)
	require.NoError(t, err)
	require.NoError(t, cb.Close(ctx, fd))

	s.Fids.Set(0, &fid.Fid{Path: "/big.txt", Kind: fid.Inode})

	var reassembled []byte
	tagv := uint16(0)
	for off := uint64(0); off < uint64(len(payload)); off += 10 {
		tagv++
		s.Tags.Add(tagv) // each chunk is its own request, with its own tag
		buf := make([]byte, 2*s.Msize())
		u := readArgsUnmarshaller(0, off, 10)
		reply := s.handleRead(ctx, tagv, u, buf)
		require.NotNil(t, reply)
		data := rreadData(t, reply)
		reassembled = append(reassembled, data...)
	}

	require.Equal(t, payload, reassembled)
	require.Equal(t, 1, cb.reads)
}

// A write to the fid the cache was built from must invalidate it, or a
// later Tread would serve stale bytes.
func TestWriteInvalidatesReadCache(t *testing.T) {
	ctx := context.Background()
	cb := &countingReadBackend{Backend: osfs.New(t.TempDir(), nil)}
	s := New(cb, nil, 0)

	fd, err := cb.Open(ctx, "/f.txt", uint32(os.O_CREATE|os.O_WRONLY), 0644)
	require.NoError(t, err)
	_, err = cb.Write(ctx, fd, []byte("aaaa"), 0)
	require.NoError(t, err)
	require.NoError(t, cb.Close(ctx, fd))

	s.Fids.Set(0, &fid.Fid{Path: "/f.txt", Kind: fid.Inode})

	readBuf := make([]byte, 2*s.Msize())
	s.Tags.Add(1)
	reply := s.handleRead(ctx, 1, readArgsUnmarshaller(0, 0, 4), readBuf)
	require.NotNil(t, reply)
	require.Equal(t, []byte("aaaa"), rreadData(t, reply))
	require.Equal(t, 1, cb.reads)

	writeBuf := make([]byte, 2*s.Msize())
	s.Tags.Add(2)
	wu := writeArgsUnmarshaller(0, 0, []byte("bbbb"))
	wreply := s.handleWrite(ctx, 2, wu, writeBuf)
	require.NotNil(t, wreply)

	readBuf2 := make([]byte, 2*s.Msize())
	s.Tags.Add(3)
	reply2 := s.handleRead(ctx, 3, readArgsUnmarshaller(0, 0, 4), readBuf2)
	require.NotNil(t, reply2)
	require.Equal(t, []byte("bbbb"), rreadData(t, reply2))
	require.Equal(t, 2, cb.reads)
}

func writeArgsUnmarshaller(fidv uint32, offset uint64, data []byte) *p9.Unmarshaller {
	buf := make([]byte, 64+len(data))
	m := p9.NewMarshaller(buf, 0)
	p9.PackTwrite(m, p9.TwriteArgs{Fid: fidv, Offset: offset, Data: data})
	return p9.NewUnmarshaller(buf[:m.Offset()])
}

func readArgsUnmarshaller(fidv uint32, offset uint64, count uint32) *p9.Unmarshaller {
	buf := make([]byte, 64)
	m := p9.NewMarshaller(buf, 0)
	p9.PackTread(m, p9.TreadArgs{Fid: fidv, Offset: offset, Count: count})
	return p9.NewUnmarshaller(buf[:m.Offset()])
}

func rreadData(t *testing.T, reply []byte) []byte {
	t.Helper()
	u := p9.NewUnmarshaller(reply[p9.FrameHeaderSize:])
	n := u.GetUint32()
	return u.GetBytes(int(n))
}

// Invariant 6: Treaddir output, reassembled across chunked requests
// covering the whole listing, starts with "." and ".." followed by the
// backend listing in order.
func TestReaddirChunkedReassembly(t *testing.T) {
	ctx := context.Background()
	b := osfs.New(t.TempDir(), nil)
	s := New(b, nil, 0)

	require.NoError(t, b.Mkdir(ctx, "/dir", 0755))
	for _, name := range []string{"a", "b", "c"} {
		fd, err := b.Open(ctx, "/dir/"+name, uint32(os.O_CREATE|os.O_WRONLY), 0644)
		require.NoError(t, err)
		require.NoError(t, b.Close(ctx, fd))
	}

	s.Fids.Set(0, &fid.Fid{Path: "/dir", Kind: fid.Inode})

	selfSt, err := b.Lstat(ctx, "/dir")
	require.NoError(t, err)
	entries, err := b.List(ctx, "/dir")
	require.NoError(t, err)
	full := serializeReaddir(selfSt, entries)

	var reassembled []byte
	const chunk = 16
	for off := uint64(0); off < uint64(len(full)); off += chunk {
		tagv := uint16(100 + off)
		s.Tags.Add(tagv)
		buf := make([]byte, 2*s.Msize())
		u := readdirArgsUnmarshaller(0, off, chunk)
		reply := s.handleReaddir(ctx, tagv, u, buf)
		require.NotNil(t, reply)
		ru := p9.NewUnmarshaller(reply[p9.FrameHeaderSize:])
		n := ru.GetUint32()
		reassembled = append(reassembled, ru.GetBytes(int(n))...)
	}

	require.Equal(t, full, reassembled)

	decoded := decodeReaddirEntries(t, reassembled)
	require.GreaterOrEqual(t, len(decoded), 5)
	require.Equal(t, ".", decoded[0].name)
	require.Equal(t, "..", decoded[1].name)
	for _, e := range decoded[:2] {
		require.Equal(t, uint8(4), e.typ, ". and .. report the DT_DIR nibble, not the QID type bitmask")
	}
	for _, e := range decoded[2:] {
		require.Equal(t, uint8(8), e.typ, "plain files report the DT_REG nibble")
	}
	names := make([]string, len(decoded))
	for i, e := range decoded {
		names[i] = e.name
	}
	require.ElementsMatch(t, []string{"a", "b", "c"}, names[2:])
}

func readdirArgsUnmarshaller(fidv uint32, offset uint64, count uint32) *p9.Unmarshaller {
	buf := make([]byte, 64)
	m := p9.NewMarshaller(buf, 0)
	p9.PackTreaddir(m, p9.TreaddirArgs{Fid: fidv, Offset: offset, Count: count})
	return p9.NewUnmarshaller(buf[:m.Offset()])
}

type decodedReaddirEntry struct {
	typ  uint8
	name string
}

func decodeReaddirEntries(t *testing.T, data []byte) []decodedReaddirEntry {
	t.Helper()
	u := p9.NewUnmarshaller(data)
	var out []decodedReaddirEntry
	for u.Remaining() > 0 {
		_ = u.GetQID()
		_ = u.GetUint64() // offset
		typ := u.GetUint8()
		name := u.GetString()
		if u.Short() {
			break
		}
		out = append(out, decodedReaddirEntry{typ: typ, name: name})
	}
	return out
}

// Invariant 3: qid(stat(p)) depends only on the backend node identity;
// renaming a file preserves its QID until it is deleted.
func TestQIDStableAcrossRename(t *testing.T) {
	ctx := context.Background()
	b := osfs.New(t.TempDir(), nil)

	fd, err := b.Open(ctx, "/a.txt", uint32(os.O_CREATE|os.O_WRONLY), 0644)
	require.NoError(t, err)
	require.NoError(t, b.Close(ctx, fd))

	before, err := b.Lstat(ctx, "/a.txt")
	require.NoError(t, err)

	require.NoError(t, b.Rename(ctx, "/a.txt", "/b.txt"))

	after, err := b.Lstat(ctx, "/b.txt")
	require.NoError(t, err)

	require.Equal(t, before.QID(), after.QID())
}

// Invariant 4: buildReply writes exactly n+7 bytes at offset 0 and
// returns a slice of that length.
func TestBuildReplySizing(t *testing.T) {
	s := New(osfs.New(t.TempDir(), nil), nil, 0)
	buf := make([]byte, 64)
	m := p9.NewMarshaller(buf, p9.FrameHeaderSize)
	p9.PackRwrite(m, 5)
	n := m.Offset() - p9.FrameHeaderSize

	s.Tags.Add(3)
	out := s.buildReply(buf, p9.Rwrite, 3, n)
	require.Len(t, out, n+p9.FrameHeaderSize)

	u := p9.NewUnmarshaller(out)
	size := u.GetUint32()
	id := u.GetUint8()
	tagv := u.GetUint16()
	require.Equal(t, uint32(n+p9.FrameHeaderSize), size)
	require.Equal(t, uint8(p9.Rwrite), id)
	require.Equal(t, uint16(3), tagv)
}

var _ backend.Backend = (*countingReadBackend)(nil)
