package p9

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTversionRoundTrip(t *testing.T) {
	a := TversionArgs{Msize: 8192, Version: VersionString}
	buf := make([]byte, 64)
	m := NewMarshaller(buf, 0)
	PackTversion(m, a)
	got := UnpackTversion(NewUnmarshaller(buf[:m.Offset()]))
	require.Equal(t, a, got)
}

func TestTwalkRoundTrip(t *testing.T) {
	a := TwalkArgs{Fid: 1, NewFid: 2, Wname: []string{"a", "bb", "ccc"}}
	buf := make([]byte, 64)
	m := NewMarshaller(buf, 0)
	PackTwalk(m, a)
	got := UnpackTwalk(NewUnmarshaller(buf[:m.Offset()]))
	require.Equal(t, a, got)
}

func TestTwalkRoundTripEmpty(t *testing.T) {
	a := TwalkArgs{Fid: 1, NewFid: 2, Wname: []string{}}
	buf := make([]byte, 64)
	m := NewMarshaller(buf, 0)
	PackTwalk(m, a)
	got := UnpackTwalk(NewUnmarshaller(buf[:m.Offset()]))
	require.Equal(t, a.Fid, got.Fid)
	require.Equal(t, a.NewFid, got.NewFid)
	require.Empty(t, got.Wname)
}

func TestTwriteRoundTrip(t *testing.T) {
	a := TwriteArgs{Fid: 9, Offset: 128, Data: []byte("payload")}
	buf := make([]byte, 64)
	m := NewMarshaller(buf, 0)
	PackTwrite(m, a)
	got := UnpackTwrite(NewUnmarshaller(buf[:m.Offset()]))
	require.Equal(t, a.Fid, got.Fid)
	require.Equal(t, a.Offset, got.Offset)
	require.Equal(t, a.Data, got.Data)
}

func TestTsetattrRoundTrip(t *testing.T) {
	a := TsetattrArgs{
		Fid: 3, Valid: SetAttrMode | SetAttrSize,
		Mode: 0644, Size: 4096,
	}
	buf := make([]byte, 64)
	m := NewMarshaller(buf, 0)
	PackTsetattr(m, a)
	got := UnpackTsetattr(NewUnmarshaller(buf[:m.Offset()]))
	require.Equal(t, a, got)
}

func TestReaddirEntryRoundTrip(t *testing.T) {
	e := ReaddirEntry{QID: NewQID(1, 0, QTDIR), Offset: 40, Type: QTDIR, Name: "subdir"}
	buf := make([]byte, 64)
	m := NewMarshaller(buf, 0)
	PackReaddirEntry(m, e)

	u := NewUnmarshaller(buf[:m.Offset()])
	got := ReaddirEntry{QID: u.GetQID(), Offset: u.GetUint64(), Type: u.GetUint8(), Name: u.GetString()}
	require.Equal(t, e, got)
}

func TestGetattrReplyRoundTrip(t *testing.T) {
	r := GetattrReply{
		Valid: GetAttrAll,
		QID:   NewQID(5, 1, QTFILE),
		Mode:  0100644,
		UID:   1000,
		GID:   1000,
		NLink: 1,
		Size:  2048,
	}
	buf := make([]byte, 256)
	m := NewMarshaller(buf, 0)
	PackRgetattr(m, r)
	require.False(t, m.Overflowed())

	u := NewUnmarshaller(buf[:m.Offset()])
	got := GetattrReply{
		Valid: u.GetUint64(), QID: u.GetQID(), Mode: u.GetUint32(),
		UID: u.GetUint32(), GID: u.GetUint32(), NLink: u.GetUint64(),
		RDev: u.GetUint64(), Size: u.GetUint64(), BlkSize: u.GetUint64(),
		Blocks: u.GetUint64(), ATimeSec: u.GetUint64(), ATimeNsec: u.GetUint64(),
		MTimeSec: u.GetUint64(), MTimeNsec: u.GetUint64(), CTimeSec: u.GetUint64(),
		CTimeNsec: u.GetUint64(), BTimeSec: u.GetUint64(), BTimeNsec: u.GetUint64(),
		Gen: u.GetUint64(), DataVersion: u.GetUint64(),
	}
	require.Equal(t, r, got)
}

func TestPackRlerror(t *testing.T) {
	buf := make([]byte, 8)
	m := NewMarshaller(buf, 0)
	PackRlerror(m, Errno(KindNotExist))
	u := NewUnmarshaller(buf[:m.Offset()])
	require.Equal(t, uint32(2), u.GetUint32())
}
