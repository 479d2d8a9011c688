package fid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableSetGet(t *testing.T) {
	tbl := NewTable()
	tbl.Set(1, &Fid{Path: "/a", Kind: Inode, UID: 1000})

	got, err := tbl.Get(1)
	require.NoError(t, err)
	require.Equal(t, "/a", got.Path)
}

func TestTableGetUnknown(t *testing.T) {
	tbl := NewTable()
	_, err := tbl.Get(99)
	require.ErrorIs(t, err, ErrUnknownFid)
}

func TestTableDeleteIsIdempotent(t *testing.T) {
	tbl := NewTable()
	tbl.Set(1, &Fid{Path: "/a"})
	tbl.Delete(1)
	tbl.Delete(1)
	_, err := tbl.Get(1)
	require.Error(t, err)
}

func TestTableReset(t *testing.T) {
	tbl := NewTable()
	tbl.Set(1, &Fid{Path: "/a"})
	tbl.Set(2, &Fid{Path: "/b"})
	tbl.Reset()
	_, err := tbl.Get(1)
	require.Error(t, err)
	_, err = tbl.Get(2)
	require.Error(t, err)
}

func TestTableSnapshotRestore(t *testing.T) {
	tbl := NewTable()
	tbl.Set(1, &Fid{Path: "/a", Kind: Inode, UID: 7})
	snap := tbl.Snapshot()

	other := NewTable()
	other.Restore(snap)

	got, err := other.Get(1)
	require.NoError(t, err)
	require.Equal(t, "/a", got.Path)
	require.Equal(t, uint32(7), got.UID)
}

func TestSnapshotIsACopy(t *testing.T) {
	tbl := NewTable()
	tbl.Set(1, &Fid{Path: "/a"})
	snap := tbl.Snapshot()

	tbl.Set(1, &Fid{Path: "/changed"})
	require.Equal(t, "/a", snap[1].Path)
}
