// Package fid implements the FID table: the map from a client-chosen
// 32-bit handle to the (path, kind, uid) record the dispatcher associates
// with it. Grounded on go9p's Conn.fidpool (map[uint32]*Fid) in
// p/srv/conn.go, generalized with a mutex since this dispatcher runs
// one goroutine per in-flight request rather than serializing them.
package fid

import (
	"sync"

	"github.com/pkg/errors"
)

// Kind identifies what a fid currently refers to.
type Kind int

const (
	// None is used for fids that do not name an inode (e.g. after
	// Txattrwalk, which this server advertises as always-empty).
	None Kind = iota
	Inode
	Xattr
)

// ErrUnknownFid is returned by Table.Get for an unregistered fid,
// corresponding to EBADF.
var ErrUnknownFid = errors.New("fid: unknown fid")

// Fid is the record a client-chosen handle maps to.
type Fid struct {
	Path string
	Kind Kind
	UID  uint32
}

// Table is a dense map of u32 fid to Fid record, guarded by a mutex so
// that concurrently-dispatched requests (one goroutine per in-flight
// frame) can share it safely.
type Table struct {
	mu sync.Mutex
	m  map[uint32]*Fid
}

// NewTable returns an empty fid table.
func NewTable() *Table {
	return &Table{m: make(map[uint32]*Fid)}
}

// Set installs or replaces the record for fid.
func (t *Table) Set(id uint32, f *Fid) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m[id] = f
}

// Get looks up fid, returning ErrUnknownFid if it is not registered.
func (t *Table) Get(id uint32) (*Fid, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.m[id]
	if !ok {
		return nil, ErrUnknownFid
	}
	return f, nil
}

// Delete removes fid, if present. Tclunk never fails, so callers do
// not check whether fid was actually registered.
func (t *Table) Delete(id uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.m, id)
}

// Reset clears every fid, used by Tversion.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.m = make(map[uint32]*Fid)
}

// Snapshot returns a copy of the table contents, used by session
// save/restore (srv.SaveState).
func (t *Table) Snapshot() map[uint32]Fid {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[uint32]Fid, len(t.m))
	for id, f := range t.m {
		out[id] = *f
	}
	return out
}

// Restore replaces the table contents from a snapshot, used by session
// save/restore (srv.RestoreState).
func (t *Table) Restore(snap map[uint32]Fid) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := make(map[uint32]*Fid, len(snap))
	for id, f := range snap {
		v := f
		m[id] = &v
	}
	t.m = m
}
