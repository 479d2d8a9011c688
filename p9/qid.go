package p9

import "hash/fnv"

// QID is the 13-byte server-assigned identity of a filesystem node.
// Grounded on go9p's p9.go Qid type (qtype/version/path fields), widened
// to exported fields for the .L dispatcher.
type QID struct {
	Type    uint8
	Version uint32
	Path    uint64
}

// Equal reports whether two QIDs identify the same node revision.
func (q QID) Equal(o QID) bool {
	return q.Type == o.Type && q.Version == o.Version && q.Path == o.Path
}

// NewQID derives a stable QID from a backend node identifier. Two node
// identifiers collide in Path iff they FNV-1a hash-collide to the same
// 32 bits; the hash is zero-extended to 64 bits.
//
// nodeID is whatever the backend uses to name a node (e.g. an inode
// number or a path string hashed by the backend itself); this function
// only does the final fold into a QID-sized path, mirroring go9p's
// dir2Qid which takes the raw inode number directly from syscall.Stat_t.
func NewQID(nodeID uint64, version uint32, kind uint8) QID {
	h := fnv.New32a()
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(nodeID >> (8 * i))
	}
	h.Write(b[:])
	return QID{
		Type:    kind,
		Version: version,
		Path:    uint64(h.Sum32()),
	}
}
