package p9

// Pack functions write 9P2000.L message bodies (request or reply) into a
// Marshaller positioned just past the frame header. Mirrors go9p's
// PackTxxx/PackRxxx family in p9.go, split per message to match the
// Unpack functions in unpack.go one-for-one for round-trip testing.

func PackTversion(m *Marshaller, a TversionArgs) {
	m.PutUint32(a.Msize)
	m.PutString(a.Version)
}

func PackRversion(m *Marshaller, msize uint32, version string) {
	m.PutUint32(msize)
	m.PutString(version)
}

func PackTattach(m *Marshaller, a TattachArgs) {
	m.PutUint32(a.Fid)
	m.PutUint32(a.AFid)
	m.PutString(a.Uname)
	m.PutString(a.Aname)
	m.PutUint32(a.UID)
}

func PackRattach(m *Marshaller, qid QID) {
	m.PutQID(qid)
}

func PackTwalk(m *Marshaller, a TwalkArgs) {
	m.PutUint32(a.Fid)
	m.PutUint32(a.NewFid)
	m.PutUint16(uint16(len(a.Wname)))
	for _, n := range a.Wname {
		m.PutString(n)
	}
}

func PackRwalk(m *Marshaller, wqid []QID) {
	m.PutUint16(uint16(len(wqid)))
	for _, q := range wqid {
		m.PutQID(q)
	}
}

func PackTlopen(m *Marshaller, a TlopenArgs) {
	m.PutUint32(a.Fid)
	m.PutUint32(a.Flags)
}

func PackRlopen(m *Marshaller, qid QID, iounit uint32) {
	m.PutQID(qid)
	m.PutUint32(iounit)
}

func PackTlcreate(m *Marshaller, a TlcreateArgs) {
	m.PutUint32(a.Fid)
	m.PutString(a.Name)
	m.PutUint32(a.Flags)
	m.PutUint32(a.Mode)
	m.PutUint32(a.GID)
}

func PackRlcreate(m *Marshaller, qid QID, iounit uint32) {
	m.PutQID(qid)
	m.PutUint32(iounit)
}

func PackTsymlink(m *Marshaller, a TsymlinkArgs) {
	m.PutUint32(a.DFid)
	m.PutString(a.Name)
	m.PutString(a.Target)
	m.PutUint32(a.GID)
}

func PackRsymlink(m *Marshaller, qid QID) {
	m.PutQID(qid)
}

func PackTmknod(m *Marshaller, a TmknodArgs) {
	m.PutUint32(a.DFid)
	m.PutString(a.Name)
	m.PutUint32(a.Mode)
	m.PutUint32(a.Major)
	m.PutUint32(a.Minor)
	m.PutUint32(a.GID)
}

func PackRmknod(m *Marshaller, qid QID) {
	m.PutQID(qid)
}

func PackTreadlink(m *Marshaller, a TreadlinkArgs) {
	m.PutUint32(a.Fid)
}

func PackRreadlink(m *Marshaller, target string) {
	m.PutString(target)
}

// GetattrReply carries the full Rgetattr body.
type GetattrReply struct {
	Valid       uint64
	QID         QID
	Mode        uint32
	UID         uint32
	GID         uint32
	NLink       uint64
	RDev        uint64
	Size        uint64
	BlkSize     uint64
	Blocks      uint64
	ATimeSec    uint64
	ATimeNsec   uint64
	MTimeSec    uint64
	MTimeNsec   uint64
	CTimeSec    uint64
	CTimeNsec   uint64
	BTimeSec    uint64
	BTimeNsec   uint64
	Gen         uint64
	DataVersion uint64
}

func PackTgetattr(m *Marshaller, a TgetattrArgs) {
	m.PutUint32(a.Fid)
	m.PutUint64(a.RequestMask)
}

func PackRgetattr(m *Marshaller, r GetattrReply) {
	m.PutUint64(r.Valid)
	m.PutQID(r.QID)
	m.PutUint32(r.Mode)
	m.PutUint32(r.UID)
	m.PutUint32(r.GID)
	m.PutUint64(r.NLink)
	m.PutUint64(r.RDev)
	m.PutUint64(r.Size)
	m.PutUint64(r.BlkSize)
	m.PutUint64(r.Blocks)
	m.PutUint64(r.ATimeSec)
	m.PutUint64(r.ATimeNsec)
	m.PutUint64(r.MTimeSec)
	m.PutUint64(r.MTimeNsec)
	m.PutUint64(r.CTimeSec)
	m.PutUint64(r.CTimeNsec)
	m.PutUint64(r.BTimeSec)
	m.PutUint64(r.BTimeNsec)
	m.PutUint64(r.Gen)
	m.PutUint64(r.DataVersion)
}

func PackTsetattr(m *Marshaller, a TsetattrArgs) {
	m.PutUint32(a.Fid)
	m.PutUint32(a.Valid)
	m.PutUint32(a.Mode)
	m.PutUint32(a.UID)
	m.PutUint32(a.GID)
	m.PutUint64(a.Size)
	m.PutUint64(a.ATimeSec)
	m.PutUint64(a.ATimeNsec)
	m.PutUint64(a.MTimeSec)
	m.PutUint64(a.MTimeNsec)
}

// PackRsetattr writes nothing: Rsetattr has an empty body.
func PackRsetattr(m *Marshaller) {}

func PackTxattrwalk(m *Marshaller, a TxattrwalkArgs) {
	m.PutUint32(a.Fid)
	m.PutUint32(a.NewFid)
	m.PutString(a.Name)
}

func PackRxattrwalk(m *Marshaller, size uint64) {
	m.PutUint64(size)
}

func PackTxattrcreate(m *Marshaller, a TxattrcreateArgs) {
	m.PutUint32(a.Fid)
	m.PutString(a.Name)
	m.PutUint64(a.AttrSize)
	m.PutUint32(a.Flags)
}

func PackRxattrcreate(m *Marshaller) {}

func PackTreaddir(m *Marshaller, a TreaddirArgs) {
	m.PutUint32(a.Fid)
	m.PutUint64(a.Offset)
	m.PutUint32(a.Count)
}

// PackRreaddir writes the count[4] data[count] envelope; data is the
// already-serialized directory-entry slice (see ReaddirEntry below).
func PackRreaddir(m *Marshaller, data []byte) {
	m.PutUint32(uint32(len(data)))
	m.PutBytes(data)
}

// ReaddirEntry is one packed directory entry: qid[13] offset[8] type[1]
// name[s].
type ReaddirEntry struct {
	QID    QID
	Offset uint64
	Type   uint8
	Name   string
}

func PackReaddirEntry(m *Marshaller, e ReaddirEntry) {
	m.PutQID(e.QID)
	m.PutUint64(e.Offset)
	m.PutUint8(e.Type)
	m.PutString(e.Name)
}

func PackTfsync(m *Marshaller, a TfsyncArgs) {
	m.PutUint32(a.Fid)
}

func PackRfsync(m *Marshaller) {}

func PackTlink(m *Marshaller, a TlinkArgs) {
	m.PutUint32(a.DFid)
	m.PutUint32(a.Fid)
	m.PutString(a.Name)
}

func PackRlink(m *Marshaller) {}

func PackTmkdir(m *Marshaller, a TmkdirArgs) {
	m.PutUint32(a.DFid)
	m.PutString(a.Name)
	m.PutUint32(a.Mode)
	m.PutUint32(a.GID)
}

func PackRmkdir(m *Marshaller, qid QID) {
	m.PutQID(qid)
}

func PackTrenameat(m *Marshaller, a TrenameatArgs) {
	m.PutUint32(a.OldDirFid)
	m.PutString(a.OldName)
	m.PutUint32(a.NewDirFid)
	m.PutString(a.NewName)
}

func PackRrenameat(m *Marshaller) {}

func PackTunlinkat(m *Marshaller, a TunlinkatArgs) {
	m.PutUint32(a.DirFid)
	m.PutString(a.Name)
	m.PutUint32(a.Flags)
}

func PackRunlinkat(m *Marshaller) {}

func PackTread(m *Marshaller, a TreadArgs) {
	m.PutUint32(a.Fid)
	m.PutUint64(a.Offset)
	m.PutUint32(a.Count)
}

func PackRread(m *Marshaller, data []byte) {
	m.PutUint32(uint32(len(data)))
	m.PutBytes(data)
}

func PackTwrite(m *Marshaller, a TwriteArgs) {
	m.PutUint32(a.Fid)
	m.PutUint64(a.Offset)
	m.PutUint32(uint32(len(a.Data)))
	m.PutBytes(a.Data)
}

func PackRwrite(m *Marshaller, count uint32) {
	m.PutUint32(count)
}

func PackTclunk(m *Marshaller, a TclunkArgs) {
	m.PutUint32(a.Fid)
}

func PackRclunk(m *Marshaller) {}

func PackTflush(m *Marshaller, a TflushArgs) {
	m.PutUint16(a.OldTag)
}

func PackRflush(m *Marshaller) {}

func PackTlock(m *Marshaller, a TlockArgs) {
	m.PutUint32(a.Fid)
	m.PutUint8(a.Type)
	m.PutUint32(a.Flags)
	m.PutUint64(a.Start)
	m.PutUint64(a.Length)
	m.PutUint32(a.ProcID)
	m.PutString(a.ClientID)
}

func PackRlock(m *Marshaller, status uint8) {
	m.PutUint8(status)
}

func PackTstatfs(m *Marshaller, a TstatfsArgs) {
	m.PutUint32(a.Fid)
}

// StatfsReply carries the Rstatfs body.
type StatfsReply struct {
	Type    uint32
	Bsize   uint32
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Fsid    uint64
	NameLen uint32
}

func PackRstatfs(m *Marshaller, r StatfsReply) {
	m.PutUint32(r.Type)
	m.PutUint32(r.Bsize)
	m.PutUint64(r.Blocks)
	m.PutUint64(r.Bfree)
	m.PutUint64(r.Bavail)
	m.PutUint64(r.Files)
	m.PutUint64(r.Ffree)
	m.PutUint64(r.Fsid)
	m.PutUint32(r.NameLen)
}

// PackRlerror writes the 4-byte errno body of an Rlerror reply.
func PackRlerror(m *Marshaller, errno uint32) {
	m.PutUint32(errno)
}
