package p9

// Per-message argument structs and Unpack functions for 9P2000.L request
// bodies. Each Unpack function assumes the 7-byte frame header has
// already been consumed by the caller (see srv.Srv.HandleFrame) and reads
// starting at the message body. Field layouts match the wire format
// described by the Plan 9 / diod 9P2000.L
// references, in the spirit of go9p's Unpack switch in p9.go but split
// per message for testability (round-trip with the matching Pack
// function in pack.go).

type TversionArgs struct {
	Msize   uint32
	Version string
}

func UnpackTversion(u *Unmarshaller) TversionArgs {
	return TversionArgs{Msize: u.GetUint32(), Version: u.GetString()}
}

type TattachArgs struct {
	Fid   uint32
	AFid  uint32
	Uname string
	Aname string
	UID   uint32
}

func UnpackTattach(u *Unmarshaller) TattachArgs {
	return TattachArgs{
		Fid:   u.GetUint32(),
		AFid:  u.GetUint32(),
		Uname: u.GetString(),
		Aname: u.GetString(),
		UID:   u.GetUint32(),
	}
}

type TwalkArgs struct {
	Fid    uint32
	NewFid uint32
	Wname  []string
}

func UnpackTwalk(u *Unmarshaller) TwalkArgs {
	a := TwalkArgs{Fid: u.GetUint32(), NewFid: u.GetUint32()}
	n := u.GetUint16()
	a.Wname = make([]string, n)
	for i := range a.Wname {
		a.Wname[i] = u.GetString()
	}
	return a
}

type TlopenArgs struct {
	Fid   uint32
	Flags uint32
}

func UnpackTlopen(u *Unmarshaller) TlopenArgs {
	return TlopenArgs{Fid: u.GetUint32(), Flags: u.GetUint32()}
}

type TlcreateArgs struct {
	Fid   uint32
	Name  string
	Flags uint32
	Mode  uint32
	GID   uint32
}

func UnpackTlcreate(u *Unmarshaller) TlcreateArgs {
	return TlcreateArgs{
		Fid:   u.GetUint32(),
		Name:  u.GetString(),
		Flags: u.GetUint32(),
		Mode:  u.GetUint32(),
		GID:   u.GetUint32(),
	}
}

type TsymlinkArgs struct {
	DFid   uint32
	Name   string
	Target string
	GID    uint32
}

func UnpackTsymlink(u *Unmarshaller) TsymlinkArgs {
	return TsymlinkArgs{
		DFid:   u.GetUint32(),
		Name:   u.GetString(),
		Target: u.GetString(),
		GID:    u.GetUint32(),
	}
}

type TmknodArgs struct {
	DFid  uint32
	Name  string
	Mode  uint32
	Major uint32
	Minor uint32
	GID   uint32
}

func UnpackTmknod(u *Unmarshaller) TmknodArgs {
	return TmknodArgs{
		DFid:  u.GetUint32(),
		Name:  u.GetString(),
		Mode:  u.GetUint32(),
		Major: u.GetUint32(),
		Minor: u.GetUint32(),
		GID:   u.GetUint32(),
	}
}

type TreadlinkArgs struct {
	Fid uint32
}

func UnpackTreadlink(u *Unmarshaller) TreadlinkArgs {
	return TreadlinkArgs{Fid: u.GetUint32()}
}

type TgetattrArgs struct {
	Fid         uint32
	RequestMask uint64
}

func UnpackTgetattr(u *Unmarshaller) TgetattrArgs {
	return TgetattrArgs{Fid: u.GetUint32(), RequestMask: u.GetUint64()}
}

type TsetattrArgs struct {
	Fid       uint32
	Valid     uint32
	Mode      uint32
	UID       uint32
	GID       uint32
	Size      uint64
	ATimeSec  uint64
	ATimeNsec uint64
	MTimeSec  uint64
	MTimeNsec uint64
}

func UnpackTsetattr(u *Unmarshaller) TsetattrArgs {
	return TsetattrArgs{
		Fid:       u.GetUint32(),
		Valid:     u.GetUint32(),
		Mode:      u.GetUint32(),
		UID:       u.GetUint32(),
		GID:       u.GetUint32(),
		Size:      u.GetUint64(),
		ATimeSec:  u.GetUint64(),
		ATimeNsec: u.GetUint64(),
		MTimeSec:  u.GetUint64(),
		MTimeNsec: u.GetUint64(),
	}
}

type TxattrwalkArgs struct {
	Fid    uint32
	NewFid uint32
	Name   string
}

func UnpackTxattrwalk(u *Unmarshaller) TxattrwalkArgs {
	return TxattrwalkArgs{Fid: u.GetUint32(), NewFid: u.GetUint32(), Name: u.GetString()}
}

type TxattrcreateArgs struct {
	Fid       uint32
	Name      string
	AttrSize  uint64
	Flags     uint32
}

func UnpackTxattrcreate(u *Unmarshaller) TxattrcreateArgs {
	return TxattrcreateArgs{
		Fid:      u.GetUint32(),
		Name:     u.GetString(),
		AttrSize: u.GetUint64(),
		Flags:    u.GetUint32(),
	}
}

type TreaddirArgs struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

func UnpackTreaddir(u *Unmarshaller) TreaddirArgs {
	return TreaddirArgs{Fid: u.GetUint32(), Offset: u.GetUint64(), Count: u.GetUint32()}
}

type TfsyncArgs struct {
	Fid uint32
}

func UnpackTfsync(u *Unmarshaller) TfsyncArgs {
	return TfsyncArgs{Fid: u.GetUint32()}
}

type TlinkArgs struct {
	DFid uint32
	Fid  uint32
	Name string
}

func UnpackTlink(u *Unmarshaller) TlinkArgs {
	return TlinkArgs{DFid: u.GetUint32(), Fid: u.GetUint32(), Name: u.GetString()}
}

type TmkdirArgs struct {
	DFid uint32
	Name string
	Mode uint32
	GID  uint32
}

func UnpackTmkdir(u *Unmarshaller) TmkdirArgs {
	return TmkdirArgs{DFid: u.GetUint32(), Name: u.GetString(), Mode: u.GetUint32(), GID: u.GetUint32()}
}

type TrenameatArgs struct {
	OldDirFid uint32
	OldName   string
	NewDirFid uint32
	NewName   string
}

func UnpackTrenameat(u *Unmarshaller) TrenameatArgs {
	return TrenameatArgs{
		OldDirFid: u.GetUint32(),
		OldName:   u.GetString(),
		NewDirFid: u.GetUint32(),
		NewName:   u.GetString(),
	}
}

type TunlinkatArgs struct {
	DirFid uint32
	Name   string
	Flags  uint32
}

func UnpackTunlinkat(u *Unmarshaller) TunlinkatArgs {
	return TunlinkatArgs{DirFid: u.GetUint32(), Name: u.GetString(), Flags: u.GetUint32()}
}

type TreadArgs struct {
	Fid    uint32
	Offset uint64
	Count  uint32
}

func UnpackTread(u *Unmarshaller) TreadArgs {
	return TreadArgs{Fid: u.GetUint32(), Offset: u.GetUint64(), Count: u.GetUint32()}
}

type TwriteArgs struct {
	Fid    uint32
	Offset uint64
	Count  uint32
	Data   []byte
}

func UnpackTwrite(u *Unmarshaller) TwriteArgs {
	a := TwriteArgs{Fid: u.GetUint32(), Offset: u.GetUint64()}
	a.Count = u.GetUint32()
	a.Data = u.GetBytes(int(a.Count))
	return a
}

type TclunkArgs struct {
	Fid uint32
}

func UnpackTclunk(u *Unmarshaller) TclunkArgs {
	return TclunkArgs{Fid: u.GetUint32()}
}

type TflushArgs struct {
	OldTag uint16
}

func UnpackTflush(u *Unmarshaller) TflushArgs {
	return TflushArgs{OldTag: u.GetUint16()}
}

type TlockArgs struct {
	Fid      uint32
	Type     uint8
	Flags    uint32
	Start    uint64
	Length   uint64
	ProcID   uint32
	ClientID string
}

func UnpackTlock(u *Unmarshaller) TlockArgs {
	return TlockArgs{
		Fid:      u.GetUint32(),
		Type:     u.GetUint8(),
		Flags:    u.GetUint32(),
		Start:    u.GetUint64(),
		Length:   u.GetUint64(),
		ProcID:   u.GetUint32(),
		ClientID: u.GetString(),
	}
}

type TstatfsArgs struct {
	Fid uint32
}

func UnpackTstatfs(u *Unmarshaller) TstatfsArgs {
	return TstatfsArgs{Fid: u.GetUint32()}
}
