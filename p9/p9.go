// Package p9 implements the wire format of the 9P2000.L protocol: frame
// constants, the QID type, the marshaller/unmarshaller primitives, and the
// per-message Pack/Unpack functions used by the dispatcher in package srv.
package p9

// Message type ids. Response ids are request id + 1, per protocol.
const (
	Tlerror       = 6 // never sent, Rlerror below is id 7
	Rlerror       = 7
	Tstatfs       = 8
	Rstatfs       = 9
	Tlopen        = 12
	Rlopen        = 13
	Tlcreate      = 14
	Rlcreate      = 15
	Tsymlink      = 16
	Rsymlink      = 17
	Tmknod        = 18
	Rmknod        = 19
	Trename       = 20
	Rrename       = 21
	Treadlink     = 22
	Rreadlink     = 23
	Tgetattr      = 24
	Rgetattr      = 25
	Tsetattr      = 26
	Rsetattr      = 27
	Txattrwalk    = 30
	Rxattrwalk    = 31
	Txattrcreate  = 32
	Rxattrcreate  = 33
	Treaddir      = 40
	Rreaddir      = 41
	Tfsync        = 50
	Rfsync        = 51
	Tlock         = 52
	Rlock         = 53
	Tgetlock      = 54
	Rgetlock      = 55
	Tlink         = 70
	Rlink         = 71
	Tmkdir        = 72
	Rmkdir        = 73
	Trenameat     = 74
	Rrenameat     = 75
	Tunlinkat     = 76
	Runlinkat     = 77
	Tversion      = 100
	Rversion      = 101
	Tauth         = 102
	Rauth         = 103
	Tattach       = 104
	Rattach       = 105
	Tflush        = 108
	Rflush        = 109
	Twalk         = 110
	Rwalk         = 111
	Tread         = 116
	Rread         = 117
	Twrite        = 118
	Rwrite        = 119
	Tclunk        = 120
	Rclunk        = 121
)

// QID type bits (QID.Type bitmask).
const (
	QTDIR     = 0x80
	QTAPPEND  = 0x40
	QTEXCL    = 0x20
	QTMOUNT   = 0x10
	QTAUTH    = 0x08
	QTTMP     = 0x04
	QTSYMLINK = 0x02
	QTLINK    = 0x01
	QTFILE    = 0x00
)

// Sentinel values for absent fid/tag.
const (
	NOFID uint32 = 0xFFFFFFFF
	NOTAG uint16 = 0xFFFF
)

// Tsetattr valid-field bitmask.
const (
	SetAttrMode     = 0x00000001
	SetAttrUID      = 0x00000002
	SetAttrGID      = 0x00000004
	SetAttrSize     = 0x00000008
	SetAttrATime    = 0x00000010
	SetAttrMTime    = 0x00000020
	SetAttrCTime    = 0x00000040
	SetAttrATimeSet = 0x00000080
	SetAttrMTimeSet = 0x00000100
)

// Tgetattr valid-field bitmask; this server always returns the full set.
const GetAttrAll = 0x00007ff

// Default session constants.
const (
	DefaultMsize  = 8192
	BlockSize     = 8192
	VersionString = "9P2000.L"
)

// Tstatfs reply constants.
const (
	StatfsType    = 0x01021997
	StatfsBsize   = 8192
	StatfsNameLen = 256
)

// IOHeaderSize is the non-data overhead of a Twrite message, including
// the 7-byte frame header: size[4] id[1] tag[2] fid[4] offset[8]
// count[4] is 23 bytes, rounded up to 24 as in 9P's usual IOHDRSZ.
// iounit is msize minus this.
const IOHeaderSize = 24

// FrameHeaderSize is size[4] id[1] tag[2].
const FrameHeaderSize = 7
