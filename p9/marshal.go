package p9

// Marshaller writes 9P2000.L primitive values into a fixed buffer,
// advancing a cursor. It never writes past the end of the buffer; instead
// it records the overflow and keeps returning zero-length writes so that
// callers can finish building a message and check Overflowed once at the
// end, mirroring the buffer-bounds checks in go9p's pint/ppint family.
type Marshaller struct {
	buf []byte
	off int
	of  bool
}

// NewMarshaller wraps buf for writing starting at offset off.
func NewMarshaller(buf []byte, off int) *Marshaller {
	return &Marshaller{buf: buf, off: off}
}

// Offset returns the current write position.
func (m *Marshaller) Offset() int { return m.off }

// Overflowed reports whether any Put call ran past the end of the buffer.
func (m *Marshaller) Overflowed() bool { return m.of }

func (m *Marshaller) reserve(n int) []byte {
	if m.off+n > len(m.buf) {
		m.of = true
		return nil
	}
	p := m.buf[m.off : m.off+n]
	m.off += n
	return p
}

// PutUint8 writes a single unsigned byte.
func (m *Marshaller) PutUint8(v uint8) {
	p := m.reserve(1)
	if p == nil {
		return
	}
	p[0] = v
}

// PutUint16 writes a u16 little-endian.
func (m *Marshaller) PutUint16(v uint16) {
	p := m.reserve(2)
	if p == nil {
		return
	}
	p[0] = uint8(v)
	p[1] = uint8(v >> 8)
}

// PutUint32 writes a u32 little-endian.
func (m *Marshaller) PutUint32(v uint32) {
	p := m.reserve(4)
	if p == nil {
		return
	}
	p[0] = uint8(v)
	p[1] = uint8(v >> 8)
	p[2] = uint8(v >> 16)
	p[3] = uint8(v >> 24)
}

// PutUint64 writes a u64 little-endian.
func (m *Marshaller) PutUint64(v uint64) {
	p := m.reserve(8)
	if p == nil {
		return
	}
	p[0] = uint8(v)
	p[1] = uint8(v >> 8)
	p[2] = uint8(v >> 16)
	p[3] = uint8(v >> 24)
	p[4] = uint8(v >> 32)
	p[5] = uint8(v >> 40)
	p[6] = uint8(v >> 48)
	p[7] = uint8(v >> 56)
}

// PutString writes a length-prefixed UTF-8 string: u16 byte length + bytes.
func (m *Marshaller) PutString(s string) {
	m.PutUint16(uint16(len(s)))
	p := m.reserve(len(s))
	if p == nil {
		return
	}
	copy(p, s)
}

// PutBytes copies raw bytes with no length prefix (used for Rread/Treaddir
// data payloads, whose count field is written separately).
func (m *Marshaller) PutBytes(b []byte) {
	p := m.reserve(len(b))
	if p == nil {
		return
	}
	copy(p, b)
}

// PutQID writes a 13-byte QID: type[1] version[4] path[8].
func (m *Marshaller) PutQID(q QID) {
	m.PutUint8(q.Type)
	m.PutUint32(q.Version)
	m.PutUint64(q.Path)
}

// Unmarshaller reads 9P2000.L primitive values out of a byte slice,
// advancing a cursor. Reads that would run past the end of input are
// recorded via Short and return a zero value, matching go9p's convention
// of returning a nil rest slice on a short unpack (see p9.go's gstr).
type Unmarshaller struct {
	buf   []byte
	off   int
	short bool
}

// NewUnmarshaller wraps buf for reading.
func NewUnmarshaller(buf []byte) *Unmarshaller {
	return &Unmarshaller{buf: buf}
}

// Offset returns the current read position.
func (u *Unmarshaller) Offset() int { return u.off }

// Remaining returns the number of unread bytes.
func (u *Unmarshaller) Remaining() int { return len(u.buf) - u.off }

// Short reports whether any Get call ran past the end of input.
func (u *Unmarshaller) Short() bool { return u.short }

func (u *Unmarshaller) take(n int) []byte {
	if u.off+n > len(u.buf) {
		u.short = true
		return nil
	}
	p := u.buf[u.off : u.off+n]
	u.off += n
	return p
}

// GetUint8 reads a single unsigned byte.
func (u *Unmarshaller) GetUint8() uint8 {
	p := u.take(1)
	if p == nil {
		return 0
	}
	return p[0]
}

// GetUint16 reads a u16 little-endian.
func (u *Unmarshaller) GetUint16() uint16 {
	p := u.take(2)
	if p == nil {
		return 0
	}
	return uint16(p[0]) | uint16(p[1])<<8
}

// GetUint32 reads a u32 little-endian.
func (u *Unmarshaller) GetUint32() uint32 {
	p := u.take(4)
	if p == nil {
		return 0
	}
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}

// GetUint64 reads a u64 little-endian.
func (u *Unmarshaller) GetUint64() uint64 {
	p := u.take(8)
	if p == nil {
		return 0
	}
	return uint64(p[0]) | uint64(p[1])<<8 | uint64(p[2])<<16 | uint64(p[3])<<24 |
		uint64(p[4])<<32 | uint64(p[5])<<40 | uint64(p[6])<<48 | uint64(p[7])<<56
}

// GetString reads a length-prefixed UTF-8 string.
func (u *Unmarshaller) GetString() string {
	n := u.GetUint16()
	if u.short {
		return ""
	}
	p := u.take(int(n))
	if p == nil {
		return ""
	}
	return string(p)
}

// GetBytes reads n raw bytes with no length prefix.
func (u *Unmarshaller) GetBytes(n int) []byte {
	p := u.take(n)
	if p == nil {
		return nil
	}
	return p
}

// GetQID reads a 13-byte QID.
func (u *Unmarshaller) GetQID() QID {
	var q QID
	q.Type = u.GetUint8()
	q.Version = u.GetUint32()
	q.Path = u.GetUint64()
	return q
}
