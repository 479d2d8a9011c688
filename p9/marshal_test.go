package p9

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalPrimitives(t *testing.T) {
	buf := make([]byte, 64)
	m := NewMarshaller(buf, 0)
	m.PutUint8(0xAB)
	m.PutUint16(0x1234)
	m.PutUint32(0xDEADBEEF)
	m.PutUint64(0x0102030405060708)
	m.PutString("hello")
	m.PutQID(QID{Type: QTDIR, Version: 7, Path: 99})
	require.False(t, m.Overflowed())

	u := NewUnmarshaller(buf[:m.Offset()])
	require.Equal(t, uint8(0xAB), u.GetUint8())
	require.Equal(t, uint16(0x1234), u.GetUint16())
	require.Equal(t, uint32(0xDEADBEEF), u.GetUint32())
	require.Equal(t, uint64(0x0102030405060708), u.GetUint64())
	require.Equal(t, "hello", u.GetString())
	require.Equal(t, QID{Type: QTDIR, Version: 7, Path: 99}, u.GetQID())
	require.False(t, u.Short())
}

func TestMarshalOverflowIsSticky(t *testing.T) {
	buf := make([]byte, 2)
	m := NewMarshaller(buf, 0)
	m.PutUint32(1)
	require.True(t, m.Overflowed())
	m.PutUint8(1)
	require.True(t, m.Overflowed())
}

func TestUnmarshalShortIsSticky(t *testing.T) {
	u := NewUnmarshaller([]byte{1, 2})
	_ = u.GetUint32()
	require.True(t, u.Short())
	require.Equal(t, uint32(0), u.GetUint32())
}
