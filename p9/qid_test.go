package p9

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQIDDeterministic(t *testing.T) {
	a := NewQID(42, 3, QTFILE)
	b := NewQID(42, 3, QTFILE)
	require.True(t, a.Equal(b))
	require.Equal(t, uint8(QTFILE), a.Type)
	require.Equal(t, uint32(3), a.Version)
}

func TestNewQIDDiffersByNode(t *testing.T) {
	a := NewQID(42, 0, QTFILE)
	b := NewQID(43, 0, QTFILE)
	require.False(t, a.Equal(b))
}

func TestNewQIDDiffersByVersionAndType(t *testing.T) {
	base := NewQID(7, 0, QTFILE)
	require.False(t, base.Equal(NewQID(7, 1, QTFILE)))
	require.False(t, base.Equal(NewQID(7, 0, QTDIR)))
}
