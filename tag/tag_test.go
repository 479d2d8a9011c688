package tag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddThenShouldAbortFalse(t *testing.T) {
	r := NewRegistry()
	r.Add(5)
	require.False(t, r.ShouldAbort(5))
}

func TestUnregisteredTagShouldAbort(t *testing.T) {
	r := NewRegistry()
	require.True(t, r.ShouldAbort(5))
}

func TestFlushCancelsTag(t *testing.T) {
	r := NewRegistry()
	r.Add(5)
	require.True(t, r.Flush(5))
	require.True(t, r.ShouldAbort(5))
}

func TestFlushUnknownTagReturnsFalse(t *testing.T) {
	r := NewRegistry()
	require.False(t, r.Flush(5))
}

func TestReAddIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Add(5)
	r.Add(5)
	require.False(t, r.ShouldAbort(5))
}
