package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutNewFailsWhenPresent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.PutNew("run/frame/1", []byte("a")))
	require.ErrorIs(t, s.PutNew("run/frame/1", []byte("b")), ErrAlreadyExists)
}

func TestPutIsIdempotentOverwrite(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Put("run/frame/1", []byte("a")))
	require.NoError(t, s.Put("run/frame/1", []byte("b")))
	got, ok := s.Get("run/frame/1")
	require.True(t, ok)
	require.Equal(t, "b", string(got))
}

func TestExistsAndCount(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	require.False(t, s.Exists("x"))
	require.NoError(t, s.Put("x", []byte("1")))
	require.True(t, s.Exists("x"))
	require.NoError(t, s.Put("y", []byte("2")))
	n, err := s.Count()
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestGetMissingReturnsFalse(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	_, ok := s.Get("missing")
	require.False(t, ok)
}
