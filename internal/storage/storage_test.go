package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeHandle(t *testing.T) {
	h := ComputeHandle([]byte("state"))
	require.Len(t, string(h), handleLen)
	require.NoError(t, h.Validate())
	require.Equal(t, h, ComputeHandle([]byte("state")))
	require.NotEqual(t, h, ComputeHandle([]byte("state2")))

	require.ErrorIs(t, Handle("../etc/passwd").Validate(), ErrInvalidHandle)
	require.ErrorIs(t, Handle(string(h[:63])+"z").Validate(), ErrInvalidHandle)
}

func testStorage(t *testing.T, s Storage) {
	ctx := context.Background()

	h, err := s.Store(ctx, []byte("round key"))
	require.NoError(t, err)

	again, err := s.Store(ctx, []byte("round key"))
	require.NoError(t, err)
	require.Equal(t, h, again)

	data, err := s.Load(ctx, h)
	require.NoError(t, err)
	require.Equal(t, []byte("round key"), data)

	ok, err := s.Exists(ctx, h)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, s.Delete(ctx, h))
	_, err = s.Load(ctx, h)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, h), ErrNotFound)

	ok, err = s.Exists(ctx, h)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.Load(ctx, "nope")
	require.ErrorIs(t, err, ErrInvalidHandle)

	require.NoError(t, s.Close())
}

func TestMemoryStorage(t *testing.T) {
	testStorage(t, NewMemoryStorage(1))
}

func TestMemoryStorageCapacity(t *testing.T) {
	s := NewMemoryStorage(1)
	_, err := s.Store(context.Background(), make([]byte, 1024*1024+1))
	require.ErrorIs(t, err, ErrStorageFull)
	require.Zero(t, s.Size())
}

func TestFileStorage(t *testing.T) {
	s, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	testStorage(t, s)
}
