// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/cryptobit/sim"
)

func TestBitsetEncoding(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	s := encryptUint(t, ctx, 0xbeef, 16)
	sq, err := s.And(s)
	require.NoError(t, err)

	data, err := MarshalBitset(sq)
	require.NoError(t, err)

	decoded, err := ctx.UnmarshalBitset(data)
	require.NoError(t, err)
	require.Equal(t, 16, decoded.Width())
	require.Equal(t, uint64(0xbeef), decryptUint(t, scheme, decoded))

	want, err := sq.MinNoiseBudget()
	require.NoError(t, err)
	got, err := decoded.MinNoiseBudget()
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = ctx.UnmarshalBitset(data[:len(data)-1])
	require.Error(t, err)
	_, err = ctx.UnmarshalBitset(append(data, 0))
	require.ErrorIs(t, err, ErrMalformedBitset)
	_, err = ctx.UnmarshalBitset([]byte{2, 0, 0, 0, 0})
	require.ErrorIs(t, err, ErrMalformedBitset)
	_, err = ctx.UnmarshalBitset(nil)
	require.ErrorIs(t, err, ErrMalformedBitset)

	_, err = MarshalBitset(Bitset{})
	require.ErrorIs(t, err, ErrUnbound)
}
