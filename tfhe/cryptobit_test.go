// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/cryptobit"
	"github.com/luxfi/cryptobit/tfhe"
)

func TestSBoxOverLattice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping bootstrapped S-box in short mode")
	}

	scheme, _, err := tfhe.Generate(tfhe.PN10QP27)
	require.NoError(t, err)
	ctx, err := cryptobit.NewContext(scheme, cryptobit.DefaultConfig())
	require.NoError(t, err)

	sbox := cryptobit.AESCircuitSBox()
	for _, x := range []byte{0x00, 0x53, 0xff} {
		in, err := ctx.EncryptUint64(uint64(x), 8)
		require.NoError(t, err)

		out, err := sbox.Apply(in)
		require.NoError(t, err)
		got, err := out.DecryptUint64(scheme)
		require.NoError(t, err)
		require.Equal(t, uint64(cryptobit.SBoxTable[x]), got, "S(%#02x)", x)
	}
}

func TestGFMulOverLattice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping bootstrapped GF(2^8) multiply in short mode")
	}

	scheme, _, err := tfhe.Generate(tfhe.PN10QP27)
	require.NoError(t, err)
	ctx, err := cryptobit.NewContext(scheme, cryptobit.DefaultConfig())
	require.NoError(t, err)

	a, err := ctx.EncryptUint64(0x57, 8)
	require.NoError(t, err)
	b, err := ctx.EncryptUint64(0x83, 8)
	require.NoError(t, err)

	p, err := cryptobit.GFMul(a, b)
	require.NoError(t, err)
	got, err := p.DecryptUint64(scheme)
	require.NoError(t, err)
	require.Equal(t, uint64(0xc1), got)
}
