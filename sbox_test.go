// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/cryptobit/sim"
)

func TestTables(t *testing.T) {
	for i := 0; i < 256; i++ {
		require.Equal(t, byte(i), InvSBoxTable[SBoxTable[i]])
	}
	require.Equal(t, byte(0x63), SBoxTable[0x00])
	require.Equal(t, byte(0xed), SBoxTable[0x53])
}

func TestCircuitSBoxExhaustive(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())
	sbox := AESCircuitSBox()
	require.Equal(t, SBoxCircuit, sbox.Kind())
	require.True(t, sbox.Invertible())

	for x := 0; x < 256; x++ {
		in := encryptUint(t, ctx, uint64(x), 8)

		out, err := sbox.Apply(in)
		require.NoError(t, err)
		require.Equal(t, uint64(SBoxTable[x]), decryptUint(t, scheme, out), "S(%#02x)", x)

		// Six AND layers.
		nb, err := out.MinNoiseBudget()
		require.NoError(t, err)
		require.Equal(t, sim.Default.FreshBudget-6*sim.Default.MulCost, nb)

		inv, err := sbox.Reverse(in)
		require.NoError(t, err)
		require.Equal(t, uint64(InvSBoxTable[x]), decryptUint(t, scheme, inv), "InvS(%#02x)", x)
	}
}

func TestLUTSBoxExhaustive(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping exhaustive lookup table evaluation in short mode")
	}

	// Sequential evaluation keeps the 2^16 equality tests cheap.
	ctx, scheme := newTestContext(t, sim.Default, Config{Workers: 1})
	sbox := AESLUTSBox()
	require.Equal(t, SBoxLUT, sbox.Kind())
	require.True(t, sbox.Exhaustive())
	require.True(t, sbox.Invertible())

	for x := 0; x < 256; x++ {
		in := encryptUint(t, ctx, uint64(x), 8)

		out, err := sbox.Apply(in)
		require.NoError(t, err)
		require.Equal(t, uint64(SBoxTable[x]), decryptUint(t, scheme, out), "S(%#02x)", x)

		inv, err := sbox.Reverse(in)
		require.NoError(t, err)
		require.Equal(t, uint64(InvSBoxTable[x]), decryptUint(t, scheme, inv), "InvS(%#02x)", x)
	}
}

func TestLUTSBoxDepth(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())
	sbox := AESLUTSBox()

	out, err := sbox.Apply(encryptUint(t, ctx, 0x53, 8))
	require.NoError(t, err)
	require.Equal(t, uint64(0xed), decryptUint(t, scheme, out))

	// Seven sequential products for the equality test, one plaintext
	// product for the table value.
	nb, err := out.MinNoiseBudget()
	require.NoError(t, err)
	require.Equal(t, sim.Default.FreshBudget-7*sim.Default.MulCost-sim.Default.PlainMulCost, nb)
}

func TestLUTSBoxValidation(t *testing.T) {
	_, err := NewLUTSBox(2, []LUTEntry{{In: 1, Out: 2}, {In: 1, Out: 3}})
	require.ErrorIs(t, err, ErrDuplicateKey)

	_, err = NewLUTSBox(2, []LUTEntry{{In: 4, Out: 0}})
	require.ErrorIs(t, err, ErrEntryRange)

	_, err = NewLUTSBox(0, nil)
	require.ErrorIs(t, err, ErrInvalidWidth)

	// Exhaustive but not a bijection.
	sbox, err := NewLUTSBox(1, []LUTEntry{{In: 0, Out: 1}, {In: 1, Out: 1}})
	require.NoError(t, err)
	require.True(t, sbox.Exhaustive())
	require.False(t, sbox.Invertible())
}

func TestLUTSBoxPartial(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	sbox, err := NewLUTSBox(3, []LUTEntry{{In: 1, Out: 6}, {In: 5, Out: 3}})
	require.NoError(t, err)
	require.False(t, sbox.Exhaustive())
	require.False(t, sbox.Invertible())

	want := map[uint64]uint64{1: 6, 5: 3}
	for x := uint64(0); x < 8; x++ {
		out, err := sbox.Apply(encryptUint(t, ctx, x, 3))
		require.NoError(t, err)
		require.Equal(t, want[x], decryptUint(t, scheme, out), "lookup %d", x)
	}

	_, err = sbox.Reverse(encryptUint(t, ctx, 6, 3))
	require.ErrorIs(t, err, ErrNotInvertible)
	_, err = sbox.Apply(encryptUint(t, ctx, 6, 4))
	require.ErrorIs(t, err, ErrWidthMismatch)
}

func TestCircuitSBoxWithoutInverse(t *testing.T) {
	ctx, _ := newTestContext(t, sim.Default, DefaultConfig())

	sbox, err := NewCircuitSBox(8, aesSBoxCircuit, nil)
	require.NoError(t, err)
	require.False(t, sbox.Invertible())

	_, err = sbox.Reverse(encryptUint(t, ctx, 0, 8))
	require.ErrorIs(t, err, ErrNotInvertible)

	_, err = NewCircuitSBox(8, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
