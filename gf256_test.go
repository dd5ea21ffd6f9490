// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"math/bits"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/cryptobit/sim"
)

func TestGFMulReference(t *testing.T) {
	// FIPS-197 section 4.2.
	require.Equal(t, byte(0xc1), GFMulReference(0x57, 0x83))
	require.Equal(t, byte(0xfe), GFMulReference(0x57, 0x13))
	require.Equal(t, byte(0xae), GFMulReference(0x57, 0x02))

	for a := 0; a < 256; a++ {
		require.Equal(t, byte(0), GFMulReference(byte(a), 0))
		require.Equal(t, byte(a), GFMulReference(byte(a), 1))
	}
}

// evalPlan runs the multiplier gate list on plaintext bytes.
func evalPlan(a, b byte) byte {
	leaves := make([]uint, len(gf256.leaves))
	for i, l := range gf256.leaves {
		pa := uint(bits.OnesCount8(a&l.a) & 1)
		pb := uint(bits.OnesCount8(b&l.b) & 1)
		leaves[i] = pa & pb
	}

	var out byte
	for k, set := range gf256.out {
		var v uint
		for s := set; s != 0; s &= s - 1 {
			v ^= leaves[bits.TrailingZeros32(s)]
		}
		out |= byte(v) << k
	}
	return out
}

func TestGFMulPlanExhaustive(t *testing.T) {
	require.Equal(t, 27, GFMulANDGates())

	for a := 0; a < 256; a++ {
		for b := 0; b < 256; b++ {
			want := GFMulReference(byte(a), byte(b))
			if got := evalPlan(byte(a), byte(b)); got != want {
				t.Fatalf("plan(%#02x, %#02x) = %#02x, want %#02x", a, b, got, want)
			}
		}
	}
}

func TestGFMulEncrypted(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())
	rng := rand.New(rand.NewSource(1))

	pairs := [][2]byte{{0, 0}, {1, 0xff}, {0x57, 0x83}, {0xff, 0xff}}
	for i := 0; i < 32; i++ {
		pairs = append(pairs, [2]byte{byte(rng.Intn(256)), byte(rng.Intn(256))})
	}

	for _, p := range pairs {
		a := encryptUint(t, ctx, uint64(p[0]), 8)
		b := encryptUint(t, ctx, uint64(p[1]), 8)
		want := uint64(GFMulReference(p[0], p[1]))

		prod, err := GFMul(a, b)
		require.NoError(t, err)
		require.Equal(t, want, decryptUint(t, scheme, prod), "%#02x * %#02x", p[0], p[1])

		// All products sit in one layer.
		nb, err := prod.MinNoiseBudget()
		require.NoError(t, err)
		require.Equal(t, sim.Default.FreshBudget-sim.Default.MulCost, nb)

		prod, err = GFMulClear(a, ClearUint64(uint64(p[1]), 8))
		require.NoError(t, err)
		require.Equal(t, want, decryptUint(t, scheme, prod), "%#02x * clear %#02x", p[0], p[1])
	}
}

func TestGFMulConst(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	for a := 0; a < 256; a++ {
		ea := encryptUint(t, ctx, uint64(a), 8)
		for _, k := range []byte{0x00, 0x01, 0x02, 0x03, 0x09, 0x0b, 0x0d, 0x0e, 0xff} {
			prod, err := GFMulConst(ea, k)
			require.NoError(t, err)
			require.Equal(t, uint64(GFMulReference(byte(a), k)), decryptUint(t, scheme, prod), "%#02x * %#02x", a, k)

			nb, err := prod.MinNoiseBudget()
			require.NoError(t, err)
			require.Equal(t, sim.Default.FreshBudget, nb)
		}
	}
}

func TestGFMulWidth(t *testing.T) {
	ctx, _ := newTestContext(t, sim.Default, DefaultConfig())

	a := encryptUint(t, ctx, 1, 8)
	_, err := GFMul(a, encryptUint(t, ctx, 1, 4))
	require.ErrorIs(t, err, ErrInvalidWidth)
	_, err = GFMulClear(a, ClearUint64(1, 16))
	require.ErrorIs(t, err, ErrInvalidWidth)
	_, err = GFMulConst(Bitset{}, 2)
	require.ErrorIs(t, err, ErrUnbound)
}
