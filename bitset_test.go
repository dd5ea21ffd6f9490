// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"math"
	"math/bits"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/luxfi/cryptobit/sim"
)

func encryptUint(t *testing.T, ctx *Context, v uint64, n int) Bitset {
	t.Helper()
	s, err := ctx.EncryptUint64(v, n)
	require.NoError(t, err)
	return s
}

func decryptUint(t *testing.T, scheme *sim.Scheme, s Bitset) uint64 {
	t.Helper()
	v, err := s.DecryptUint64(scheme)
	require.NoError(t, err)
	return v
}

func TestBitsetEncryptDecrypt(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	for _, tc := range []struct {
		v uint64
		n int
	}{
		{0, 1},
		{1, 1},
		{0xa5, 8},
		{0xdeadbeef, 32},
		{0xffffffffffffffff, 64},
		{0x1234, 40},
	} {
		s := encryptUint(t, ctx, tc.v, tc.n)
		require.Equal(t, tc.n, s.Width())
		require.Equal(t, tc.v, decryptUint(t, scheme, s))
	}

	_, err := ctx.EncryptUint64(0x100, 8)
	require.ErrorIs(t, err, ErrNarrowing)
	_, err = ctx.EncryptUint64(0, 0)
	require.ErrorIs(t, err, ErrInvalidWidth)

	data := []byte{0x00, 0x11, 0xfe, 0x80}
	s, err := ctx.EncryptBytes(data)
	require.NoError(t, err)
	require.Equal(t, 32, s.Width())
	got, err := s.DecryptBytes(scheme)
	require.NoError(t, err)
	if diff := cmp.Diff(data, got); diff != "" {
		t.Fatalf("DecryptBytes mismatch (-want +got):\n%s", diff)
	}
}

func TestBitsetElementwise(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	const a, b = 0b1100_1010, 0b1010_0110
	ea := encryptUint(t, ctx, a, 8)
	eb := encryptUint(t, ctx, b, 8)

	testCases := []struct {
		name string
		fn   func(x, y Bitset) (Bitset, error)
		want uint64
	}{
		{"and", Bitset.And, a & b},
		{"or", Bitset.Or, a | b},
		{"xor", Bitset.Xor, a ^ b},
		{"xnor", Bitset.Xnor, ^uint64(a^b) & 0xff},
	}
	for _, tc := range testCases {
		out, err := tc.fn(ea, eb)
		require.NoError(t, err)
		require.Equal(t, tc.want, decryptUint(t, scheme, out), tc.name)
	}

	not, err := ea.Not()
	require.NoError(t, err)
	require.Equal(t, uint64(^uint8(a)), decryptUint(t, scheme, not))

	clear := ClearUint64(b, 8)
	for _, tc := range []struct {
		name string
		fn   func(Bitset, ClearBitset) (Bitset, error)
		want uint64
	}{
		{"and", Bitset.AndClear, a & b},
		{"or", Bitset.OrClear, a | b},
		{"xor", Bitset.XorClear, a ^ b},
		{"xnor", Bitset.XnorClear, ^uint64(a^b) & 0xff},
	} {
		out, err := tc.fn(ea, clear)
		require.NoError(t, err)
		require.Equal(t, tc.want, decryptUint(t, scheme, out), tc.name+" clear")
	}
}

func TestBitsetMismatch(t *testing.T) {
	ctx, _ := newTestContext(t, sim.Default, DefaultConfig())
	other, _ := newTestContext(t, sim.Default, DefaultConfig())

	a := encryptUint(t, ctx, 1, 8)
	_, err := a.Xor(encryptUint(t, ctx, 1, 16))
	require.ErrorIs(t, err, ErrWidthMismatch)
	_, err = a.And(encryptUint(t, other, 1, 8))
	require.ErrorIs(t, err, ErrContextMismatch)
	_, err = a.XorClear(ClearUint64(1, 4))
	require.ErrorIs(t, err, ErrWidthMismatch)
	_, err = Bitset{}.Not()
	require.ErrorIs(t, err, ErrUnbound)
}

func TestSelect(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	a := encryptUint(t, ctx, 0x3c, 8)
	b := encryptUint(t, ctx, 0xc1, 8)

	for _, cond := range []bool{false, true} {
		mask, err := ctx.Broadcast(encryptBit(t, ctx, cond), 8)
		require.NoError(t, err)

		out, err := Select(mask, a, b)
		require.NoError(t, err)

		want := uint64(0xc1)
		if cond {
			want = 0x3c
		}
		require.Equal(t, want, decryptUint(t, scheme, out))
	}

	// A mixed mask selects bitwise.
	mask := encryptUint(t, ctx, 0x0f, 8)
	out, err := Select(mask, a, b)
	require.NoError(t, err)
	require.Equal(t, uint64(0xcc), decryptUint(t, scheme, out))
}

func TestShifts(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	const v = 0b1011_0110
	s := encryptUint(t, ctx, v, 8)

	for k := 0; k <= 10; k++ {
		left, err := s.ShiftLeft(k)
		require.NoError(t, err)
		right, err := s.ShiftRight(k)
		require.NoError(t, err)

		wantLeft, wantRight := uint64(0), uint64(0)
		if k < 8 {
			wantLeft = uint64(v) << k & 0xff
			wantRight = uint64(v) >> k
		}
		require.Equal(t, wantLeft, decryptUint(t, scheme, left), "shift left %d", k)
		require.Equal(t, wantRight, decryptUint(t, scheme, right), "shift right %d", k)
	}

	// The receiver is left untouched by the copying shifts.
	require.Equal(t, uint64(v), decryptUint(t, scheme, s))

	inPlace := encryptUint(t, ctx, v, 8)
	require.NoError(t, inPlace.ShiftLeftInPlace(3))
	require.Equal(t, uint64(v)<<3&0xff, decryptUint(t, scheme, inPlace))
	require.NoError(t, inPlace.ShiftRightInPlace(5))
	require.Equal(t, uint64(v)<<3&0xff>>5, decryptUint(t, scheme, inPlace))

	for _, k := range []int{math.MinInt, -8, 8, math.MaxInt} {
		left, err := s.ShiftLeft(k)
		require.NoError(t, err)
		require.Zero(t, decryptUint(t, scheme, left), "shift left %d", k)

		right, err := s.ShiftRight(k)
		require.NoError(t, err)
		require.Zero(t, decryptUint(t, scheme, right), "shift right %d", k)

		extreme := encryptUint(t, ctx, v, 8)
		require.NoError(t, extreme.ShiftLeftInPlace(k))
		require.Zero(t, decryptUint(t, scheme, extreme))
		extreme = encryptUint(t, ctx, v, 8)
		require.NoError(t, extreme.ShiftRightInPlace(k))
		require.Zero(t, decryptUint(t, scheme, extreme))
	}
}

func TestInPlaceLeavesCopies(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	a := encryptUint(t, ctx, 0b1011, 8)
	b := a
	require.NoError(t, b.ShiftLeftInPlace(1))
	require.Equal(t, uint64(0b10110), decryptUint(t, scheme, b))
	require.Equal(t, uint64(0b1011), decryptUint(t, scheme, a))

	c := a
	require.NoError(t, c.ShiftRightInPlace(2))
	require.Equal(t, uint64(0b10), decryptUint(t, scheme, c))
	require.Equal(t, uint64(0b1011), decryptUint(t, scheme, a))

	sq, err := a.And(a)
	require.NoError(t, err)
	d := sq
	require.NoError(t, d.Refresh(scheme))

	nb, err := d.MinNoiseBudget()
	require.NoError(t, err)
	require.Equal(t, sim.Default.FreshBudget, nb)
	nb, err = sq.MinNoiseBudget()
	require.NoError(t, err)
	require.Equal(t, sim.Default.FreshBudget-sim.Default.MulCost, nb)
}

func TestRotations(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	const v = 0xb6
	s := encryptUint(t, ctx, v, 8)

	for k := -9; k <= 17; k++ {
		left, err := s.RotateLeft(k)
		require.NoError(t, err)
		require.Equal(t, uint64(bits.RotateLeft8(v, k)), decryptUint(t, scheme, left), "rotate left %d", k)

		right, err := s.RotateRight(k)
		require.NoError(t, err)
		require.Equal(t, uint64(bits.RotateLeft8(v, -k)), decryptUint(t, scheme, right), "rotate right %d", k)

		back, err := left.RotateRight(k)
		require.NoError(t, err)
		require.Equal(t, uint64(v), decryptUint(t, scheme, back))
	}
}

func TestSplitJoin(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	const v = 0x2_dead_beef
	s := encryptUint(t, ctx, v, 34)

	parts, err := s.Split(8)
	require.NoError(t, err)
	require.Len(t, parts, 5)
	for i, p := range parts[:4] {
		require.Equal(t, 8, p.Width())
		require.Equal(t, uint64(v)>>(8*i)&0xff, decryptUint(t, scheme, p))
	}
	require.Equal(t, 2, parts[4].Width())
	require.Equal(t, uint64(2), decryptUint(t, scheme, parts[4]))

	joined, err := ctx.Join(parts, 34)
	require.NoError(t, err)
	require.Equal(t, uint64(v), decryptUint(t, scheme, joined))

	padded, err := ctx.Join(parts[:2], 24)
	require.NoError(t, err)
	require.Equal(t, 24, padded.Width())
	require.Equal(t, uint64(0xbeef), decryptUint(t, scheme, padded))

	_, err = ctx.Join(parts, 32)
	require.ErrorIs(t, err, ErrNarrowing)
	_, err = s.Split(0)
	require.ErrorIs(t, err, ErrInvalidWidth)
}

func TestWiden(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	s := encryptUint(t, ctx, 0x9c, 8)
	wide, err := s.Widen(16)
	require.NoError(t, err)
	require.Equal(t, 16, wide.Width())
	require.Equal(t, uint64(0x9c), decryptUint(t, scheme, wide))

	_, err = wide.Widen(8)
	require.ErrorIs(t, err, ErrNarrowing)

	slice, err := wide.Slice(4, 8)
	require.NoError(t, err)
	require.Equal(t, uint64(0x9), decryptUint(t, scheme, slice))
}

func TestAndReduceAndMatches(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	all := encryptUint(t, ctx, 0xf, 4)
	red, err := all.AndReduce()
	require.NoError(t, err)
	require.Equal(t, uint64(0xf), decryptUint(t, scheme, red))

	some := encryptUint(t, ctx, 0xb, 4)
	red, err = some.AndReduce()
	require.NoError(t, err)
	require.Equal(t, uint64(0), decryptUint(t, scheme, red))

	// N-1 sequential products.
	nb, err := red.MinNoiseBudget()
	require.NoError(t, err)
	require.Equal(t, sim.Default.FreshBudget-3*sim.Default.MulCost, nb)

	match, err := some.Matches(ClearUint64(0xb, 4))
	require.NoError(t, err)
	require.True(t, decryptBit(t, scheme, match))
	match, err = some.Matches(ClearUint64(0xa, 4))
	require.NoError(t, err)
	require.False(t, decryptBit(t, scheme, match))
}

func TestBitsetRefresh(t *testing.T) {
	ctx, scheme := newTestContext(t, sim.Default, DefaultConfig())

	s := encryptUint(t, ctx, 0x5a, 8)
	sq, err := s.And(s)
	require.NoError(t, err)

	nb, err := sq.MinNoiseBudget()
	require.NoError(t, err)
	require.Equal(t, sim.Default.FreshBudget-sim.Default.MulCost, nb)

	require.NoError(t, sq.Refresh(scheme))
	nb, err = sq.MinNoiseBudget()
	require.NoError(t, err)
	require.Equal(t, sim.Default.FreshBudget, nb)
	require.Equal(t, uint64(0x5a), decryptUint(t, scheme, sq))

	require.ErrorIs(t, sq.Refresh(nil), ErrRefreshUnavailable)
}

func TestClearBitset(t *testing.T) {
	c := ClearBytes([]byte{0x01, 0x80})
	require.Equal(t, 16, c.Width())
	require.Equal(t, uint64(0x8001), c.Uint64())
	require.Equal(t, []byte{0x01, 0x80}, c.Bytes())
	require.False(t, c.IsZero())

	x, err := c.Xor(ClearUint64(0x8001, 16))
	require.NoError(t, err)
	require.True(t, x.IsZero())

	_, err = c.And(ClearUint64(1, 8))
	require.ErrorIs(t, err, ErrWidthMismatch)
	require.Equal(t, uint64(0x7ffe), c.Not().Uint64())
}
