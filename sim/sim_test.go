// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/cryptobit/he"
)

func newTestScheme(t *testing.T, lit ParametersLiteral) *Scheme {
	t.Helper()
	s, err := NewFromLiteral(lit)
	require.NoError(t, err)
	return s
}

func TestGates(t *testing.T) {
	s := newTestScheme(t, Default)

	testCases := []struct {
		a, b         bool
		wantAdd      bool
		wantMultiply bool
	}{
		{false, false, false, false},
		{false, true, true, false},
		{true, false, true, false},
		{true, true, false, true},
	}

	for _, tc := range testCases {
		ctA, err := s.Encrypt(tc.a)
		require.NoError(t, err)
		ctB, err := s.Encrypt(tc.b)
		require.NoError(t, err)

		sum, err := s.Add(ctA, ctB)
		require.NoError(t, err)
		got, err := s.Decrypt(sum)
		require.NoError(t, err)
		require.Equal(t, tc.wantAdd, got, "Add(%v, %v)", tc.a, tc.b)

		prod, err := s.Multiply(ctA, ctB)
		require.NoError(t, err)
		require.Equal(t, 2, prod.Degree())
		got, err = s.Decrypt(prod)
		require.NoError(t, err)
		require.Equal(t, tc.wantMultiply, got, "Multiply(%v, %v)", tc.a, tc.b)
	}
}

func TestPlainOperations(t *testing.T) {
	s := newTestScheme(t, Default)

	ct, err := s.Encrypt(true)
	require.NoError(t, err)

	flipped, err := s.AddPlain(ct, true)
	require.NoError(t, err)
	got, err := s.Decrypt(flipped)
	require.NoError(t, err)
	require.False(t, got)

	zeroed, err := s.MultiplyPlain(ct, false)
	require.NoError(t, err)
	got, err = s.Decrypt(zeroed)
	require.NoError(t, err)
	require.False(t, got)

	budget, err := s.NoiseBudget(zeroed)
	require.NoError(t, err)
	require.Equal(t, Default.FreshBudget-Default.PlainMulCost, budget)
}

func TestRelinearizationRequired(t *testing.T) {
	s := newTestScheme(t, Default)

	a, _ := s.Encrypt(true)
	b, _ := s.Encrypt(true)

	prod, err := s.Multiply(a, b)
	require.NoError(t, err)

	_, err = s.Multiply(prod, a)
	require.ErrorIs(t, err, he.ErrNotRelinearized)
	_, err = s.Rotate(prod, 1)
	require.ErrorIs(t, err, he.ErrNotRelinearized)

	relin, err := s.Relinearize(prod)
	require.NoError(t, err)
	require.Equal(t, 1, relin.Degree())

	_, err = s.Multiply(relin, a)
	require.NoError(t, err)
}

func TestNoiseBudgetDepletion(t *testing.T) {
	s := newTestScheme(t, Default)
	params := s.Parameters()

	one, err := s.Encrypt(true)
	require.NoError(t, err)

	acc := one
	for depth := 1; depth <= params.MaxDepth(); depth++ {
		prod, err := s.Multiply(acc, one)
		require.NoError(t, err)
		acc, err = s.Relinearize(prod)
		require.NoError(t, err)

		budget, err := s.NoiseBudget(acc)
		require.NoError(t, err)
		require.Equal(t, params.FreshBudget()-depth*params.MulCost(), budget)
		require.Positive(t, budget)

		got, err := s.Decrypt(acc)
		require.NoError(t, err)
		require.True(t, got)
	}

	// One more product exhausts the budget. The failure is silent.
	prod, err := s.Multiply(acc, one)
	require.NoError(t, err)
	budget, err := s.NoiseBudget(prod)
	require.NoError(t, err)
	require.Zero(t, budget)
}

func TestExhaustedDecryptionIsGarbage(t *testing.T) {
	s := newTestScheme(t, ParametersLiteral{LogSlots: 6, FreshBudget: 10, MulCost: 10})

	ones := make([]bool, 64)
	for i := range ones {
		ones[i] = true
	}
	a, err := s.EncryptSlots(ones)
	require.NoError(t, err)

	prod, err := s.Multiply(a, a)
	require.NoError(t, err)

	got, err := s.DecryptSlots(prod)
	require.NoError(t, err)
	require.NotEqual(t, ones, got)
}

func TestRotate(t *testing.T) {
	s := newTestScheme(t, Default)

	in := make([]bool, s.Parameters().Slots())
	in[0], in[3] = true, true
	ct, err := s.EncryptSlots(in)
	require.NoError(t, err)

	rot, err := s.Rotate(ct, 3)
	require.NoError(t, err)
	got, err := s.DecryptSlots(rot)
	require.NoError(t, err)
	require.True(t, got[0])
	require.True(t, got[len(got)-3])

	back, err := s.Rotate(rot, -3)
	require.NoError(t, err)
	got, err = s.DecryptSlots(back)
	require.NoError(t, err)
	require.Equal(t, in, got)
}

func TestCodec(t *testing.T) {
	s := newTestScheme(t, Default)

	a, _ := s.Encrypt(true)
	b, _ := s.Encrypt(true)
	prod, err := s.Multiply(a, b)
	require.NoError(t, err)

	data, err := s.MarshalCiphertext(prod)
	require.NoError(t, err)

	decoded, err := s.UnmarshalCiphertext(data)
	require.NoError(t, err)
	require.Equal(t, prod.Degree(), decoded.Degree())

	wantBudget, _ := s.NoiseBudget(prod)
	gotBudget, _ := s.NoiseBudget(decoded)
	require.Equal(t, wantBudget, gotBudget)

	got, err := s.Decrypt(decoded)
	require.NoError(t, err)
	require.True(t, got)

	_, err = s.UnmarshalCiphertext(data[:len(data)-1])
	require.ErrorIs(t, err, ErrMalformed)

	other := newTestScheme(t, ParametersLiteral{LogSlots: 2, FreshBudget: 10})
	_, err = other.UnmarshalCiphertext(data)
	require.ErrorIs(t, err, he.ErrForeignCiphertext)
}

func TestInvalidParameters(t *testing.T) {
	for _, lit := range []ParametersLiteral{
		{LogSlots: -1, FreshBudget: 10},
		{LogSlots: 2, FreshBudget: 0},
		{LogSlots: 2, FreshBudget: 10, MulCost: -1},
	} {
		_, err := NewParametersFromLiteral(lit)
		require.ErrorIs(t, err, ErrInvalidParameters)
	}
}
