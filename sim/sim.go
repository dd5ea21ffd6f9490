// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package sim implements a simulated leveled homomorphic scheme over the
// plaintext space Z_2.
//
// Ciphertexts carry their plaintext slots in the clear together with the
// bookkeeping a real BFV/BGV instance would have: a noise budget consumed by
// products, and a degree that grows on multiplication and is restored by
// relinearization. Once the budget of a ciphertext reaches zero its
// decryption returns pseudo-random bits, which is how a real scheme fails.
//
// The simulator provides NO confidentiality. It exists so circuits can be
// validated exhaustively and their depth measured in milliseconds.
package sim

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/luxfi/cryptobit/he"
)

// ErrMalformed is returned when decoding a truncated or corrupt ciphertext.
var ErrMalformed = errors.New("malformed simulated ciphertext")

const encodingVersion = 1

// Ciphertext is a simulated ciphertext.
type Ciphertext struct {
	slots  []byte
	budget int
	degree int
	nonce  uint64
}

// Degree implements he.Ciphertext.
func (ct *Ciphertext) Degree() int {
	return ct.degree
}

// Scheme is a simulated scheme instance. It holds the (implicit) secret key,
// so it implements he.Scheme. It is safe for concurrent use.
type Scheme struct {
	params  Parameters
	counter atomic.Uint64
}

var _ he.Scheme = (*Scheme)(nil)

// New creates a scheme from parameters.
func New(params Parameters) *Scheme {
	return &Scheme{params: params}
}

// NewFromLiteral is a convenience wrapper around NewParametersFromLiteral.
func NewFromLiteral(lit ParametersLiteral) (*Scheme, error) {
	params, err := NewParametersFromLiteral(lit)
	if err != nil {
		return nil, err
	}
	return New(params), nil
}

// Parameters returns the scheme parameters.
func (s *Scheme) Parameters() Parameters {
	return s.params
}

func (s *Scheme) newCiphertext(budget, degree int) *Ciphertext {
	return &Ciphertext{
		slots:  make([]byte, s.params.slots),
		budget: budget,
		degree: degree,
		nonce:  s.counter.Add(1),
	}
}

func (s *Scheme) cast(ct he.Ciphertext) (*Ciphertext, error) {
	c, ok := ct.(*Ciphertext)
	if !ok || c == nil || len(c.slots) != s.params.slots {
		return nil, he.ErrForeignCiphertext
	}
	return c, nil
}

func (s *Scheme) cast2(a, b he.Ciphertext) (*Ciphertext, *Ciphertext, error) {
	ca, err := s.cast(a)
	if err != nil {
		return nil, nil, err
	}
	cb, err := s.cast(b)
	if err != nil {
		return nil, nil, err
	}
	return ca, cb, nil
}

// Encrypt encodes bit in slot 0 and encrypts it.
func (s *Scheme) Encrypt(bit bool) (he.Ciphertext, error) {
	ct := s.newCiphertext(s.params.freshBudget, 1)
	if bit {
		ct.slots[0] = 1
	}
	return ct, nil
}

// EncryptSlots encrypts a vector of bits, one per slot. Missing slots are
// zero.
func (s *Scheme) EncryptSlots(bits []bool) (he.Ciphertext, error) {
	if len(bits) > s.params.slots {
		return nil, fmt.Errorf("%d values exceed %d slots", len(bits), s.params.slots)
	}
	ct := s.newCiphertext(s.params.freshBudget, 1)
	for i, b := range bits {
		if b {
			ct.slots[i] = 1
		}
	}
	return ct, nil
}

// Decrypt returns slot 0 of ct.
func (s *Scheme) Decrypt(ct he.Ciphertext) (bool, error) {
	bits, err := s.DecryptSlots(ct)
	if err != nil {
		return false, err
	}
	return bits[0], nil
}

// DecryptSlots returns every slot of ct. An exhausted ciphertext decrypts to
// a pseudo-random vector.
func (s *Scheme) DecryptSlots(ct he.Ciphertext) ([]bool, error) {
	c, err := s.cast(ct)
	if err != nil {
		return nil, err
	}

	out := make([]bool, len(c.slots))
	if c.budget <= 0 {
		state := s.params.seed ^ c.nonce
		for i := range out {
			out[i] = splitmix64(&state)&1 == 1
		}
		return out, nil
	}

	for i, v := range c.slots {
		out[i] = v == 1
	}
	return out, nil
}

// Add implements he.Evaluator.
func (s *Scheme) Add(a, b he.Ciphertext) (he.Ciphertext, error) {
	ca, cb, err := s.cast2(a, b)
	if err != nil {
		return nil, err
	}

	out := s.newCiphertext(min(ca.budget, cb.budget), max(ca.degree, cb.degree))
	for i := range out.slots {
		out.slots[i] = ca.slots[i] ^ cb.slots[i]
	}
	return out, nil
}

// AddPlain implements he.Evaluator. The constant is added to every slot.
func (s *Scheme) AddPlain(a he.Ciphertext, bit bool) (he.Ciphertext, error) {
	ca, err := s.cast(a)
	if err != nil {
		return nil, err
	}

	out := s.newCiphertext(ca.budget, ca.degree)
	copy(out.slots, ca.slots)
	if bit {
		for i := range out.slots {
			out.slots[i] ^= 1
		}
	}
	return out, nil
}

// Multiply implements he.Evaluator.
func (s *Scheme) Multiply(a, b he.Ciphertext) (he.Ciphertext, error) {
	ca, cb, err := s.cast2(a, b)
	if err != nil {
		return nil, err
	}
	if ca.degree != 1 || cb.degree != 1 {
		return nil, he.ErrNotRelinearized
	}

	out := s.newCiphertext(min(ca.budget, cb.budget)-s.params.mulCost, 2)
	for i := range out.slots {
		out.slots[i] = ca.slots[i] & cb.slots[i]
	}
	return out, nil
}

// MultiplyPlain implements he.Evaluator.
func (s *Scheme) MultiplyPlain(a he.Ciphertext, bit bool) (he.Ciphertext, error) {
	ca, err := s.cast(a)
	if err != nil {
		return nil, err
	}

	out := s.newCiphertext(ca.budget-s.params.plainMulCost, ca.degree)
	if bit {
		copy(out.slots, ca.slots)
	}
	return out, nil
}

// Relinearize implements he.Evaluator.
func (s *Scheme) Relinearize(ct he.Ciphertext) (he.Ciphertext, error) {
	c, err := s.cast(ct)
	if err != nil {
		return nil, err
	}

	out := s.newCiphertext(c.budget, 1)
	copy(out.slots, c.slots)
	return out, nil
}

// Rotate implements he.Evaluator. Positive k rotates towards slot 0.
func (s *Scheme) Rotate(ct he.Ciphertext, k int) (he.Ciphertext, error) {
	c, err := s.cast(ct)
	if err != nil {
		return nil, err
	}
	if c.degree != 1 {
		return nil, he.ErrNotRelinearized
	}

	n := len(c.slots)
	k = ((k % n) + n) % n
	out := s.newCiphertext(c.budget, 1)
	for i := range out.slots {
		out.slots[i] = c.slots[(i+k)%n]
	}
	return out, nil
}

// NoiseBudget implements he.Evaluator.
func (s *Scheme) NoiseBudget(ct he.Ciphertext) (int, error) {
	c, err := s.cast(ct)
	if err != nil {
		return 0, err
	}
	return max(c.budget, 0), nil
}

// MarshalCiphertext implements he.Codec.
func (s *Scheme) MarshalCiphertext(ct he.Ciphertext) ([]byte, error) {
	c, err := s.cast(ct)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteByte(encodingVersion)
	buf.Write(binary.AppendUvarint(nil, uint64(c.degree)))
	buf.Write(binary.AppendVarint(nil, int64(c.budget)))
	buf.Write(binary.AppendUvarint(nil, uint64(len(c.slots))))

	packed := make([]byte, (len(c.slots)+7)/8)
	for i, v := range c.slots {
		packed[i/8] |= v << (i % 8)
	}
	buf.Write(packed)

	return buf.Bytes(), nil
}

// UnmarshalCiphertext implements he.Codec.
func (s *Scheme) UnmarshalCiphertext(data []byte) (he.Ciphertext, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil || version != encodingVersion {
		return nil, ErrMalformed
	}
	degree, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: degree: %v", ErrMalformed, err)
	}
	budget, err := binary.ReadVarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: budget: %v", ErrMalformed, err)
	}
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("%w: slots: %v", ErrMalformed, err)
	}
	if int(n) != s.params.slots {
		return nil, he.ErrForeignCiphertext
	}

	packed := make([]byte, (n+7)/8)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", ErrMalformed, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, r.Len())
	}

	ct := s.newCiphertext(int(budget), int(degree))
	for i := range ct.slots {
		ct.slots[i] = (packed[i/8] >> (i % 8)) & 1
	}
	return ct, nil
}

func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
