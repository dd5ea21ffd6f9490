// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"fmt"

	"github.com/luxfi/cryptobit/he"
)

// Bitset is a fixed-width vector of encrypted bits, least significant bit
// first. The width is fixed at construction. Operations return new values;
// only Refresh and the InPlace shifts mutate the receiver.
type Bitset struct {
	ctx  *Context
	bits []Bit
}

// NewBitset builds an n-bit bitset from bits, zero-extending at the high end.
// Supplying more than n bits fails with ErrNarrowing.
func (c *Context) NewBitset(bits []Bit, n int) (Bitset, error) {
	if n <= 0 {
		return Bitset{}, fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	if len(bits) > n {
		return Bitset{}, fmt.Errorf("%w: %d bits into width %d", ErrNarrowing, len(bits), n)
	}

	out := make([]Bit, n)
	for i := range out {
		if i >= len(bits) {
			out[i] = c.Zero()
			continue
		}
		if bits[i].ctx == nil {
			return Bitset{}, ErrUnbound
		}
		if bits[i].ctx != c {
			return Bitset{}, ErrContextMismatch
		}
		out[i] = bits[i]
	}
	return Bitset{ctx: c, bits: out}, nil
}

// ZeroBitset returns n encrypted zeros.
func (c *Context) ZeroBitset(n int) (Bitset, error) {
	return c.NewBitset(nil, n)
}

// Broadcast returns a bitset with every one of its n bits equal to b.
func (c *Context) Broadcast(b Bit, n int) (Bitset, error) {
	if n <= 0 {
		return Bitset{}, fmt.Errorf("%w: %d", ErrInvalidWidth, n)
	}
	bits := make([]Bit, n)
	for i := range bits {
		bits[i] = b
	}
	return c.NewBitset(bits, n)
}

// EncryptClear encrypts every bit of a plaintext bitset.
func (c *Context) EncryptClear(clear ClearBitset) (Bitset, error) {
	if len(clear) == 0 {
		return Bitset{}, fmt.Errorf("%w: 0", ErrInvalidWidth)
	}

	bits := make([]Bit, len(clear))
	err := c.parallel(len(clear), func(i int) error {
		b, err := c.Encrypt(bool(clear[i]))
		bits[i] = b
		return err
	})
	if err != nil {
		return Bitset{}, err
	}
	return Bitset{ctx: c, bits: bits}, nil
}

// EncryptUint64 encrypts the n low bits of v.
func (c *Context) EncryptUint64(v uint64, n int) (Bitset, error) {
	if n < 64 && v>>n != 0 {
		return Bitset{}, fmt.Errorf("%w: %#x into width %d", ErrNarrowing, v, n)
	}
	return c.EncryptClear(ClearUint64(v, n))
}

// EncryptBytes encrypts data into a bitset of width 8·len(data).
func (c *Context) EncryptBytes(data []byte) (Bitset, error) {
	return c.EncryptClear(ClearBytes(data))
}

// Join concatenates parts in order, part 0 in the low bits, and zero-pads the
// result to width n. A combined width above n fails with ErrNarrowing.
func (c *Context) Join(parts []Bitset, n int) (Bitset, error) {
	var total int
	for _, p := range parts {
		total += len(p.bits)
	}
	if total > n {
		return Bitset{}, fmt.Errorf("%w: joining %d bits into width %d", ErrNarrowing, total, n)
	}

	bits := make([]Bit, 0, total)
	for _, p := range parts {
		bits = append(bits, p.bits...)
	}
	return c.NewBitset(bits, n)
}

// Context returns the context the bitset is bound to.
func (s Bitset) Context() *Context {
	return s.ctx
}

// Width returns the number of bits.
func (s Bitset) Width() int {
	return len(s.bits)
}

// Bit returns bit i. It panics if i is out of range.
func (s Bitset) Bit(i int) Bit {
	return s.bits[i]
}

// Bits returns a copy of the bits.
func (s Bitset) Bits() []Bit {
	return append([]Bit(nil), s.bits...)
}

// Widen zero-extends s to width n. Narrowing fails with ErrNarrowing.
func (s Bitset) Widen(n int) (Bitset, error) {
	if s.ctx == nil {
		return Bitset{}, ErrUnbound
	}
	return s.ctx.NewBitset(s.bits, n)
}

// Slice returns bits [from, to) as a new bitset.
func (s Bitset) Slice(from, to int) (Bitset, error) {
	if s.ctx == nil {
		return Bitset{}, ErrUnbound
	}
	if from < 0 || to > len(s.bits) || from >= to {
		return Bitset{}, fmt.Errorf("%w: slice [%d, %d) of %d bits", ErrInvalidWidth, from, to, len(s.bits))
	}
	return Bitset{ctx: s.ctx, bits: append([]Bit(nil), s.bits[from:to]...)}, nil
}

func (s Bitset) check(o Bitset) error {
	if s.ctx == nil || o.ctx == nil {
		return ErrUnbound
	}
	if s.ctx != o.ctx {
		return ErrContextMismatch
	}
	if len(s.bits) != len(o.bits) {
		return fmt.Errorf("%w: %d != %d", ErrWidthMismatch, len(s.bits), len(o.bits))
	}
	return nil
}

func (s Bitset) zip(o Bitset, op func(a, b Bit) (Bit, error)) (Bitset, error) {
	if err := s.check(o); err != nil {
		return Bitset{}, err
	}

	out := make([]Bit, len(s.bits))
	err := s.ctx.parallel(len(out), func(i int) error {
		var err error
		out[i], err = op(s.bits[i], o.bits[i])
		return err
	})
	if err != nil {
		return Bitset{}, err
	}
	return Bitset{ctx: s.ctx, bits: out}, nil
}

func (s Bitset) zipClear(c ClearBitset, op func(a Bit, b ClearBit) (Bit, error)) (Bitset, error) {
	if s.ctx == nil {
		return Bitset{}, ErrUnbound
	}
	if len(c) != len(s.bits) {
		return Bitset{}, fmt.Errorf("%w: %d != %d", ErrWidthMismatch, len(s.bits), len(c))
	}

	out := make([]Bit, len(s.bits))
	err := s.ctx.parallel(len(out), func(i int) error {
		var err error
		out[i], err = op(s.bits[i], c[i])
		return err
	})
	if err != nil {
		return Bitset{}, err
	}
	return Bitset{ctx: s.ctx, bits: out}, nil
}

// And returns the elementwise AND.
func (s Bitset) And(o Bitset) (Bitset, error) {
	return s.zip(o, Bit.And)
}

// Or returns the elementwise OR.
func (s Bitset) Or(o Bitset) (Bitset, error) {
	return s.zip(o, Bit.Or)
}

// Xor returns the elementwise XOR.
func (s Bitset) Xor(o Bitset) (Bitset, error) {
	return s.zip(o, Bit.Xor)
}

// Xnor returns the elementwise XNOR.
func (s Bitset) Xnor(o Bitset) (Bitset, error) {
	return s.zip(o, Bit.Xnor)
}

// Not returns the complement.
func (s Bitset) Not() (Bitset, error) {
	ones := make(ClearBitset, len(s.bits))
	for i := range ones {
		ones[i] = true
	}
	return s.XorClear(ones)
}

// AndClear returns the elementwise AND with a plaintext bitset.
func (s Bitset) AndClear(c ClearBitset) (Bitset, error) {
	return s.zipClear(c, Bit.AndClear)
}

// OrClear returns the elementwise OR with a plaintext bitset.
func (s Bitset) OrClear(c ClearBitset) (Bitset, error) {
	return s.zipClear(c, Bit.OrClear)
}

// XorClear returns the elementwise XOR with a plaintext bitset.
func (s Bitset) XorClear(c ClearBitset) (Bitset, error) {
	return s.zipClear(c, Bit.XorClear)
}

// XnorClear returns the elementwise XNOR with a plaintext bitset.
func (s Bitset) XnorClear(c ClearBitset) (Bitset, error) {
	return s.zipClear(c.Not(), Bit.XorClear)
}

// Select returns (cond AND a) XOR (NOT cond AND b). It is the only way to
// branch on encrypted data: with cond = Broadcast(bit) it picks a when bit
// is 1 and b otherwise.
func Select(cond, a, b Bitset) (Bitset, error) {
	if err := cond.check(a); err != nil {
		return Bitset{}, err
	}
	if err := cond.check(b); err != nil {
		return Bitset{}, err
	}

	out := make([]Bit, len(cond.bits))
	err := cond.ctx.parallel(len(out), func(i int) error {
		ta, err := cond.bits[i].And(a.bits[i])
		if err != nil {
			return err
		}
		nc, err := cond.bits[i].Not()
		if err != nil {
			return err
		}
		tb, err := nc.And(b.bits[i])
		if err != nil {
			return err
		}
		out[i], err = ta.Xor(tb)
		return err
	})
	if err != nil {
		return Bitset{}, err
	}
	return Bitset{ctx: cond.ctx, bits: out}, nil
}

// ShiftLeft moves every bit k positions towards the most significant end,
// filling with encrypted zeros. k >= N yields all zeros.
func (s Bitset) ShiftLeft(k int) (Bitset, error) {
	if s.ctx == nil {
		return Bitset{}, ErrUnbound
	}
	return Bitset{ctx: s.ctx, bits: s.shifted(k)}, nil
}

// ShiftRight moves every bit k positions towards the least significant end,
// filling with encrypted zeros. k >= N yields all zeros.
func (s Bitset) ShiftRight(k int) (Bitset, error) {
	if s.ctx == nil {
		return Bitset{}, ErrUnbound
	}
	return Bitset{ctx: s.ctx, bits: s.shifted(-clampShift(k, len(s.bits)))}, nil
}

// ShiftLeftInPlace is ShiftLeft assigning the result to s. Copies of s made
// before the call keep their bits.
func (s *Bitset) ShiftLeftInPlace(k int) error {
	if s.ctx == nil {
		return ErrUnbound
	}
	s.bits = s.shifted(k)
	return nil
}

// ShiftRightInPlace is ShiftRight assigning the result to s.
func (s *Bitset) ShiftRightInPlace(k int) error {
	if s.ctx == nil {
		return ErrUnbound
	}
	s.bits = s.shifted(-clampShift(k, len(s.bits)))
	return nil
}

// clampShift limits k to [-n, n], every shift beyond either end being all
// zeros.
func clampShift(k, n int) int {
	return max(-n, min(k, n))
}

// shifted returns a new slice holding s shifted towards the most significant
// end by k, or towards the least significant end for negative k.
func (s Bitset) shifted(k int) []Bit {
	n := len(s.bits)
	k = clampShift(k, n)

	out := make([]Bit, n)
	for i := range out {
		j := i - k
		if j >= 0 && j < n {
			out[i] = s.bits[j]
		} else {
			out[i] = s.ctx.Zero()
		}
	}
	return out
}

// RotateLeft rotates towards the most significant end by k mod N.
func (s Bitset) RotateLeft(k int) (Bitset, error) {
	if s.ctx == nil {
		return Bitset{}, ErrUnbound
	}

	n := len(s.bits)
	k = ((k % n) + n) % n
	out := make([]Bit, n)
	for i := range out {
		out[(i+k)%n] = s.bits[i]
	}
	return Bitset{ctx: s.ctx, bits: out}, nil
}

// RotateRight rotates towards the least significant end by k mod N.
func (s Bitset) RotateRight(k int) (Bitset, error) {
	return s.RotateLeft(-k)
}

// Split partitions s into ⌈N/width⌉ consecutive chunks, chunk 0 holding the
// low bits. The last chunk keeps the remainder width when width does not
// divide N.
func (s Bitset) Split(width int) ([]Bitset, error) {
	if s.ctx == nil {
		return nil, ErrUnbound
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: split width %d", ErrInvalidWidth, width)
	}

	n := len(s.bits)
	parts := make([]Bitset, 0, (n+width-1)/width)
	for from := 0; from < n; from += width {
		to := min(from+width, n)
		parts = append(parts, Bitset{ctx: s.ctx, bits: append([]Bit(nil), s.bits[from:to]...)})
	}
	return parts, nil
}

// AndReduce ANDs all N bits in sequence and broadcasts the result back to
// width N. Its multiplicative depth is N-1.
func (s Bitset) AndReduce() (Bitset, error) {
	acc, err := s.andAll()
	if err != nil {
		return Bitset{}, err
	}
	return s.ctx.Broadcast(acc, len(s.bits))
}

func (s Bitset) andAll() (Bit, error) {
	if s.ctx == nil {
		return Bit{}, ErrUnbound
	}

	acc := s.bits[0]
	for _, b := range s.bits[1:] {
		var err error
		if acc, err = acc.And(b); err != nil {
			return Bit{}, err
		}
	}
	return acc, nil
}

// Matches returns an encryption of 1 if s equals key and 0 otherwise.
func (s Bitset) Matches(key ClearBitset) (Bit, error) {
	eq, err := s.XnorClear(key)
	if err != nil {
		return Bit{}, err
	}
	return eq.andAll()
}

// MinNoiseBudget returns the smallest noise budget among the bits.
func (s Bitset) MinNoiseBudget() (int, error) {
	if s.ctx == nil {
		return 0, ErrUnbound
	}

	lowest := -1
	for _, b := range s.bits {
		nb, err := b.NoiseBudget()
		if err != nil {
			return 0, err
		}
		if lowest < 0 || nb < lowest {
			lowest = nb
		}
	}
	return lowest, nil
}

// Decrypt decrypts every bit.
func (s Bitset) Decrypt(d he.Decryptor) (ClearBitset, error) {
	if s.ctx == nil {
		return nil, ErrUnbound
	}

	out := make(ClearBitset, len(s.bits))
	for i, b := range s.bits {
		v, err := b.Decrypt(d)
		if err != nil {
			return nil, fmt.Errorf("decrypt bit %d: %w", i, err)
		}
		out[i] = ClearBit(v)
	}
	return out, nil
}

// DecryptUint64 decrypts a bitset of width at most 64 into an integer.
func (s Bitset) DecryptUint64(d he.Decryptor) (uint64, error) {
	if len(s.bits) > 64 {
		return 0, fmt.Errorf("%w: %d bits into uint64", ErrNarrowing, len(s.bits))
	}
	clear, err := s.Decrypt(d)
	if err != nil {
		return 0, err
	}
	return clear.Uint64(), nil
}

// DecryptBytes decrypts s into ⌈N/8⌉ bytes.
func (s Bitset) DecryptBytes(d he.Decryptor) ([]byte, error) {
	clear, err := s.Decrypt(d)
	if err != nil {
		return nil, err
	}
	return clear.Bytes(), nil
}

// Refresh replaces every bit with a fresh encryption of its value. It needs
// the secret key; see Bit.Refresh. Copies of s made before the call are left
// untouched.
func (s *Bitset) Refresh(holder KeyHolder) error {
	if s.ctx == nil {
		return ErrUnbound
	}
	if holder == nil {
		return ErrRefreshUnavailable
	}

	log.Warnf("Refreshing %d bits with secret key material", len(s.bits))

	fresh := make([]Bit, len(s.bits))
	err := s.ctx.parallel(len(s.bits), func(i int) error {
		b, err := s.bits[i].Refresh(holder)
		fresh[i] = b
		return err
	})
	if err != nil {
		return err
	}
	s.bits = fresh
	return nil
}
