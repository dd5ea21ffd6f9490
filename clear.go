// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

// ClearBitset is a plaintext bit vector, least significant bit first.
type ClearBitset []ClearBit

// ClearUint64 returns the n low bits of v. Bits of v above n are dropped.
func ClearUint64(v uint64, n int) ClearBitset {
	out := make(ClearBitset, n)
	for i := 0; i < n && i < 64; i++ {
		out[i] = v>>i&1 == 1
	}
	return out
}

// ClearBytes returns the bits of data, byte i occupying bits 8i..8i+7.
func ClearBytes(data []byte) ClearBitset {
	out := make(ClearBitset, 8*len(data))
	for i, b := range data {
		for j := 0; j < 8; j++ {
			out[8*i+j] = b>>j&1 == 1
		}
	}
	return out
}

// Width returns the number of bits.
func (c ClearBitset) Width() int {
	return len(c)
}

// Uint64 packs the low 64 bits into an integer.
func (c ClearBitset) Uint64() uint64 {
	var v uint64
	for i := 0; i < len(c) && i < 64; i++ {
		if c[i] {
			v |= 1 << i
		}
	}
	return v
}

// Bytes packs the bits into ⌈N/8⌉ bytes.
func (c ClearBitset) Bytes() []byte {
	out := make([]byte, (len(c)+7)/8)
	for i, b := range c {
		if b {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

// Xor returns the elementwise XOR of c and o.
func (c ClearBitset) Xor(o ClearBitset) (ClearBitset, error) {
	if len(c) != len(o) {
		return nil, ErrWidthMismatch
	}
	out := make(ClearBitset, len(c))
	for i := range c {
		out[i] = c[i].Xor(o[i])
	}
	return out, nil
}

// And returns the elementwise AND of c and o.
func (c ClearBitset) And(o ClearBitset) (ClearBitset, error) {
	if len(c) != len(o) {
		return nil, ErrWidthMismatch
	}
	out := make(ClearBitset, len(c))
	for i := range c {
		out[i] = c[i].And(o[i])
	}
	return out, nil
}

// Not returns the complement of c.
func (c ClearBitset) Not() ClearBitset {
	out := make(ClearBitset, len(c))
	for i := range c {
		out[i] = !c[i]
	}
	return out
}

// IsZero reports whether every bit is 0.
func (c ClearBitset) IsZero() bool {
	for _, b := range c {
		if b {
			return false
		}
	}
	return true
}
