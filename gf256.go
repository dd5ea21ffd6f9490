// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"fmt"
	"math/bits"
)

// gfPlan is the GF(2^8) product a·b mod x^8+x^4+x^3+x+1 unrolled into a
// fixed gate list. Each leaf is one AND between a parity of bits of a and a
// parity of bits of b; each output bit is the XOR of a subset of leaves.
//
// Three levels of Karatsuba on the 8-coefficient operands give 27 leaves,
// all independent of each other, so the whole multiplier has AND depth 1.
// The reduction modulo the field polynomial is folded into the output
// subsets and costs no AND gate.
type gfPlan struct {
	leaves []gfLeaf
	out    [8]uint32
}

type gfLeaf struct {
	a, b uint8
}

var gf256 = newGFPlan()

func newGFPlan() *gfPlan {
	p := &gfPlan{}

	var unit [8]uint8
	for i := range unit {
		unit[i] = 1 << i
	}
	coeffs := p.karatsuba(unit[:], unit[:])

	// x^i = x^(i-4) + x^(i-5) + x^(i-7) + x^(i-8) for i >= 8.
	for i := 14; i >= 8; i-- {
		coeffs[i-8] ^= coeffs[i]
		coeffs[i-7] ^= coeffs[i]
		coeffs[i-5] ^= coeffs[i]
		coeffs[i-4] ^= coeffs[i]
	}
	copy(p.out[:], coeffs[:8])

	return p
}

// karatsuba returns the 2n-1 coefficients of the product of two polynomials
// whose n coefficients are linear forms over the input bits.
func (p *gfPlan) karatsuba(a, b []uint8) []uint32 {
	n := len(a)
	if n == 1 {
		p.leaves = append(p.leaves, gfLeaf{a: a[0], b: b[0]})
		return []uint32{1 << (len(p.leaves) - 1)}
	}

	h := n / 2
	sumA := make([]uint8, h)
	sumB := make([]uint8, h)
	for i := 0; i < h; i++ {
		sumA[i] = a[i] ^ a[h+i]
		sumB[i] = b[i] ^ b[h+i]
	}

	lo := p.karatsuba(a[:h], b[:h])
	hi := p.karatsuba(a[h:], b[h:])
	mid := p.karatsuba(sumA, sumB)

	res := make([]uint32, 2*n-1)
	for i := range lo {
		res[i] ^= lo[i]
		res[i+n] ^= hi[i]
		res[i+h] ^= mid[i] ^ lo[i] ^ hi[i]
	}
	return res
}

// GFMulANDGates returns the number of ciphertext products in GFMul.
func GFMulANDGates() int {
	return len(gf256.leaves)
}

func checkByte(a Bitset) error {
	if a.ctx == nil {
		return ErrUnbound
	}
	if a.Width() != 8 {
		return fmt.Errorf("%w: GF(2^8) operand of width %d", ErrInvalidWidth, a.Width())
	}
	return nil
}

// parity XORs the bits of a selected by mask.
func parity(c *circuit, a Bitset, mask uint8) Bit {
	var acc Bit
	first := true
	for m := mask; m != 0; m &= m - 1 {
		b := a.bits[bits.TrailingZeros8(m)]
		if first {
			acc, first = b, false
			continue
		}
		acc = c.xor(acc, b)
	}
	return acc
}

func (p *gfPlan) combine(c *circuit, leaves []Bit) Bitset {
	out := make([]Bit, 8)
	for k, set := range p.out {
		var parts []Bit
		for s := set; s != 0; s &= s - 1 {
			parts = append(parts, leaves[bits.TrailingZeros32(s)])
		}
		out[k] = c.xorAll(parts...)
	}
	return Bitset{ctx: c.ctx, bits: out}
}

// GFMul multiplies two encrypted bytes in GF(2^8) modulo the AES polynomial.
// It uses 27 ciphertext products, all evaluated in a single parallel layer.
func GFMul(a, b Bitset) (Bitset, error) {
	if err := checkByte(a); err != nil {
		return Bitset{}, err
	}
	if err := checkByte(b); err != nil {
		return Bitset{}, err
	}
	if a.ctx != b.ctx {
		return Bitset{}, ErrContextMismatch
	}

	c := newCircuit(a.ctx)
	la := make([]Bit, len(gf256.leaves))
	lb := make([]Bit, len(gf256.leaves))
	for i, leaf := range gf256.leaves {
		la[i] = parity(c, a, leaf.a)
		lb[i] = parity(c, b, leaf.b)
	}
	leaves := c.andLayer(la, lb)
	out := gf256.combine(c, leaves)
	if c.err != nil {
		return Bitset{}, fmt.Errorf("gf multiply: %w", c.err)
	}
	return out, nil
}

// GFMulClear multiplies an encrypted byte by a plaintext byte given as a
// ClearBitset. Only ciphertext-plaintext products are used.
func GFMulClear(a Bitset, b ClearBitset) (Bitset, error) {
	if err := checkByte(a); err != nil {
		return Bitset{}, err
	}
	if b.Width() != 8 {
		return Bitset{}, fmt.Errorf("%w: GF(2^8) operand of width %d", ErrInvalidWidth, b.Width())
	}

	cb := uint8(b.Uint64())
	c := newCircuit(a.ctx)
	leaves := make([]Bit, len(gf256.leaves))
	err := a.ctx.parallel(len(leaves), func(i int) error {
		leaf := gf256.leaves[i]
		lc := newCircuit(a.ctx)
		la := parity(lc, a, leaf.a)
		if lc.err != nil {
			return lc.err
		}
		var err error
		leaves[i], err = la.AndClear(bits.OnesCount8(cb&leaf.b)&1 == 1)
		return err
	})
	if err != nil {
		return Bitset{}, fmt.Errorf("gf multiply: %w", err)
	}

	out := gf256.combine(c, leaves)
	if c.err != nil {
		return Bitset{}, fmt.Errorf("gf multiply: %w", c.err)
	}
	return out, nil
}

// xtime multiplies an encrypted byte by x using XOR gates only.
func xtime(c *circuit, a []Bit) []Bit {
	return []Bit{
		a[7],
		c.xor(a[0], a[7]),
		a[1],
		c.xor(a[2], a[7]),
		c.xor(a[3], a[7]),
		a[4],
		a[5],
		a[6],
	}
}

// GFMulConst multiplies an encrypted byte by a public constant. The product
// is a linear map over GF(2), so it needs no AND gate and consumes no noise
// budget.
func GFMulConst(a Bitset, k byte) (Bitset, error) {
	if err := checkByte(a); err != nil {
		return Bitset{}, err
	}
	if k == 0 {
		return a.ctx.ZeroBitset(8)
	}

	c := newCircuit(a.ctx)
	var acc []Bit
	pow := a.bits
	for m := k; m != 0; m >>= 1 {
		if m&1 == 1 {
			if acc == nil {
				acc = append([]Bit(nil), pow...)
			} else {
				for i := range acc {
					acc[i] = c.xor(acc[i], pow[i])
				}
			}
		}
		if m > 1 {
			pow = xtime(c, pow)
		}
	}
	if c.err != nil {
		return Bitset{}, fmt.Errorf("gf multiply by %#02x: %w", k, c.err)
	}
	return Bitset{ctx: a.ctx, bits: acc}, nil
}

// GFMulReference multiplies two bytes in GF(2^8) with the textbook
// shift-and-add loop.
func GFMulReference(a, b byte) byte {
	var p byte
	for b != 0 {
		if b&1 == 1 {
			p ^= a
		}
		hi := a & 0x80
		a <<= 1
		if hi != 0 {
			a ^= 0x1b
		}
		b >>= 1
	}
	return p
}
