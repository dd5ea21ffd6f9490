// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import "fmt"

// aesSBoxCircuit evaluates the AES S-box with the Boyar-Peralta circuit:
// a linear top layer, a shared GF(2^4) inversion core of 32 AND gates and a
// linear bottom layer. The AND gates fall into six layers of mutually
// independent gates; each layer runs concurrently.
//
// The circuit numbers bits from the most significant end, so x0 is bit 7 of
// the input and s0 bit 7 of the output.
func aesSBoxCircuit(in Bitset) (Bitset, error) {
	if err := checkByte(in); err != nil {
		return Bitset{}, err
	}

	c := newCircuit(in.ctx)
	q := in.bits
	x0, x1, x2, x3 := q[7], q[6], q[5], q[4]
	x4, x5, x6, x7 := q[3], q[2], q[1], q[0]

	// Top linear layer.
	y14 := c.xor(x3, x5)
	y13 := c.xor(x0, x6)
	y9 := c.xor(x0, x3)
	y8 := c.xor(x0, x5)
	t0 := c.xor(x1, x2)
	y1 := c.xor(t0, x7)
	y4 := c.xor(y1, x3)
	y12 := c.xor(y13, y14)
	y2 := c.xor(y1, x0)
	y5 := c.xor(y1, x6)
	y3 := c.xor(y5, y8)
	t1 := c.xor(x4, y12)
	y15 := c.xor(t1, x5)
	y20 := c.xor(t1, x1)
	y6 := c.xor(y15, x7)
	y10 := c.xor(y15, t0)
	y11 := c.xor(y20, y9)
	y7 := c.xor(x7, y11)
	y17 := c.xor(y10, y11)
	y19 := c.xor(y10, y8)
	y16 := c.xor(t0, y11)
	y21 := c.xor(y13, y16)
	y18 := c.xor(x0, y16)

	// Nonlinear core.
	m := c.andLayer(
		[]Bit{y12, y3, y4, y13, y5, y2, y9, y14, y8},
		[]Bit{y15, y6, x7, y16, y1, y7, y11, y17, y10},
	)
	t2, t3, t5, t7, t8, t10, t12, t13, t15 := m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8]

	t4 := c.xor(t3, t2)
	t6 := c.xor(t5, t2)
	t9 := c.xor(t8, t7)
	t11 := c.xor(t10, t7)
	t14 := c.xor(t13, t12)
	t16 := c.xor(t15, t12)
	t17 := c.xor(t4, t14)
	t18 := c.xor(t6, t16)
	t19 := c.xor(t9, t14)
	t20 := c.xor(t11, t16)
	t21 := c.xor(t17, y20)
	t22 := c.xor(t18, y19)
	t23 := c.xor(t19, y21)
	t24 := c.xor(t20, y18)

	t25 := c.xor(t21, t22)
	t26 := c.and(t21, t23)
	t27 := c.xor(t24, t26)
	t30 := c.xor(t23, t24)
	t31 := c.xor(t22, t26)

	m = c.andLayer([]Bit{t25, t31}, []Bit{t27, t30})
	t28, t32 := m[0], m[1]

	t29 := c.xor(t28, t22)
	t33 := c.xor(t32, t24)
	t34 := c.xor(t23, t33)
	t35 := c.xor(t27, t33)
	t42 := c.xor(t29, t33)

	m = c.andLayer(
		[]Bit{t24, t33, t29, t42, t33, t29, t42},
		[]Bit{t35, x7, y7, y11, y4, y2, y9},
	)
	t36, z2, z5, z6, z11, z14, z15 := m[0], m[1], m[2], m[3], m[4], m[5], m[6]

	t37 := c.xor(t36, t34)
	t38 := c.xor(t27, t36)
	t44 := c.xor(t33, t37)

	m = c.andLayer(
		[]Bit{t29, t44, t37, t44, t37},
		[]Bit{t38, y15, y6, y12, y3},
	)
	t39, z0, z1, z9, z10 := m[0], m[1], m[2], m[3], m[4]

	t40 := c.xor(t25, t39)
	t41 := c.xor(t40, t37)
	t43 := c.xor(t29, t40)
	t45 := c.xor(t42, t41)

	m = c.andLayer(
		[]Bit{t43, t40, t45, t41, t43, t40, t45, t41},
		[]Bit{y16, y1, y17, y10, y13, y5, y14, y8},
	)
	z3, z4, z7, z8, z12, z13, z16, z17 := m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7]

	// Bottom linear layer.
	t46 := c.xor(z15, z16)
	t47 := c.xor(z10, z11)
	t48 := c.xor(z5, z13)
	t49 := c.xor(z9, z10)
	t50 := c.xor(z2, z12)
	t51 := c.xor(z2, z5)
	t52 := c.xor(z7, z8)
	t53 := c.xor(z0, z3)
	t54 := c.xor(z6, z7)
	t55 := c.xor(z16, z17)
	t56 := c.xor(z12, t48)
	t57 := c.xor(t50, t53)
	t58 := c.xor(z4, t46)
	t59 := c.xor(z3, t54)
	t60 := c.xor(t46, t57)
	t61 := c.xor(z14, t57)
	t62 := c.xor(t52, t58)
	t63 := c.xor(t49, t58)
	t64 := c.xor(z4, t59)
	t65 := c.xor(t61, t62)
	t66 := c.xor(z1, t63)
	s0 := c.xor(t59, t63)
	s6 := c.xnor(t56, t62)
	s7 := c.xnor(t48, t60)
	t67 := c.xor(t64, t65)
	s3 := c.xor(t53, t66)
	s4 := c.xor(t51, t66)
	s5 := c.xor(t47, t65)
	s1 := c.xnor(t64, s3)
	s2 := c.xnor(t55, t67)

	if c.err != nil {
		return Bitset{}, fmt.Errorf("s-box circuit: %w", c.err)
	}
	return Bitset{ctx: in.ctx, bits: []Bit{s7, s6, s5, s4, s3, s2, s1, s0}}, nil
}

// invAffine applies the inverse of the affine map of the AES S-box:
// out_i = in_(i+2) ^ in_(i+5) ^ in_(i+7) ^ bit i of 0x05, indices mod 8.
func invAffine(c *circuit, in []Bit) []Bit {
	out := make([]Bit, 8)
	for i := range out {
		out[i] = c.xorAll(in[(i+2)%8], in[(i+5)%8], in[(i+7)%8])
		if (0x05>>i)&1 == 1 {
			out[i] = c.not(out[i])
		}
	}
	return out
}

// aesInvSBoxCircuit evaluates the inverse AES S-box by wrapping the forward
// circuit between two inverse affine maps. The inversion core is its own
// inverse, so InvS(y) = A⁻¹(S(A⁻¹(y))).
func aesInvSBoxCircuit(in Bitset) (Bitset, error) {
	if err := checkByte(in); err != nil {
		return Bitset{}, err
	}

	c := newCircuit(in.ctx)
	pre := invAffine(c, in.bits)
	if c.err != nil {
		return Bitset{}, fmt.Errorf("inverse s-box circuit: %w", c.err)
	}

	mid, err := aesSBoxCircuit(Bitset{ctx: in.ctx, bits: pre})
	if err != nil {
		return Bitset{}, err
	}

	post := invAffine(c, mid.bits)
	if c.err != nil {
		return Bitset{}, fmt.Errorf("inverse s-box circuit: %w", c.err)
	}
	return Bitset{ctx: in.ctx, bits: post}, nil
}
