// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

// circuit evaluates gate lists with a sticky error. After the first failure
// every gate is a no-op returning the zero Bit, and err reports the failure
// once the list has been written out.
type circuit struct {
	ctx *Context
	err error
}

func newCircuit(ctx *Context) *circuit {
	return &circuit{ctx: ctx}
}

func (c *circuit) xor(a, b Bit) Bit {
	if c.err != nil {
		return Bit{}
	}
	out, err := a.Xor(b)
	c.err = err
	return out
}

// xorAll folds xor over bits. It needs at least one operand.
func (c *circuit) xorAll(bits ...Bit) Bit {
	acc := bits[0]
	for _, b := range bits[1:] {
		acc = c.xor(acc, b)
	}
	return acc
}

func (c *circuit) xnor(a, b Bit) Bit {
	if c.err != nil {
		return Bit{}
	}
	out, err := a.Xnor(b)
	c.err = err
	return out
}

func (c *circuit) not(a Bit) Bit {
	if c.err != nil {
		return Bit{}
	}
	out, err := a.Not()
	c.err = err
	return out
}

func (c *circuit) and(a, b Bit) Bit {
	if c.err != nil {
		return Bit{}
	}
	out, err := a.And(b)
	c.err = err
	return out
}

// andLayer evaluates independent AND gates concurrently. Gate i multiplies
// a[i] by b[i].
func (c *circuit) andLayer(a, b []Bit) []Bit {
	if c.err != nil {
		return make([]Bit, len(a))
	}

	out := make([]Bit, len(a))
	c.err = c.ctx.parallel(len(a), func(i int) error {
		var err error
		out[i], err = a[i].And(b[i])
		return err
	})
	return out
}
