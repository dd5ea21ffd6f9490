// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"fmt"

	"github.com/luxfi/cryptobit/he"
)

// Bit is one encrypted value in {0,1}. It is a small value type and may be
// copied freely; the ciphertext it wraps is never mutated.
type Bit struct {
	ctx *Context
	ct  he.Ciphertext
}

// ClearBit is the plaintext counterpart of Bit. Mixing a ClearBit into an
// encrypted operation avoids a ciphertext-ciphertext product.
type ClearBit bool

// KeyHolder is a party holding the secret key. Only a KeyHolder can refresh
// a ciphertext, see Bit.Refresh.
type KeyHolder interface {
	he.Encryptor
	he.Decryptor
}

// Context returns the context the bit is bound to.
func (b Bit) Context() *Context {
	return b.ctx
}

// Ciphertext returns the underlying ciphertext.
func (b Bit) Ciphertext() he.Ciphertext {
	return b.ct
}

func (b Bit) check(o Bit) error {
	if b.ctx == nil || o.ctx == nil {
		return ErrUnbound
	}
	if b.ctx != o.ctx {
		return ErrContextMismatch
	}
	return nil
}

func (b Bit) with(ct he.Ciphertext) Bit {
	return Bit{ctx: b.ctx, ct: ct}
}

// And returns a AND b. The product is relinearized so the result can feed
// further products.
func (b Bit) And(o Bit) (Bit, error) {
	if err := b.check(o); err != nil {
		return Bit{}, err
	}

	prod, err := b.ctx.scheme.Multiply(b.ct, o.ct)
	if err != nil {
		return Bit{}, fmt.Errorf("and: %w", err)
	}
	ct, err := b.ctx.scheme.Relinearize(prod)
	if err != nil {
		return Bit{}, fmt.Errorf("and: relinearize: %w", err)
	}

	return b.with(ct), nil
}

// Xor returns a XOR b.
func (b Bit) Xor(o Bit) (Bit, error) {
	if err := b.check(o); err != nil {
		return Bit{}, err
	}

	ct, err := b.ctx.scheme.Add(b.ct, o.ct)
	if err != nil {
		return Bit{}, fmt.Errorf("xor: %w", err)
	}
	return b.with(ct), nil
}

// Or returns a OR b computed as a + b + a·b.
func (b Bit) Or(o Bit) (Bit, error) {
	ab, err := b.And(o)
	if err != nil {
		return Bit{}, err
	}
	ab, err = ab.Xor(b)
	if err != nil {
		return Bit{}, err
	}
	return ab.Xor(o)
}

// Not returns 1 + a.
func (b Bit) Not() (Bit, error) {
	if b.ctx == nil {
		return Bit{}, ErrUnbound
	}

	ct, err := b.ctx.scheme.AddPlain(b.ct, true)
	if err != nil {
		return Bit{}, fmt.Errorf("not: %w", err)
	}
	return b.with(ct), nil
}

// Xnor returns NOT(a XOR b).
func (b Bit) Xnor(o Bit) (Bit, error) {
	x, err := b.Xor(o)
	if err != nil {
		return Bit{}, err
	}
	return x.Not()
}

// AndClear returns a AND c using a plaintext product.
func (b Bit) AndClear(c ClearBit) (Bit, error) {
	if b.ctx == nil {
		return Bit{}, ErrUnbound
	}

	ct, err := b.ctx.scheme.MultiplyPlain(b.ct, bool(c))
	if err != nil {
		return Bit{}, fmt.Errorf("and clear: %w", err)
	}
	return b.with(ct), nil
}

// XorClear returns a XOR c using a plaintext addition.
func (b Bit) XorClear(c ClearBit) (Bit, error) {
	if b.ctx == nil {
		return Bit{}, ErrUnbound
	}
	if !c {
		return b, nil
	}
	return b.Not()
}

// OrClear returns a OR c. With c known the result is either 1 or a.
func (b Bit) OrClear(c ClearBit) (Bit, error) {
	if !c {
		return b, nil
	}
	return b.SetOne()
}

// SetZero returns an encryption of 0 derived from b, i.e. b·0.
func (b Bit) SetZero() (Bit, error) {
	return b.AndClear(false)
}

// SetOne returns an encryption of 1 derived from b, i.e. b + NOT(b).
func (b Bit) SetOne() (Bit, error) {
	n, err := b.Not()
	if err != nil {
		return Bit{}, err
	}
	return b.Xor(n)
}

// NoiseBudget returns the remaining noise budget of the bit in bits.
func (b Bit) NoiseBudget() (int, error) {
	if b.ctx == nil {
		return 0, ErrUnbound
	}
	return b.ctx.scheme.NoiseBudget(b.ct)
}

// Decrypt recovers the plaintext bit. The result is garbage once the noise
// budget is exhausted.
func (b Bit) Decrypt(d he.Decryptor) (bool, error) {
	if b.ctx == nil {
		return false, ErrUnbound
	}
	return d.Decrypt(b.ct)
}

// Refresh decrypts and re-encrypts the bit, resetting its noise budget.
//
// This stands in for bootstrapping and is only meaningful in simulations and
// tests: it requires the secret key, which an evaluating server does not
// hold. Code paths that model the server must never call it.
func (b Bit) Refresh(holder KeyHolder) (Bit, error) {
	if b.ctx == nil {
		return Bit{}, ErrUnbound
	}
	if holder == nil {
		return Bit{}, ErrRefreshUnavailable
	}

	v, err := holder.Decrypt(b.ct)
	if err != nil {
		return Bit{}, fmt.Errorf("refresh: decrypt: %w", err)
	}
	ct, err := holder.Encrypt(v)
	if err != nil {
		return Bit{}, fmt.Errorf("refresh: encrypt: %w", err)
	}
	return b.with(ct), nil
}

// And returns a AND b.
func (a ClearBit) And(b ClearBit) ClearBit { return a && b }

// Or returns a OR b.
func (a ClearBit) Or(b ClearBit) ClearBit { return a || b }

// Xor returns a XOR b.
func (a ClearBit) Xor(b ClearBit) ClearBit { return a != b }

// Not returns NOT a.
func (a ClearBit) Not() ClearBit { return !a }

// Xnor returns NOT(a XOR b).
func (a ClearBit) Xnor(b ClearBit) ClearBit { return a == b }
