// Package cryptobit implements an encrypted boolean algebra and a bit-sliced
// AES circuit on top of a leveled homomorphic encryption scheme.
//
// The scheme is consumed through the he package contract: plaintexts live in
// Z_2, so ciphertext addition is XOR and ciphertext multiplication is AND.
// Everything else is built from those two primitives:
//   - Bit and Bitset provide AND/OR/XOR/NOT/XNOR, select, shifts, rotations,
//     split and join over encrypted values
//   - GFMul evaluates multiplication in GF(2^8) as a branch-free circuit
//   - SBox evaluates a substitution box by encrypted lookup or by circuit
//   - Cipher runs the AES key schedule, encryption and decryption without
//     ever decrypting an intermediate value
//
// Every ciphertext product consumes noise budget. Exhausting it is not
// reported as an error: decryption silently returns wrong bits. Callers bound
// circuit depth against their parameters and watch MinNoiseBudget.
//
// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause
package cryptobit

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/luxfi/cryptobit/he"
)

// Context binds encrypted values to a scheme. It is read-only after
// construction and safe to share between goroutines; every Bit and Bitset
// derived from it keeps a reference to it.
type Context struct {
	scheme  he.PublicScheme
	workers int
	zero    he.Ciphertext
}

// NewContext creates a context over the public half of a scheme.
func NewContext(scheme he.PublicScheme, cfg Config) (*Context, error) {
	if scheme == nil {
		return nil, fmt.Errorf("%w: nil scheme", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	zero, err := scheme.Encrypt(false)
	if err != nil {
		return nil, fmt.Errorf("encrypt zero constant: %w", err)
	}

	return &Context{
		scheme:  scheme,
		workers: cfg.workers(),
		zero:    zero,
	}, nil
}

// Scheme returns the scheme the context evaluates on.
func (c *Context) Scheme() he.PublicScheme {
	return c.scheme
}

// Workers returns the bound on concurrently evaluated gates.
func (c *Context) Workers() int {
	return c.workers
}

// Encrypt encrypts a single bit.
func (c *Context) Encrypt(v bool) (Bit, error) {
	ct, err := c.scheme.Encrypt(v)
	if err != nil {
		return Bit{}, fmt.Errorf("encrypt: %w", err)
	}
	return Bit{ctx: c, ct: ct}, nil
}

// Zero returns the shared encryption of 0 used for padding.
func (c *Context) Zero() Bit {
	return Bit{ctx: c, ct: c.zero}
}

// Wrap binds an existing ciphertext of the context's scheme to the context.
func (c *Context) Wrap(ct he.Ciphertext) Bit {
	return Bit{ctx: c, ct: ct}
}

// parallel runs fn for every index in [0, n) on at most c.workers
// goroutines and returns the first error. All calls have returned when
// parallel returns.
func (c *Context) parallel(n int, fn func(i int) error) error {
	if n <= 1 || c.workers <= 1 {
		for i := 0; i < n; i++ {
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	var eg errgroup.Group
	eg.SetLimit(c.workers)
	for i := 0; i < n; i++ {
		eg.Go(func() error {
			return fn(i)
		})
	}
	return eg.Wait()
}
