// Package he defines the contract between the encrypted boolean algebra and
// the homomorphic encryption scheme that carries it.
//
// A scheme is consumed as a black box: the algebra only ever encrypts single
// bits, adds and multiplies ciphertexts, relinearizes products and asks for
// the remaining noise budget. Plaintexts are taken modulo 2, so Add is XOR and
// Multiply is AND.
//
// The interfaces are split along the trust boundary. An evaluating party
// holds an Evaluator, an Encryptor (public key) and a Codec. Only the owner of
// the secret key holds a Decryptor.
//
// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause
package he

import "errors"

var (
	// ErrNotRelinearized is returned when an operation that needs a
	// ciphertext in minimal form receives the raw output of a product.
	ErrNotRelinearized = errors.New("ciphertext must be relinearized")

	// ErrUnsupported is returned by backends that do not implement an
	// optional primitive such as slot rotation.
	ErrUnsupported = errors.New("operation not supported by scheme")

	// ErrForeignCiphertext is returned when a ciphertext produced by another
	// backend is passed in.
	ErrForeignCiphertext = errors.New("ciphertext does not belong to scheme")
)

// Ciphertext is an encrypted value owned by a scheme implementation.
// Ciphertexts are immutable: every operation returns a new one.
type Ciphertext interface {
	// Degree is the number of polynomial components minus one. Fresh and
	// relinearized ciphertexts have degree 1, raw products degree 2.
	Degree() int
}

// Encryptor turns plaintext bits into ciphertexts.
type Encryptor interface {
	Encrypt(bit bool) (Ciphertext, error)
}

// Decryptor recovers plaintext bits. Holding one means holding the secret key.
// The result is undefined once the noise budget of ct is exhausted.
type Decryptor interface {
	Decrypt(ct Ciphertext) (bool, error)
}

// Evaluator exposes the homomorphic primitives. Implementations must be safe
// for concurrent use.
type Evaluator interface {
	// Add returns a+b, i.e. XOR of the underlying bits.
	Add(a, b Ciphertext) (Ciphertext, error)
	// AddPlain returns a+bit without encrypting bit.
	AddPlain(a Ciphertext, bit bool) (Ciphertext, error)
	// Multiply returns a·b, i.e. AND of the underlying bits. The result
	// may have a larger degree and must be relinearized before it is fed
	// to another Multiply or Rotate.
	Multiply(a, b Ciphertext) (Ciphertext, error)
	// MultiplyPlain returns a·bit without encrypting bit.
	MultiplyPlain(a Ciphertext, bit bool) (Ciphertext, error)
	// Relinearize restores a ciphertext to degree 1.
	Relinearize(ct Ciphertext) (Ciphertext, error)
	// Rotate cyclically rotates the plaintext slots of ct by k positions.
	Rotate(ct Ciphertext, k int) (Ciphertext, error)
	// NoiseBudget reports the remaining noise budget of ct in bits. Zero
	// means decryption can no longer be trusted.
	NoiseBudget(ct Ciphertext) (int, error)
}

// Codec serializes ciphertexts of one scheme.
type Codec interface {
	MarshalCiphertext(ct Ciphertext) ([]byte, error)
	UnmarshalCiphertext(data []byte) (Ciphertext, error)
}

// PublicScheme is everything an evaluating party without the secret key
// holds.
type PublicScheme interface {
	Evaluator
	Encryptor
	Codec
}

// Scheme is a full scheme instance including the secret key.
type Scheme interface {
	PublicScheme
	Decryptor
}
