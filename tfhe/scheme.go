// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"fmt"
	"sync"

	"github.com/luxfi/lattice/v7/core/rlwe"

	"github.com/luxfi/cryptobit/he"
)

// GateBudget is the noise budget reported for every ciphertext. Gate
// outputs are bootstrapped, so it does not decrease with circuit depth.
const GateBudget = 8

// Ciphertext is an encrypted bit: an LWE sample in the constant
// coefficient of an RLWE ciphertext.
type Ciphertext struct {
	*rlwe.Ciphertext
}

// Degree implements he.Ciphertext. Samples never leave degree 1.
func (ct *Ciphertext) Degree() int {
	return 1
}

// PublicScheme is the evaluating half of a scheme instance. It implements
// he.PublicScheme and is safe for concurrent use.
type PublicScheme struct {
	params Parameters
	bsk    *BootstrapKey
	enc    *Encryptor
	evals  sync.Pool
}

var _ he.PublicScheme = (*PublicScheme)(nil)

// NewPublicScheme creates an evaluating scheme from the public key and the
// bootstrap key.
func NewPublicScheme(params Parameters, pk *PublicKey, bsk *BootstrapKey) *PublicScheme {
	return newPublicScheme(params, NewPublicEncryptor(params, pk), bsk)
}

func newPublicScheme(params Parameters, enc *Encryptor, bsk *BootstrapKey) *PublicScheme {
	s := &PublicScheme{
		params: params,
		bsk:    bsk,
		enc:    enc,
	}
	s.evals.New = func() interface{} {
		return NewEvaluator(params, bsk)
	}
	return s
}

// Scheme is a full scheme instance including the secret key. It implements
// he.Scheme.
type Scheme struct {
	*PublicScheme
	dec *Decryptor
}

var _ he.Scheme = (*Scheme)(nil)

// NewScheme creates a scheme from a secret key, generating its bootstrap
// key.
func NewScheme(params Parameters, sk *SecretKey) *Scheme {
	bsk := NewKeyGenerator(params).GenBootstrapKey(sk)
	return &Scheme{
		PublicScheme: newPublicScheme(params, NewEncryptor(params, sk), bsk),
		dec:          NewDecryptor(params, sk),
	}
}

// Generate creates parameters and a fresh secret key from lit.
func Generate(lit ParametersLiteral) (*Scheme, *SecretKey, error) {
	params, err := NewParametersFromLiteral(lit)
	if err != nil {
		return nil, nil, err
	}
	sk := NewKeyGenerator(params).GenSecretKey()
	return NewScheme(params, sk), sk, nil
}

// Parameters returns the scheme parameters.
func (s *PublicScheme) Parameters() Parameters {
	return s.params
}

// BootstrapKey returns the public evaluation key.
func (s *PublicScheme) BootstrapKey() *BootstrapKey {
	return s.bsk
}

func (s *PublicScheme) withEvaluator(fn func(eval *Evaluator) (*Ciphertext, error)) (he.Ciphertext, error) {
	eval := s.evals.Get().(*Evaluator)
	defer s.evals.Put(eval)

	ct, err := fn(eval)
	if err != nil {
		return nil, err
	}
	return ct, nil
}

func cast(ct he.Ciphertext) (*Ciphertext, error) {
	c, ok := ct.(*Ciphertext)
	if !ok || c == nil || c.Ciphertext == nil {
		return nil, he.ErrForeignCiphertext
	}
	return c, nil
}

func cast2(a, b he.Ciphertext) (*Ciphertext, *Ciphertext, error) {
	ca, err := cast(a)
	if err != nil {
		return nil, nil, err
	}
	cb, err := cast(b)
	if err != nil {
		return nil, nil, err
	}
	return ca, cb, nil
}

// Encrypt implements he.Encryptor.
func (s *PublicScheme) Encrypt(bit bool) (he.Ciphertext, error) {
	return s.enc.Encrypt(bit)
}

// Add implements he.Evaluator as a bootstrapped XOR gate.
func (s *PublicScheme) Add(a, b he.Ciphertext) (he.Ciphertext, error) {
	ca, cb, err := cast2(a, b)
	if err != nil {
		return nil, err
	}
	return s.withEvaluator(func(eval *Evaluator) (*Ciphertext, error) {
		return eval.XOR(ca, cb)
	})
}

// AddPlain implements he.Evaluator. Adding 1 negates the sample.
func (s *PublicScheme) AddPlain(a he.Ciphertext, bit bool) (he.Ciphertext, error) {
	ca, err := cast(a)
	if err != nil {
		return nil, err
	}
	if !bit {
		return ca, nil
	}
	return s.withEvaluator(func(eval *Evaluator) (*Ciphertext, error) {
		return eval.NOT(ca), nil
	})
}

// Multiply implements he.Evaluator as a bootstrapped AND gate.
func (s *PublicScheme) Multiply(a, b he.Ciphertext) (he.Ciphertext, error) {
	ca, cb, err := cast2(a, b)
	if err != nil {
		return nil, err
	}
	return s.withEvaluator(func(eval *Evaluator) (*Ciphertext, error) {
		return eval.AND(ca, cb)
	})
}

// MultiplyPlain implements he.Evaluator. Multiplying by 0 evaluates
// AND(a, NOT a), which needs no encryption key.
func (s *PublicScheme) MultiplyPlain(a he.Ciphertext, bit bool) (he.Ciphertext, error) {
	ca, err := cast(a)
	if err != nil {
		return nil, err
	}
	if bit {
		return ca, nil
	}
	return s.withEvaluator(func(eval *Evaluator) (*Ciphertext, error) {
		return eval.AND(ca, eval.NOT(ca))
	})
}

// Relinearize implements he.Evaluator. Gate outputs are already degree 1.
func (s *PublicScheme) Relinearize(ct he.Ciphertext) (he.Ciphertext, error) {
	c, err := cast(ct)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Rotate implements he.Evaluator. Samples carry a single bit, there are no
// slots to rotate.
func (s *PublicScheme) Rotate(ct he.Ciphertext, k int) (he.Ciphertext, error) {
	if _, err := cast(ct); err != nil {
		return nil, err
	}
	return nil, he.ErrUnsupported
}

// NoiseBudget implements he.Evaluator.
func (s *PublicScheme) NoiseBudget(ct he.Ciphertext) (int, error) {
	if _, err := cast(ct); err != nil {
		return 0, err
	}
	return GateBudget, nil
}

// Bootstrap refreshes ct through the identity gate. Unlike a decrypt and
// re-encrypt refresh it needs no secret key.
func (s *PublicScheme) Bootstrap(ct he.Ciphertext) (he.Ciphertext, error) {
	c, err := cast(ct)
	if err != nil {
		return nil, err
	}
	return s.withEvaluator(func(eval *Evaluator) (*Ciphertext, error) {
		return eval.Refresh(c)
	})
}

// MarshalCiphertext implements he.Codec.
func (s *PublicScheme) MarshalCiphertext(ct he.Ciphertext) ([]byte, error) {
	c, err := cast(ct)
	if err != nil {
		return nil, err
	}
	return c.MarshalBinary()
}

// UnmarshalCiphertext implements he.Codec.
func (s *PublicScheme) UnmarshalCiphertext(data []byte) (he.Ciphertext, error) {
	ct := new(Ciphertext)
	if err := ct.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("unmarshal ciphertext: %w", err)
	}
	if ct.Value == nil || len(ct.Value) != 2 || ct.Value[0].N() != s.params.N() {
		return nil, he.ErrForeignCiphertext
	}
	return ct, nil
}

// Decrypt implements he.Decryptor.
func (s *Scheme) Decrypt(ct he.Ciphertext) (bool, error) {
	c, err := cast(ct)
	if err != nil {
		return false, err
	}
	return s.dec.Decrypt(c), nil
}
