// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"github.com/luxfi/lattice/v7/core/rgsw/blindrot"
	"github.com/luxfi/lattice/v7/core/rlwe"
	"github.com/luxfi/lattice/v7/ring"
)

// SecretKey contains the LWE and RLWE secret keys. With a shared ring both
// fields hold the same key.
type SecretKey struct {
	// SKLWE encrypts bits
	SKLWE *rlwe.SecretKey
	// SKBR is the key of blind rotation results
	SKBR *rlwe.SecretKey
}

// PublicKey lets an evaluating party encrypt bits without the secret key.
type PublicKey struct {
	PKLWE *rlwe.PublicKey
}

// BootstrapKey contains everything gate evaluation needs. It holds no
// secret material.
type BootstrapKey struct {
	// BRK is the blind rotation key (RGSW encryptions of LWE secret key bits)
	BRK blindrot.BlindRotationEvaluationKeySet
	// TestPolyAND maps the sum of two samples to their conjunction
	TestPolyAND *ring.Poly
	// TestPolyXOR maps twice the sum of two samples to their exclusive or
	TestPolyXOR *ring.Poly
	// TestPolyID maps a sample to itself with fresh noise
	TestPolyID *ring.Poly

	params Parameters
}

// KeyGenerator generates scheme keys
type KeyGenerator struct {
	params  Parameters
	kgen    *rlwe.KeyGenerator
	ringQBR *ring.Ring
	scaleBR float64
}

// NewKeyGenerator creates a new key generator
func NewKeyGenerator(params Parameters) *KeyGenerator {
	return &KeyGenerator{
		params:  params,
		kgen:    rlwe.NewKeyGenerator(params.paramsBR),
		ringQBR: params.paramsBR.RingQ(),
		scaleBR: float64(params.QBR()) / 8.0, // [-1, 1] -> [-Q/8, Q/8]
	}
}

// GenSecretKey generates a new secret key
func (kg *KeyGenerator) GenSecretKey() *SecretKey {
	sk := kg.kgen.GenSecretKeyNew()
	return &SecretKey{
		SKLWE: sk,
		SKBR:  sk,
	}
}

// GenPublicKey generates a public key from a secret key
func (kg *KeyGenerator) GenPublicKey(sk *SecretKey) *PublicKey {
	return &PublicKey{
		PKLWE: kg.kgen.GenPublicKeyNew(sk.SKLWE),
	}
}

// GenKeyPair generates both a secret key and corresponding public key
func (kg *KeyGenerator) GenKeyPair() (*SecretKey, *PublicKey) {
	sk := kg.GenSecretKey()
	return sk, kg.GenPublicKey(sk)
}

// GenBootstrapKey generates the blind rotation key and the gate test
// polynomials.
func (kg *KeyGenerator) GenBootstrapKey(sk *SecretKey) *BootstrapKey {
	brk := blindrot.GenEvaluationKeyNew(kg.params.paramsBR, sk.SKBR, kg.params.paramsLWE, sk.SKLWE, kg.params.evkParams)

	scale := rlwe.NewScale(kg.scaleBR)

	// With Q/8 encoding the normalized sum of two samples is
	// -0.25 (F,F), 0 (T,F) and 0.25 (T,T).
	testPolyAND := blindrot.InitTestPolynomial(func(x float64) float64 {
		if x >= 0.25 {
			return 1.0
		}
		return -1.0
	}, scale, kg.ringQBR, -1, 1)

	// XOR bootstraps 2*(a+b): (T,T) wraps around to -0.5 like (F,F).
	// The 0.30 bounds leave margin for noise in long XOR chains.
	testPolyXOR := blindrot.InitTestPolynomial(func(x float64) float64 {
		if x > -0.30 && x < 0.30 {
			return 1.0
		}
		return -1.0
	}, scale, kg.ringQBR, -1, 1)

	testPolyID := blindrot.InitTestPolynomial(func(x float64) float64 {
		if x >= 0 {
			return 1.0
		}
		return -1.0
	}, scale, kg.ringQBR, -1, 1)

	return &BootstrapKey{
		BRK:         brk,
		TestPolyAND: &testPolyAND,
		TestPolyXOR: &testPolyXOR,
		TestPolyID:  &testPolyID,
		params:      kg.params,
	}
}
