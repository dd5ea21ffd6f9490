// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"fmt"

	"github.com/luxfi/lattice/v7/core/rgsw/blindrot"
	"github.com/luxfi/lattice/v7/core/rlwe"
	"github.com/luxfi/lattice/v7/ring"
)

// Evaluator evaluates boolean gates on encrypted bits. It does not require
// the secret key. An Evaluator keeps scratch buffers and must not be shared
// between goroutines; Scheme pools them.
type Evaluator struct {
	params   Parameters
	eval     *blindrot.Evaluator
	bsk      *BootstrapKey
	ringQLWE *ring.Ring
}

// NewEvaluator creates a new evaluator with bootstrap key.
func NewEvaluator(params Parameters, bsk *BootstrapKey) *Evaluator {
	return &Evaluator{
		params:   params,
		eval:     blindrot.NewEvaluator(params.paramsBR, params.paramsLWE),
		bsk:      bsk,
		ringQLWE: params.paramsLWE.RingQ(),
	}
}

// bootstrap performs programmable bootstrapping with the given test
// polynomial. LWE and blind rotation share their ring, so the rotated sample
// is already a valid LWE sample under the same key.
func (eval *Evaluator) bootstrap(ct *Ciphertext, testPoly *ring.Poly) (*Ciphertext, error) {
	results, err := eval.eval.Evaluate(ct.Ciphertext, map[int]*ring.Poly{0: testPoly}, eval.bsk.BRK)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	ctBR, ok := results[0]
	if !ok {
		return nil, fmt.Errorf("bootstrap: no result for slot 0")
	}

	return &Ciphertext{ctBR.CopyNew()}, nil
}

func (eval *Evaluator) add(ct1, ct2 *Ciphertext) *Ciphertext {
	result := rlwe.NewCiphertext(eval.params.paramsLWE, 1, ct1.Level())

	eval.ringQLWE.Add(ct1.Value[0], ct2.Value[0], result.Value[0])
	eval.ringQLWE.Add(ct1.Value[1], ct2.Value[1], result.Value[1])
	result.IsNTT = ct1.IsNTT

	return &Ciphertext{result}
}

func (eval *Evaluator) double(ct *Ciphertext) *Ciphertext {
	return eval.add(ct, ct)
}

// NOT negates the sample. No bootstrap is needed.
func (eval *Evaluator) NOT(ct *Ciphertext) *Ciphertext {
	result := rlwe.NewCiphertext(eval.params.paramsLWE, 1, ct.Level())

	eval.ringQLWE.Neg(ct.Value[0], result.Value[0])
	eval.ringQLWE.Neg(ct.Value[1], result.Value[1])
	result.IsNTT = ct.IsNTT

	return &Ciphertext{result}
}

// AND computes the logical AND of two inputs
func (eval *Evaluator) AND(ct1, ct2 *Ciphertext) (*Ciphertext, error) {
	return eval.bootstrap(eval.add(ct1, ct2), eval.bsk.TestPolyAND)
}

// XOR computes the logical XOR of two inputs with a single bootstrap of
// 2*(ct1+ct2).
func (eval *Evaluator) XOR(ct1, ct2 *Ciphertext) (*Ciphertext, error) {
	return eval.bootstrap(eval.double(eval.add(ct1, ct2)), eval.bsk.TestPolyXOR)
}

// Refresh bootstraps a ciphertext through the identity to reset its noise.
func (eval *Evaluator) Refresh(ct *Ciphertext) (*Ciphertext, error) {
	return eval.bootstrap(ct, eval.bsk.TestPolyID)
}
