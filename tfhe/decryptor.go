// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"sync"

	"github.com/luxfi/lattice/v7/core/rlwe"
	"github.com/luxfi/lattice/v7/ring"
)

// Decryptor decrypts LWE samples to boolean values. It is safe for
// concurrent use.
type Decryptor struct {
	params Parameters
	ringQ  *ring.Ring

	mu        sync.Mutex
	decryptor *rlwe.Decryptor
}

// NewDecryptor creates a new decryptor from secret key
func NewDecryptor(params Parameters, sk *SecretKey) *Decryptor {
	return &Decryptor{
		params:    params,
		decryptor: rlwe.NewDecryptor(params.paramsLWE, sk.SKLWE),
		ringQ:     params.paramsLWE.RingQ(),
	}
}

// Decrypt decrypts a ciphertext to a boolean
func (dec *Decryptor) Decrypt(ct *Ciphertext) bool {
	pt := rlwe.NewPlaintext(dec.params.paramsLWE, ct.Level())

	dec.mu.Lock()
	dec.decryptor.Decrypt(ct.Ciphertext, pt)
	dec.mu.Unlock()

	if pt.IsNTT {
		dec.ringQ.INTT(pt.Value, pt.Value)
	}

	// true was encoded as Q/8 and false as 7Q/8.
	return pt.Value.Coeffs[0][0] < dec.params.QLWE()>>1
}
