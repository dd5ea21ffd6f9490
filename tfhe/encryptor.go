// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"fmt"
	"sync"

	"github.com/luxfi/lattice/v7/core/rlwe"
)

// Encryptor encrypts boolean values into LWE samples. It is safe for
// concurrent use.
type Encryptor struct {
	params Parameters

	mu        sync.Mutex
	encryptor *rlwe.Encryptor
}

// NewEncryptor creates an encryptor from the secret key.
func NewEncryptor(params Parameters, sk *SecretKey) *Encryptor {
	return &Encryptor{
		params:    params,
		encryptor: rlwe.NewEncryptor(params.paramsLWE, sk.SKLWE),
	}
}

// NewPublicEncryptor creates an encryptor from the public key.
func NewPublicEncryptor(params Parameters, pk *PublicKey) *Encryptor {
	return &Encryptor{
		params:    params,
		encryptor: rlwe.NewEncryptor(params.paramsLWE, pk.PKLWE),
	}
}

// Encrypt encrypts a boolean value
func (enc *Encryptor) Encrypt(value bool) (*Ciphertext, error) {
	pt := rlwe.NewPlaintext(enc.params.paramsLWE, enc.params.paramsLWE.MaxLevel())

	// true -> +Q/8, false -> -Q/8, so the sum of two samples stays in
	// (-Q/4, Q/4) and the three cases remain distinguishable.
	q := enc.params.QLWE()
	if value {
		pt.Value.Coeffs[0][0] = q / 8
	} else {
		pt.Value.Coeffs[0][0] = q - (q / 8)
	}

	enc.params.paramsLWE.RingQ().NTT(pt.Value, pt.Value)

	ct := rlwe.NewCiphertext(enc.params.paramsLWE, 1, enc.params.paramsLWE.MaxLevel())

	enc.mu.Lock()
	err := enc.encryptor.Encrypt(pt, ct)
	enc.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("encrypt: %w", err)
	}

	return &Ciphertext{ct}, nil
}
