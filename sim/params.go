// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package sim

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters is returned for parameter literals that cannot
// describe a usable scheme.
var ErrInvalidParameters = errors.New("invalid simulator parameters")

// ParametersLiteral is a user-friendly parameter specification
type ParametersLiteral struct {
	// LogSlots is log2 of the number of plaintext slots per ciphertext
	LogSlots int
	// FreshBudget is the noise budget, in bits, of a fresh encryption
	FreshBudget int
	// MulCost is the budget consumed by a ciphertext-ciphertext product
	MulCost int
	// PlainMulCost is the budget consumed by a ciphertext-plaintext product
	PlainMulCost int
	// Seed selects the garbage stream returned by exhausted ciphertexts
	Seed uint64
}

// Standard parameter sets
var (
	// Default mirrors the budget of a degree 2^13 BFV instance with t=2:
	// about seven sequential products fit in a fresh ciphertext, which is
	// enough for one AES round when the state is refreshed between rounds.
	Default = ParametersLiteral{
		LogSlots:     4,
		FreshBudget:  180,
		MulCost:      25,
		PlainMulCost: 1,
	}

	// Deep carries enough budget for a full AES-256 encryption followed
	// by its decryption with no refresh at all.
	Deep = ParametersLiteral{
		LogSlots:     4,
		FreshBudget:  8192,
		MulCost:      25,
		PlainMulCost: 1,
	}
)

// Parameters is a validated parameter set.
type Parameters struct {
	slots        int
	freshBudget  int
	mulCost      int
	plainMulCost int
	seed         uint64
}

// NewParametersFromLiteral creates Parameters from a literal specification
func NewParametersFromLiteral(lit ParametersLiteral) (Parameters, error) {
	switch {
	case lit.LogSlots < 0 || lit.LogSlots > 16:
		return Parameters{}, fmt.Errorf("%w: LogSlots=%d", ErrInvalidParameters, lit.LogSlots)
	case lit.FreshBudget <= 0:
		return Parameters{}, fmt.Errorf("%w: FreshBudget=%d", ErrInvalidParameters, lit.FreshBudget)
	case lit.MulCost < 0 || lit.PlainMulCost < 0:
		return Parameters{}, fmt.Errorf("%w: negative cost", ErrInvalidParameters)
	}

	return Parameters{
		slots:        1 << lit.LogSlots,
		freshBudget:  lit.FreshBudget,
		mulCost:      lit.MulCost,
		plainMulCost: lit.PlainMulCost,
		seed:         lit.Seed,
	}, nil
}

// Slots returns the number of plaintext slots
func (p Parameters) Slots() int {
	return p.slots
}

// FreshBudget returns the budget of a fresh ciphertext
func (p Parameters) FreshBudget() int {
	return p.freshBudget
}

// MulCost returns the budget consumed by one ciphertext product
func (p Parameters) MulCost() int {
	return p.mulCost
}

// MaxDepth returns the number of sequential products a fresh ciphertext
// survives with a positive budget.
func (p Parameters) MaxDepth() int {
	if p.mulCost == 0 {
		return -1
	}
	return (p.freshBudget - 1) / p.mulCost
}
