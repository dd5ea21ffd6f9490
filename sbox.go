// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import "fmt"

// SBoxKind selects how an S-box is evaluated.
type SBoxKind int

const (
	// SBoxLUT evaluates a lookup table by encrypted equality tests.
	SBoxLUT SBoxKind = iota

	// SBoxCircuit evaluates a fixed boolean circuit.
	SBoxCircuit
)

// String implements fmt.Stringer.
func (k SBoxKind) String() string {
	switch k {
	case SBoxLUT:
		return "lut"
	case SBoxCircuit:
		return "circuit"
	default:
		return fmt.Sprintf("SBoxKind(%d)", int(k))
	}
}

// LUTEntry maps one input pattern to one output pattern.
type LUTEntry struct {
	In  uint64
	Out uint64
}

// CircuitFunc evaluates an S-box direction as a circuit over an encrypted
// input of the S-box width.
type CircuitFunc func(in Bitset) (Bitset, error)

// maxLUTWidth bounds lookup tables to 2^16 entries.
const maxLUTWidth = 16

// SBox is a substitution box over encrypted bitsets of a fixed width.
type SBox struct {
	kind  SBoxKind
	width int

	entries    []LUTEntry
	exhaustive bool
	invertible bool

	forward CircuitFunc
	inverse CircuitFunc
}

// NewLUTSBox builds a lookup-table S-box. Inputs must be pairwise distinct.
// A table that does not cover every input is accepted; unmatched inputs
// evaluate to 0 and Exhaustive reports false. Reverse is available only
// when the table is a bijection on its width.
func NewLUTSBox(width int, entries []LUTEntry) (*SBox, error) {
	if width <= 0 || width > maxLUTWidth {
		return nil, fmt.Errorf("%w: lookup table width %d", ErrInvalidWidth, width)
	}

	limit := uint64(1) << width
	seenIn := make(map[uint64]struct{}, len(entries))
	seenOut := make(map[uint64]struct{}, len(entries))
	for _, e := range entries {
		if e.In >= limit || e.Out >= limit {
			return nil, fmt.Errorf("%w: %#x -> %#x at width %d", ErrEntryRange, e.In, e.Out, width)
		}
		if _, ok := seenIn[e.In]; ok {
			return nil, fmt.Errorf("%w: %#x", ErrDuplicateKey, e.In)
		}
		seenIn[e.In] = struct{}{}
		seenOut[e.Out] = struct{}{}
	}

	exhaustive := uint64(len(entries)) == limit
	return &SBox{
		kind:       SBoxLUT,
		width:      width,
		entries:    append([]LUTEntry(nil), entries...),
		exhaustive: exhaustive,
		invertible: exhaustive && len(seenOut) == len(entries),
	}, nil
}

// NewCircuitSBox builds a circuit S-box. inverse may be nil, in which case
// Reverse fails with ErrNotInvertible.
func NewCircuitSBox(width int, forward, inverse CircuitFunc) (*SBox, error) {
	if width <= 0 {
		return nil, fmt.Errorf("%w: s-box width %d", ErrInvalidWidth, width)
	}
	if forward == nil {
		return nil, fmt.Errorf("%w: nil forward circuit", ErrInvalidConfig)
	}

	return &SBox{
		kind:       SBoxCircuit,
		width:      width,
		exhaustive: true,
		invertible: inverse != nil,
		forward:    forward,
		inverse:    inverse,
	}, nil
}

// AESLUTSBox returns the AES S-box as a 256-entry lookup table.
func AESLUTSBox() *SBox {
	entries := make([]LUTEntry, len(SBoxTable))
	for i, v := range SBoxTable {
		entries[i] = LUTEntry{In: uint64(i), Out: uint64(v)}
	}

	s, err := NewLUTSBox(8, entries)
	if err != nil {
		panic(err)
	}
	return s
}

// AESCircuitSBox returns the AES S-box evaluated by the Boyar-Peralta
// circuit.
func AESCircuitSBox() *SBox {
	s, err := NewCircuitSBox(8, aesSBoxCircuit, aesInvSBoxCircuit)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind returns the evaluation strategy.
func (s *SBox) Kind() SBoxKind {
	return s.kind
}

// Width returns the input and output width in bits.
func (s *SBox) Width() int {
	return s.width
}

// Exhaustive reports whether every input has a defined output.
func (s *SBox) Exhaustive() bool {
	return s.exhaustive
}

// Invertible reports whether Reverse is available.
func (s *SBox) Invertible() bool {
	return s.invertible
}

func (s *SBox) checkInput(in Bitset) error {
	if in.ctx == nil {
		return ErrUnbound
	}
	if in.Width() != s.width {
		return fmt.Errorf("%w: s-box input of width %d, want %d", ErrWidthMismatch, in.Width(), s.width)
	}
	return nil
}

// Apply substitutes in.
func (s *SBox) Apply(in Bitset) (Bitset, error) {
	if err := s.checkInput(in); err != nil {
		return Bitset{}, err
	}

	if s.kind == SBoxCircuit {
		return s.forward(in)
	}
	return s.lookup(in, false)
}

// Reverse applies the inverse substitution.
func (s *SBox) Reverse(in Bitset) (Bitset, error) {
	if err := s.checkInput(in); err != nil {
		return Bitset{}, err
	}
	if !s.invertible {
		return Bitset{}, ErrNotInvertible
	}

	if s.kind == SBoxCircuit {
		return s.inverse(in)
	}
	return s.lookup(in, true)
}

// lookup computes XOR over entries of Broadcast(in == key) AND value. At most
// one entry matches, so the XOR selects its value. Entries whose value is 0
// contribute nothing and are skipped.
func (s *SBox) lookup(in Bitset, reverse bool) (Bitset, error) {
	type pair struct{ key, value ClearBitset }

	pairs := make([]pair, 0, len(s.entries))
	for _, e := range s.entries {
		key, value := e.In, e.Out
		if reverse {
			key, value = value, key
		}
		if value == 0 {
			continue
		}
		pairs = append(pairs, pair{
			key:   ClearUint64(key, s.width),
			value: ClearUint64(value, s.width),
		})
	}

	terms := make([]Bitset, len(pairs))
	err := in.ctx.parallel(len(pairs), func(i int) error {
		match, err := in.Matches(pairs[i].key)
		if err != nil {
			return err
		}
		mask, err := in.ctx.Broadcast(match, s.width)
		if err != nil {
			return err
		}
		terms[i], err = mask.AndClear(pairs[i].value)
		return err
	})
	if err != nil {
		return Bitset{}, fmt.Errorf("s-box lookup: %w", err)
	}

	out, err := in.ctx.ZeroBitset(s.width)
	if err != nil {
		return Bitset{}, err
	}
	for _, t := range terms {
		if out, err = out.Xor(t); err != nil {
			return Bitset{}, fmt.Errorf("s-box lookup: %w", err)
		}
	}
	return out, nil
}
