// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import "fmt"

// AES block geometry. The state is column-major: byte i of the block is row
// i%4 of column i/4, and occupies bits 8i..8i+7.
const (
	BlockBits  = 128
	BlockBytes = BlockBits / 8
)

var (
	mixColumnsMatrix    = [4]byte{0x02, 0x03, 0x01, 0x01}
	invMixColumnsMatrix = [4]byte{0x0e, 0x0b, 0x0d, 0x09}
)

func checkBlock(state Bitset) error {
	if state.ctx == nil {
		return ErrUnbound
	}
	if state.Width() != BlockBits {
		return fmt.Errorf("%w: %d bits", ErrBlockSize, state.Width())
	}
	return nil
}

func blockBytes(state Bitset) ([]Bitset, error) {
	if err := checkBlock(state); err != nil {
		return nil, err
	}
	return state.Split(8)
}

// AddRoundKey XORs a round key into the state.
func AddRoundKey(state, key Bitset) (Bitset, error) {
	if err := checkBlock(state); err != nil {
		return Bitset{}, err
	}
	if key.Width() != BlockBits {
		return Bitset{}, fmt.Errorf("%w: round key of %d bits", ErrRoundKeys, key.Width())
	}
	return state.Xor(key)
}

// SubBytes applies sbox to the 16 bytes of the state concurrently.
func SubBytes(sbox *SBox, state Bitset) (Bitset, error) {
	return substitute(state, sbox.Apply)
}

// InvSubBytes applies the inverse of sbox to the 16 bytes of the state.
func InvSubBytes(sbox *SBox, state Bitset) (Bitset, error) {
	return substitute(state, sbox.Reverse)
}

func substitute(state Bitset, fn func(Bitset) (Bitset, error)) (Bitset, error) {
	bytes, err := blockBytes(state)
	if err != nil {
		return Bitset{}, err
	}

	err = state.ctx.parallel(len(bytes), func(i int) error {
		out, err := fn(bytes[i])
		if err != nil {
			return fmt.Errorf("byte %d: %w", i, err)
		}
		bytes[i] = out
		return nil
	})
	if err != nil {
		return Bitset{}, err
	}
	return state.ctx.Join(bytes, BlockBits)
}

// ShiftRows rotates row r of the state left by r columns.
func ShiftRows(state Bitset) (Bitset, error) {
	return permuteRows(state, 1)
}

// InvShiftRows rotates row r of the state right by r columns.
func InvShiftRows(state Bitset) (Bitset, error) {
	return permuteRows(state, -1)
}

func permuteRows(state Bitset, dir int) (Bitset, error) {
	bytes, err := blockBytes(state)
	if err != nil {
		return Bitset{}, err
	}

	out := make([]Bitset, BlockBytes)
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			src := (c + dir*r + 4) % 4
			out[r+4*c] = bytes[r+4*src]
		}
	}
	return state.ctx.Join(out, BlockBits)
}

// MixColumns multiplies every column of the state by the circulant matrix
// (02 03 01 01) in GF(2^8).
func MixColumns(state Bitset) (Bitset, error) {
	return mixColumns(state, mixColumnsMatrix)
}

// InvMixColumns multiplies every column by (0e 0b 0d 09), the inverse of the
// MixColumns matrix.
func InvMixColumns(state Bitset) (Bitset, error) {
	return mixColumns(state, invMixColumnsMatrix)
}

// mixColumns computes out_r = XOR_j m[(j-r) mod 4]·a_j for every column.
// The coefficients are public, so every product is linear and costs no noise
// budget.
func mixColumns(state Bitset, m [4]byte) (Bitset, error) {
	bytes, err := blockBytes(state)
	if err != nil {
		return Bitset{}, err
	}

	out := make([]Bitset, BlockBytes)
	err = state.ctx.parallel(4, func(c int) error {
		col := bytes[4*c : 4*c+4]

		var prod [4]map[byte]Bitset
		for j := range col {
			prod[j] = make(map[byte]Bitset, len(m))
			for _, k := range m {
				if _, ok := prod[j][k]; ok {
					continue
				}
				p, err := GFMulConst(col[j], k)
				if err != nil {
					return err
				}
				prod[j][k] = p
			}
		}

		for r := 0; r < 4; r++ {
			acc := prod[0][m[(4-r)%4]]
			for j := 1; j < 4; j++ {
				var err error
				if acc, err = acc.Xor(prod[j][m[(j-r+4)%4]]); err != nil {
					return err
				}
			}
			out[r+4*c] = acc
		}
		return nil
	})
	if err != nil {
		return Bitset{}, fmt.Errorf("mix columns: %w", err)
	}
	return state.ctx.Join(out, BlockBits)
}
