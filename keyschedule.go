// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import "fmt"

// RoundKeys is an expanded AES key: Nr+1 encrypted 128-bit round keys.
// Encrypt consumes them in order and Decrypt in reverse.
type RoundKeys []Bitset

// Rounds returns Nr.
func (k RoundKeys) Rounds() int {
	return len(k) - 1
}

func (k RoundKeys) validate(ctx *Context) error {
	switch len(k) {
	case 11, 13, 15:
	default:
		return fmt.Errorf("%w: %d round keys", ErrRoundKeys, len(k))
	}

	for i, rk := range k {
		if rk.ctx == nil {
			return fmt.Errorf("%w: round key %d", ErrUnbound, i)
		}
		if rk.ctx != ctx {
			return fmt.Errorf("%w: round key %d", ErrContextMismatch, i)
		}
		if rk.Width() != BlockBits {
			return fmt.Errorf("%w: round key %d has %d bits", ErrRoundKeys, i, rk.Width())
		}
	}
	return nil
}

// MinNoiseBudget returns the lowest noise budget over all round keys.
func (k RoundKeys) MinNoiseBudget() (int, error) {
	lowest := -1
	for _, rk := range k {
		nb, err := rk.MinNoiseBudget()
		if err != nil {
			return 0, err
		}
		if lowest < 0 || nb < lowest {
			lowest = nb
		}
	}
	return lowest, nil
}

// ExpandKey runs the AES key schedule on an encrypted 128, 192 or 256-bit
// key. With Nk the key length in 32-bit words and Nr = Nk+6, word i >= Nk is
//
//	w[i] = w[i-Nk] XOR SubWord(RotWord(w[i-1])) XOR Rcon[i/Nk]  if i mod Nk = 0
//	w[i] = w[i-Nk] XOR SubWord(w[i-1])                          if Nk = 8 and i mod Nk = 4
//	w[i] = w[i-Nk] XOR w[i-1]                                   otherwise
//
// and round key r is the concatenation of words 4r..4r+3.
func (c *Cipher) ExpandKey(key Bitset) (RoundKeys, error) {
	if key.ctx == nil {
		return nil, ErrUnbound
	}
	if key.ctx != c.ctx {
		return nil, ErrContextMismatch
	}

	nk := key.Width() / 32
	if key.Width()%32 != 0 || (nk != 4 && nk != 6 && nk != 8) {
		return nil, fmt.Errorf("%w: %d bits", ErrKeySize, key.Width())
	}
	nr := nk + 6
	total := 4 * (nr + 1)
	if need := (total - 1) / nk; len(c.rcon) < need {
		return nil, fmt.Errorf("%w: AES-%d needs %d, have %d", ErrRoundConstants, key.Width(), need, len(c.rcon))
	}

	log.Debugf("Expanding AES-%d key into %d round keys", key.Width(), nr+1)

	words, err := key.Split(32)
	if err != nil {
		return nil, err
	}

	for i := nk; i < total; i++ {
		temp := words[i-1]

		switch {
		case i%nk == 0:
			if temp, err = temp.RotateRight(8); err != nil {
				return nil, err
			}
			if temp, err = c.subWord(temp, i); err != nil {
				return nil, err
			}
			rcon := ClearUint64(uint64(c.rcon[i/nk-1]), 32)
			if temp, err = temp.XorClear(rcon); err != nil {
				return nil, err
			}

		case nk > 6 && i%nk == 4:
			if temp, err = c.subWord(temp, i); err != nil {
				return nil, err
			}
		}

		w, err := words[i-nk].Xor(temp)
		if err != nil {
			return nil, fmt.Errorf("word %d: %w", i, err)
		}
		words = append(words, w)
	}

	keys := make(RoundKeys, nr+1)
	for r := range keys {
		if keys[r], err = c.ctx.Join(words[4*r:4*r+4], BlockBits); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// subWord applies the S-box to the four bytes of a word concurrently,
// refreshing the word first when the cipher has a refresher.
func (c *Cipher) subWord(word Bitset, i int) (Bitset, error) {
	if c.refresher != nil {
		if err := word.Refresh(c.refresher); err != nil {
			return Bitset{}, fmt.Errorf("word %d: %w", i, err)
		}
	}

	bytes, err := word.Split(8)
	if err != nil {
		return Bitset{}, err
	}
	err = c.ctx.parallel(len(bytes), func(j int) error {
		out, err := c.sbox.Apply(bytes[j])
		if err != nil {
			return fmt.Errorf("word %d byte %d: %w", i, j, err)
		}
		bytes[j] = out
		return nil
	})
	if err != nil {
		return Bitset{}, err
	}
	return c.ctx.Join(bytes, 32)
}
