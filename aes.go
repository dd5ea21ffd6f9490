// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"errors"
	"fmt"
)

// Stage names reported to an Observer.
const (
	StageAddRoundKey   = "AddRoundKey"
	StageSubBytes      = "SubBytes"
	StageShiftRows     = "ShiftRows"
	StageMixColumns    = "MixColumns"
	StageInvSubBytes   = "InvSubBytes"
	StageInvShiftRows  = "InvShiftRows"
	StageInvMixColumns = "InvMixColumns"
	StageRefresh       = "Refresh"
)

// Observer is called after every stage of Encrypt and Decrypt with the round
// number and the resulting state. It must not retain or mutate state.
type Observer func(stage string, round int, state Bitset)

// Option configures a Cipher.
type Option func(*Cipher)

// WithRoundConstants replaces the key schedule round constants.
func WithRoundConstants(rcon []byte) Option {
	return func(c *Cipher) {
		c.rcon = append([]byte(nil), rcon...)
	}
}

// WithRefresher makes the cipher refresh the state before every SubBytes
// layer and the key schedule before every SubWord. The holder owns the
// secret key; only simulations and tests should set it.
func WithRefresher(holder KeyHolder) Option {
	return func(c *Cipher) {
		c.refresher = holder
	}
}

// WithObserver installs a stage hook.
func WithObserver(obs Observer) Option {
	return func(c *Cipher) {
		c.observer = obs
	}
}

// Cipher evaluates AES-128/192/256 homomorphically. A Cipher is immutable
// and safe for concurrent use.
type Cipher struct {
	ctx       *Context
	sbox      *SBox
	rcon      []byte
	refresher KeyHolder
	observer  Observer
}

// NewCipher creates an AES evaluator over ctx. sbox must be an 8-bit S-box
// computing the AES substitution; decryption additionally needs its inverse.
func NewCipher(ctx *Context, sbox *SBox, opts ...Option) (*Cipher, error) {
	if ctx == nil {
		return nil, ErrUnbound
	}
	if sbox == nil || sbox.Width() != 8 {
		return nil, fmt.Errorf("%w: AES needs an 8-bit s-box", ErrInvalidConfig)
	}

	c := &Cipher{
		ctx:  ctx,
		sbox: sbox,
		rcon: RoundConstants,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SBox returns the S-box used by the cipher.
func (c *Cipher) SBox() *SBox {
	return c.sbox
}

// SubBytes applies the cipher's S-box to every byte of state.
func (c *Cipher) SubBytes(state Bitset) (Bitset, error) {
	return SubBytes(c.sbox, state)
}

// InvSubBytes applies the inverse S-box to every byte of state.
func (c *Cipher) InvSubBytes(state Bitset) (Bitset, error) {
	return InvSubBytes(c.sbox, state)
}

func (c *Cipher) observe(stage string, round int, state Bitset) {
	if c.observer != nil {
		c.observer(stage, round, state)
	}
}

func (c *Cipher) checkInputs(block Bitset, keys RoundKeys) error {
	if err := checkBlock(block); err != nil {
		return err
	}
	if block.ctx != c.ctx {
		return ErrContextMismatch
	}
	return keys.validate(c.ctx)
}

// refresh is a no-op without a refresher.
func (c *Cipher) refresh(state *Bitset, round int) error {
	if c.refresher == nil {
		return nil
	}
	if err := state.Refresh(c.refresher); err != nil {
		return fmt.Errorf("round %d: %w", round, err)
	}
	c.observe(StageRefresh, round, *state)
	return nil
}

// stageFunc is one state transformation of a round.
type stageFunc struct {
	name string
	fn   func(Bitset) (Bitset, error)
}

func (c *Cipher) run(state Bitset, round int, stages ...stageFunc) (Bitset, error) {
	for _, st := range stages {
		next, err := st.fn(state)
		if err != nil {
			return Bitset{}, fmt.Errorf("round %d: %s: %w", round, st.name, err)
		}
		state = next
		c.observe(st.name, round, state)
	}
	return state, nil
}

func addKey(key Bitset) stageFunc {
	return stageFunc{StageAddRoundKey, func(s Bitset) (Bitset, error) {
		return AddRoundKey(s, key)
	}}
}

// Encrypt runs the AES encryption of block under the expanded keys. No
// intermediate value is ever decrypted. Without a refresher the caller must
// size the scheme for the whole circuit depth.
func (c *Cipher) Encrypt(block Bitset, keys RoundKeys) (Bitset, error) {
	if err := c.checkInputs(block, keys); err != nil {
		return Bitset{}, err
	}

	nr := keys.Rounds()
	log.Debugf("Encrypting block: rounds=%d sbox=%v refresh=%v", nr, c.sbox.Kind(), c.refresher != nil)

	state, err := c.run(block, 0, addKey(keys[0]))
	if err != nil {
		return Bitset{}, err
	}

	subBytes := stageFunc{StageSubBytes, c.SubBytes}
	shiftRows := stageFunc{StageShiftRows, ShiftRows}
	mixColumns := stageFunc{StageMixColumns, MixColumns}

	for round := 1; round <= nr; round++ {
		if err := c.refresh(&state, round); err != nil {
			return Bitset{}, err
		}

		if round < nr {
			state, err = c.run(state, round, subBytes, shiftRows, mixColumns, addKey(keys[round]))
		} else {
			state, err = c.run(state, round, subBytes, shiftRows, addKey(keys[round]))
		}
		if err != nil {
			return Bitset{}, err
		}
		log.Tracef("Encryption round %d/%d done", round, nr)
	}

	return state, nil
}

// Decrypt runs the AES decryption of block under the expanded keys, applying
// the inverse round functions in reverse order.
func (c *Cipher) Decrypt(block Bitset, keys RoundKeys) (Bitset, error) {
	if err := c.checkInputs(block, keys); err != nil {
		return Bitset{}, err
	}
	if !c.sbox.Invertible() {
		return Bitset{}, ErrNotInvertible
	}

	nr := keys.Rounds()
	log.Debugf("Decrypting block: rounds=%d sbox=%v refresh=%v", nr, c.sbox.Kind(), c.refresher != nil)

	state, err := c.run(block, nr, addKey(keys[nr]))
	if err != nil {
		return Bitset{}, err
	}

	invShiftRows := stageFunc{StageInvShiftRows, InvShiftRows}
	invSubBytes := stageFunc{StageInvSubBytes, c.InvSubBytes}
	invMixColumns := stageFunc{StageInvMixColumns, InvMixColumns}

	for round := nr - 1; round >= 0; round-- {
		state, err = c.run(state, round, invShiftRows)
		if err != nil {
			return Bitset{}, err
		}
		if err := c.refresh(&state, round); err != nil {
			return Bitset{}, err
		}

		if round > 0 {
			state, err = c.run(state, round, invSubBytes, addKey(keys[round]), invMixColumns)
		} else {
			state, err = c.run(state, round, invSubBytes, addKey(keys[round]))
		}
		if err != nil {
			return Bitset{}, err
		}
		log.Tracef("Decryption round %d/%d done", nr-round, nr)
	}

	return state, nil
}

// KeySwitch turns an AES encryption under k0 into an AES encryption of the
// same plaintext under k1: it decrypts block under k0, refreshes the
// recovered plaintext with holder and encrypts it under k1. Both keys stay
// encrypted throughout.
func (c *Cipher) KeySwitch(block, k0, k1 Bitset, holder KeyHolder) (Bitset, error) {
	if holder == nil {
		return Bitset{}, ErrRefreshUnavailable
	}

	keys0, err := c.ExpandKey(k0)
	if err != nil {
		return Bitset{}, fmt.Errorf("expand source key: %w", err)
	}
	keys1, err := c.ExpandKey(k1)
	if err != nil {
		return Bitset{}, fmt.Errorf("expand target key: %w", err)
	}

	plain, err := c.Decrypt(block, keys0)
	if err != nil {
		return Bitset{}, fmt.Errorf("decrypt under source key: %w", err)
	}

	log.Debugf("Key switch: refreshing intermediate plaintext")
	if err := plain.Refresh(holder); err != nil {
		return Bitset{}, err
	}

	out, err := c.Encrypt(plain, keys1)
	if err != nil {
		return Bitset{}, fmt.Errorf("encrypt under target key: %w", err)
	}
	return out, nil
}

// IsInputError reports whether err was caused by a malformed block, key or
// round key set rather than by the underlying scheme.
func IsInputError(err error) bool {
	return errors.Is(err, ErrBlockSize) || errors.Is(err, ErrKeySize) ||
		errors.Is(err, ErrRoundKeys) || errors.Is(err, ErrRoundConstants) ||
		errors.Is(err, ErrContextMismatch) || errors.Is(err, ErrUnbound)
}
