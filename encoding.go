// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedBitset is returned when decoding a corrupt bitset encoding.
var ErrMalformedBitset = errors.New("malformed bitset encoding")

const bitsetEncodingVersion = 1

// maxEncodedWidth bounds the width accepted by UnmarshalBitset.
const maxEncodedWidth = 1 << 16

// MarshalBitset serializes s with the codec of its scheme. The layout is a
// version byte, the width as a uint32, then one uint32 length-prefixed
// ciphertext per bit, least significant bit first.
func MarshalBitset(s Bitset) ([]byte, error) {
	if s.ctx == nil {
		return nil, ErrUnbound
	}

	var buf bytes.Buffer
	buf.WriteByte(bitsetEncodingVersion)
	if err := binary.Write(&buf, binary.LittleEndian, uint32(len(s.bits))); err != nil {
		return nil, err
	}

	for i, b := range s.bits {
		data, err := s.ctx.scheme.MarshalCiphertext(b.ct)
		if err != nil {
			return nil, fmt.Errorf("bit %d: %w", i, err)
		}
		if err := binary.Write(&buf, binary.LittleEndian, uint32(len(data))); err != nil {
			return nil, err
		}
		buf.Write(data)
	}

	return buf.Bytes(), nil
}

// UnmarshalBitset decodes a bitset produced by MarshalBitset and binds it to
// the context.
func (c *Context) UnmarshalBitset(data []byte) (Bitset, error) {
	r := bytes.NewReader(data)

	version, err := r.ReadByte()
	if err != nil {
		return Bitset{}, fmt.Errorf("%w: %v", ErrMalformedBitset, err)
	}
	if version != bitsetEncodingVersion {
		return Bitset{}, fmt.Errorf("%w: version %d", ErrMalformedBitset, version)
	}

	var width uint32
	if err := binary.Read(r, binary.LittleEndian, &width); err != nil {
		return Bitset{}, fmt.Errorf("%w: width: %v", ErrMalformedBitset, err)
	}
	if width == 0 || width > maxEncodedWidth {
		return Bitset{}, fmt.Errorf("%w: width %d", ErrMalformedBitset, width)
	}

	bits := make([]Bit, width)
	for i := range bits {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return Bitset{}, fmt.Errorf("%w: bit %d: %v", ErrMalformedBitset, i, err)
		}
		if int64(n) > int64(r.Len()) {
			return Bitset{}, fmt.Errorf("%w: bit %d: length %d", ErrMalformedBitset, i, n)
		}

		payload := make([]byte, n)
		if _, err := io.ReadFull(r, payload); err != nil {
			return Bitset{}, fmt.Errorf("%w: bit %d: %v", ErrMalformedBitset, i, err)
		}

		ct, err := c.scheme.UnmarshalCiphertext(payload)
		if err != nil {
			return Bitset{}, fmt.Errorf("bit %d: %w", i, err)
		}
		bits[i] = c.Wrap(ct)
	}

	if r.Len() != 0 {
		return Bitset{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedBitset, r.Len())
	}
	return Bitset{ctx: c, bits: bits}, nil
}
