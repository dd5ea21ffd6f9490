// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import "errors"

// Common errors.
var (
	// ErrWidthMismatch is returned when two bitsets of different widths
	// are combined elementwise.
	ErrWidthMismatch = errors.New("bitset width mismatch")

	// ErrContextMismatch is returned when values bound to different
	// contexts are combined.
	ErrContextMismatch = errors.New("values belong to different contexts")

	// ErrNarrowing is returned when a conversion would drop bits.
	ErrNarrowing = errors.New("narrowing conversion would drop bits")

	// ErrInvalidWidth is returned for non-positive or oversized widths.
	ErrInvalidWidth = errors.New("invalid bitset width")

	// ErrUnbound is returned when a zero Bit or Bitset is used.
	ErrUnbound = errors.New("value is not bound to a context")

	// ErrDuplicateKey is returned when a lookup table maps the same input
	// pattern twice.
	ErrDuplicateKey = errors.New("duplicate lookup table input")

	// ErrEntryRange is returned when a lookup table entry does not fit the
	// table width.
	ErrEntryRange = errors.New("lookup table entry out of range")

	// ErrNotInvertible is returned by Reverse on an S-box with no inverse.
	ErrNotInvertible = errors.New("s-box is not invertible")

	// ErrKeySize is returned for AES keys that are not 128, 192 or 256
	// bits wide.
	ErrKeySize = errors.New("invalid AES key size")

	// ErrBlockSize is returned for AES blocks that are not 128 bits wide.
	ErrBlockSize = errors.New("invalid AES block size")

	// ErrRoundKeys is returned when a round key set has the wrong length
	// or width.
	ErrRoundKeys = errors.New("invalid round key set")

	// ErrRoundConstants is returned when too few round constants are
	// configured for a key size.
	ErrRoundConstants = errors.New("not enough round constants")

	// ErrRefreshUnavailable is returned by operations that need the
	// idealized refresh when no key holder was supplied.
	ErrRefreshUnavailable = errors.New("refresh requires a key holder")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid configuration")
)
