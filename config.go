// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package cryptobit

import (
	"fmt"
	"runtime"
)

// Config holds evaluation settings for a Context.
type Config struct {
	// Workers bounds the number of gates evaluated concurrently within one
	// parallel stage. Zero selects runtime.GOMAXPROCS(0).
	Workers int
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{Workers: runtime.GOMAXPROCS(0)}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers=%d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers == 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
