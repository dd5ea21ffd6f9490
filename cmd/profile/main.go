// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Command profile measures gate, GF(2^8), S-box, round and block latencies
// on a backend.
//
// Usage:
//
//	go build -o profile ./cmd/profile
//	./profile --backend=sim --op=all --iterations=50 --cpu=cpu.prof
//	./profile --backend=tfhe --op=gates --iterations=20
//
// Analyze profiles:
//
//	go tool pprof -http=:8080 cpu.prof
package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/jessevdk/go-flags"

	"github.com/luxfi/cryptobit"
	"github.com/luxfi/cryptobit/he"
	"github.com/luxfi/cryptobit/internal/backend"
	"github.com/luxfi/cryptobit/internal/logging"
)

type config struct {
	Backend      string `long:"backend" default:"sim" choice:"sim" choice:"tfhe" description:"homomorphic scheme"`
	Preset       string `long:"preset" description:"parameter preset of the backend"`
	Op           string `long:"op" default:"all" choice:"all" choice:"gates" choice:"gf" choice:"sbox" choice:"round" choice:"aes" description:"operation to profile"`
	Iterations   int    `long:"iterations" default:"20" description:"iterations per operation"`
	Workers      int    `long:"workers" default:"0" description:"gates evaluated concurrently (0 = GOMAXPROCS)"`
	CPUProfile   string `long:"cpu" description:"write cpu profile to file"`
	MemProfile   string `long:"mem" description:"write memory profile to file"`
	MutexProfile string `long:"mutex" description:"write mutex profile to file"`
	LogLevel     string `long:"loglevel" default:"warn" description:"log level, or SUBSYSTEM=level pairs"`
}

type bench struct {
	scheme he.Scheme
	ctx    *cryptobit.Context
	n      int
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if _, err := flags.Parse(&cfg); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}
	if cfg.Iterations < 1 {
		return fmt.Errorf("iterations must be positive")
	}

	if _, err := logging.Setup(os.Stdout, cfg.LogLevel); err != nil {
		return err
	}

	p := newProfiler(profileConfig{
		CPUProfile:   cfg.CPUProfile,
		MemProfile:   cfg.MemProfile,
		MutexProfile: cfg.MutexProfile,
	})
	if err := p.start(); err != nil {
		return err
	}
	defer p.stop()

	scheme, err := backend.Open(backend.Config{Name: cfg.Backend, Preset: cfg.Preset})
	if err != nil {
		return err
	}
	ctx, err := cryptobit.NewContext(scheme, cryptobit.Config{Workers: cfg.Workers})
	if err != nil {
		return err
	}
	b := &bench{scheme: scheme, ctx: ctx, n: cfg.Iterations}

	fmt.Printf("Backend %s, %d iterations of %q, GOMAXPROCS %d, workers %d\n",
		cfg.Backend, cfg.Iterations, cfg.Op, runtime.GOMAXPROCS(0), ctx.Workers())

	ops := map[string]func() error{
		"gates": b.gates,
		"gf":    b.gf,
		"sbox":  b.sbox,
		"round": b.round,
		"aes":   b.aes,
	}
	order := []string{"gates", "gf", "sbox", "round", "aes"}
	if cfg.Op != "all" {
		order = []string{cfg.Op}
	}
	for _, name := range order {
		fmt.Printf("\n=== %s ===\n", name)
		if err := ops[name](); err != nil {
			return err
		}
	}

	fmt.Println()
	printMemStats()
	return nil
}

func (b *bench) gates() error {
	x, err := b.ctx.Encrypt(true)
	if err != nil {
		return err
	}
	y, err := b.ctx.Encrypt(false)
	if err != nil {
		return err
	}

	gates := []struct {
		name string
		fn   func() error
	}{
		{"Encrypt", func() error { _, err := b.ctx.Encrypt(true); return err }},
		{"Decrypt", func() error { _, err := x.Decrypt(b.scheme); return err }},
		{"AND", func() error { _, err := x.And(y); return err }},
		{"XOR", func() error { _, err := x.Xor(y); return err }},
		{"OR", func() error { _, err := x.Or(y); return err }},
		{"NOT", func() error { _, err := x.Not(); return err }},
	}
	for _, g := range gates {
		if err := measure(g.name, b.n, g.fn); err != nil {
			return err
		}
	}
	return nil
}

func (b *bench) gf() error {
	x, err := b.ctx.EncryptUint64(0x57, 8)
	if err != nil {
		return err
	}
	y, err := b.ctx.EncryptUint64(0x83, 8)
	if err != nil {
		return err
	}

	if err := measure(fmt.Sprintf("GFMul (%d ANDs)", cryptobit.GFMulANDGates()), b.n, func() error {
		_, err := cryptobit.GFMul(x, y)
		return err
	}); err != nil {
		return err
	}
	return measure("GFMulConst x3", b.n, func() error {
		_, err := cryptobit.GFMulConst(x, 3)
		return err
	})
}

func (b *bench) sbox() error {
	x, err := b.ctx.EncryptUint64(0x53, 8)
	if err != nil {
		return err
	}

	for _, sbox := range []*cryptobit.SBox{cryptobit.AESCircuitSBox(), cryptobit.AESLUTSBox()} {
		if err := measure("SBox "+sbox.Kind().String(), b.n, func() error {
			_, err := sbox.Apply(x)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (b *bench) block() (cryptobit.Bitset, error) {
	data := make([]byte, cryptobit.BlockBytes)
	for i := range data {
		data[i] = byte(i * 17)
	}
	return b.ctx.EncryptBytes(data)
}

func (b *bench) round() error {
	state, err := b.block()
	if err != nil {
		return err
	}
	sbox := cryptobit.AESCircuitSBox()

	stages := []struct {
		name string
		fn   func() error
	}{
		{"SubBytes", func() error { _, err := cryptobit.SubBytes(sbox, state); return err }},
		{"ShiftRows", func() error { _, err := cryptobit.ShiftRows(state); return err }},
		{"MixColumns", func() error { _, err := cryptobit.MixColumns(state); return err }},
		{"AddRoundKey", func() error { _, err := cryptobit.AddRoundKey(state, state); return err }},
	}
	for _, s := range stages {
		if err := measure(s.name, b.n, s.fn); err != nil {
			return err
		}
	}
	return nil
}

func (b *bench) aes() error {
	state, err := b.block()
	if err != nil {
		return err
	}
	key, err := b.block()
	if err != nil {
		return err
	}

	cipher, err := cryptobit.NewCipher(b.ctx, cryptobit.AESCircuitSBox(), cryptobit.WithRefresher(b.scheme))
	if err != nil {
		return err
	}

	var keys cryptobit.RoundKeys
	if err := measure("ExpandKey AES-128", b.n, func() error {
		keys, err = cipher.ExpandKey(key)
		return err
	}); err != nil {
		return err
	}

	return measure("Encrypt AES-128", b.n, func() error {
		_, err := cipher.Encrypt(state, keys)
		return err
	})
}
