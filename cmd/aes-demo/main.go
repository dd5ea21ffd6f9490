// Command aes-demo encrypts one block homomorphically and prints the noise
// budget left after every stage.
//
// Usage:
//
//	aes-demo --backend=sim
//	aes-demo --backend=sim --preset=deep --norefresh --trace
//	aes-demo --backend=tfhe --norefresh
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/luxfi/cryptobit"
	"github.com/luxfi/cryptobit/he"
	"github.com/luxfi/cryptobit/internal/backend"
	"github.com/luxfi/cryptobit/internal/logging"
	"github.com/luxfi/cryptobit/internal/worker"
)

type config struct {
	Backend   string `long:"backend" default:"sim" choice:"sim" choice:"tfhe" description:"homomorphic scheme"`
	Preset    string `long:"preset" description:"parameter preset of the backend"`
	SBox      string `long:"sbox" default:"circuit" choice:"circuit" choice:"lut" description:"S-box strategy"`
	Key       string `long:"key" default:"472d4b6150645367566b587032733576" description:"hex key (16, 24 or 32 bytes)"`
	Plaintext string `long:"plaintext" default:"000102030405060708090a0b0c0d0e0f" description:"hex plaintext block"`
	Expect    string `long:"expect" default:"09ec3a97e82751b42a773f7d925ffc4b" description:"expected hex ciphertext, empty to skip the check"`
	NoRefresh bool   `long:"norefresh" description:"never decrypt and re-encrypt the state between rounds"`
	Trace     bool   `long:"trace" description:"decrypt and print the state after every stage"`
	LogLevel  string `long:"loglevel" default:"warn" description:"log level, or SUBSYSTEM=level pairs"`
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

	if _, err := logging.Setup(os.Stdout, cfg.LogLevel); err != nil {
		return err
	}

	key, err := hex.DecodeString(cfg.Key)
	if err != nil {
		return fmt.Errorf("key: %w", err)
	}
	plaintext, err := hex.DecodeString(cfg.Plaintext)
	if err != nil {
		return fmt.Errorf("plaintext: %w", err)
	}

	start := time.Now()
	scheme, err := backend.Open(backend.Config{Name: cfg.Backend, Preset: cfg.Preset})
	if err != nil {
		return err
	}
	fmt.Printf("Backend %s ready in %v\n", cfg.Backend, time.Since(start))

	ctx, err := cryptobit.NewContext(scheme, cryptobit.DefaultConfig())
	if err != nil {
		return err
	}
	sbox, err := worker.ParseSBox(cfg.SBox)
	if err != nil {
		return err
	}

	opts := []cryptobit.Option{cryptobit.WithObserver(observer(scheme, cfg.Trace))}
	if !cfg.NoRefresh {
		opts = append(opts, cryptobit.WithRefresher(scheme))
	}
	cipher, err := cryptobit.NewCipher(ctx, sbox, opts...)
	if err != nil {
		return err
	}

	encKey, err := ctx.EncryptBytes(key)
	if err != nil {
		return err
	}
	block, err := ctx.EncryptBytes(plaintext)
	if err != nil {
		return err
	}

	start = time.Now()
	keys, err := cipher.ExpandKey(encKey)
	if err != nil {
		return err
	}
	budget, err := keys.MinNoiseBudget()
	if err != nil {
		return err
	}
	fmt.Printf("Key schedule: %d rounds in %v, noise budget %d\n", keys.Rounds(), time.Since(start), budget)

	start = time.Now()
	out, err := cipher.Encrypt(block, keys)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	got, err := out.DecryptBytes(scheme)
	if err != nil {
		return err
	}
	fmt.Printf("Ciphertext: %x (%v)\n", got, elapsed)

	if cfg.Expect != "" {
		if hex.EncodeToString(got) != cfg.Expect {
			return fmt.Errorf("ciphertext mismatch: want %s", cfg.Expect)
		}
		fmt.Println("Known answer: OK")
	}

	start = time.Now()
	back, err := cipher.Decrypt(out, keys)
	if err != nil {
		return err
	}
	pt, err := back.DecryptBytes(scheme)
	if err != nil {
		return err
	}
	fmt.Printf("Decrypted:  %x (%v)\n", pt, time.Since(start))
	if hex.EncodeToString(pt) != hex.EncodeToString(plaintext) {
		return errors.New("round trip mismatch")
	}

	return nil
}

// observer prints the noise budget after every stage. With trace it also
// decrypts the state, which only the key owner can do.
func observer(d he.Decryptor, trace bool) cryptobit.Observer {
	return func(stage string, round int, state cryptobit.Bitset) {
		budget, err := state.MinNoiseBudget()
		if err != nil {
			fmt.Printf("round %2d %-14s error: %v\n", round, stage, err)
			return
		}
		if !trace {
			fmt.Printf("round %2d %-14s budget %d\n", round, stage, budget)
			return
		}
		data, err := state.DecryptBytes(d)
		if err != nil {
			fmt.Printf("round %2d %-14s error: %v\n", round, stage, err)
			return
		}
		fmt.Printf("round %2d %-14s budget %-5d %x\n", round, stage, budget, data)
	}
}
