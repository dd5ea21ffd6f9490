// Package worker runs encrypted AES jobs taken from a queue over bitsets
// held in storage.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/cryptobit"
	"github.com/luxfi/cryptobit/internal/queue"
	"github.com/luxfi/cryptobit/internal/storage"
)

// ErrRefreshDisabled is returned for jobs that need the secret key when the
// processor was built without one.
var ErrRefreshDisabled = errors.New("refresh disabled: job needs the secret key")

// Config holds processor settings.
type Config struct {
	// SBox selects the S-box strategy: "circuit" or "lut".
	SBox string
	// AllowRefresh lets the processor decrypt and re-encrypt with the key
	// holder: between rounds and for key switching.
	AllowRefresh bool
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{SBox: "circuit"}
}

// ParseSBox maps an S-box strategy name to the AES S-box.
func ParseSBox(name string) (*cryptobit.SBox, error) {
	switch name {
	case "", "circuit":
		return cryptobit.AESCircuitSBox(), nil
	case "lut":
		return cryptobit.AESLUTSBox(), nil
	default:
		return nil, fmt.Errorf("%w: unknown sbox %q", cryptobit.ErrInvalidConfig, name)
	}
}

// Processor executes single jobs. It is safe for concurrent use.
type Processor struct {
	ctx    *cryptobit.Context
	cipher *cryptobit.Cipher
	store  storage.Storage
	holder cryptobit.KeyHolder
}

// NewProcessor creates a processor. holder may be nil; it is only used when
// cfg.AllowRefresh is set.
func NewProcessor(ctx *cryptobit.Context, store storage.Storage, holder cryptobit.KeyHolder, cfg Config) (*Processor, error) {
	sbox, err := ParseSBox(cfg.SBox)
	if err != nil {
		return nil, err
	}

	var opts []cryptobit.Option
	if cfg.AllowRefresh {
		if holder == nil {
			return nil, fmt.Errorf("%w: refresh allowed without key holder", cryptobit.ErrInvalidConfig)
		}
		opts = append(opts, cryptobit.WithRefresher(holder))
	} else {
		holder = nil
	}

	cipher, err := cryptobit.NewCipher(ctx, sbox, opts...)
	if err != nil {
		return nil, err
	}

	return &Processor{
		ctx:    ctx,
		cipher: cipher,
		store:  store,
		holder: holder,
	}, nil
}

// Context returns the evaluation context bitsets are bound to.
func (p *Processor) Context() *cryptobit.Context {
	return p.ctx
}

// Process runs job and returns the handle of the stored result and its
// minimum noise budget.
func (p *Processor) Process(ctx context.Context, job *queue.Job) (storage.Handle, int, error) {
	if err := job.Validate(); err != nil {
		return "", 0, err
	}
	if job.Operation == queue.OpKeySwitch && p.holder == nil {
		return "", 0, ErrRefreshDisabled
	}

	block, err := LoadBitset(ctx, p.store, p.ctx, storage.Handle(job.BlockHandle))
	if err != nil {
		return "", 0, fmt.Errorf("load block: %w", err)
	}
	key, err := LoadBitset(ctx, p.store, p.ctx, storage.Handle(job.KeyHandle))
	if err != nil {
		return "", 0, fmt.Errorf("load key: %w", err)
	}

	var result cryptobit.Bitset
	switch job.Operation {
	case queue.OpEncrypt, queue.OpDecrypt:
		keys, err := p.cipher.ExpandKey(key)
		if err != nil {
			return "", 0, fmt.Errorf("expand key: %w", err)
		}
		if job.Operation == queue.OpEncrypt {
			result, err = p.cipher.Encrypt(block, keys)
		} else {
			result, err = p.cipher.Decrypt(block, keys)
		}
		if err != nil {
			return "", 0, fmt.Errorf("%v: %w", job.Operation, err)
		}

	case queue.OpKeySwitch:
		newKey, err := LoadBitset(ctx, p.store, p.ctx, storage.Handle(job.NewKeyHandle))
		if err != nil {
			return "", 0, fmt.Errorf("load new key: %w", err)
		}
		result, err = p.cipher.KeySwitch(block, key, newKey, p.holder)
		if err != nil {
			return "", 0, fmt.Errorf("keyswitch: %w", err)
		}
	}

	budget, err := result.MinNoiseBudget()
	if err != nil {
		return "", 0, err
	}
	if budget == 0 {
		log.Warnf("Job %s: result noise budget exhausted", job.ID)
	}

	handle, err := StoreBitset(ctx, p.store, result)
	if err != nil {
		return "", 0, fmt.Errorf("store result: %w", err)
	}
	return handle, budget, nil
}

// StoreBitset serializes s and stores it.
func StoreBitset(ctx context.Context, store storage.Storage, s cryptobit.Bitset) (storage.Handle, error) {
	data, err := cryptobit.MarshalBitset(s)
	if err != nil {
		return "", err
	}
	return store.Store(ctx, data)
}

// LoadBitset loads and decodes the bitset stored under handle.
func LoadBitset(ctx context.Context, store storage.Storage, c *cryptobit.Context, handle storage.Handle) (cryptobit.Bitset, error) {
	data, err := store.Load(ctx, handle)
	if err != nil {
		return cryptobit.Bitset{}, err
	}
	return c.UnmarshalBitset(data)
}
