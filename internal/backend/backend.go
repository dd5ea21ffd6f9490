// Package backend opens the homomorphic scheme a command evaluates on.
package backend

import (
	"errors"
	"fmt"
	"os"

	"github.com/luxfi/cryptobit/he"
	"github.com/luxfi/cryptobit/sim"
	"github.com/luxfi/cryptobit/tfhe"
)

// ErrUnknownBackend is returned for backend or preset names Open does not
// know.
var ErrUnknownBackend = errors.New("unknown backend")

// Backend names.
const (
	Sim  = "sim"
	TFHE = "tfhe"
)

var (
	simPresets = map[string]sim.ParametersLiteral{
		"":        sim.Default,
		"default": sim.Default,
		"deep":    sim.Deep,
	}
	tfhePresets = map[string]tfhe.ParametersLiteral{
		"":         tfhe.PN10QP27,
		"PN10QP27": tfhe.PN10QP27,
		"PN11QP54": tfhe.PN11QP54,
	}
)

// Config selects a backend.
type Config struct {
	// Name is Sim or TFHE.
	Name string
	// Preset names a parameter set of the backend. Empty selects the
	// backend default.
	Preset string
	// KeyFile holds the tfhe secret key. It is created on first use.
	// Empty generates an ephemeral key.
	KeyFile string
}

// Open creates the scheme described by cfg. The returned scheme holds the
// secret key.
func Open(cfg Config) (he.Scheme, error) {
	switch cfg.Name {
	case Sim:
		lit, ok := simPresets[cfg.Preset]
		if !ok {
			return nil, fmt.Errorf("%w: sim preset %q", ErrUnknownBackend, cfg.Preset)
		}
		scheme, err := sim.NewFromLiteral(lit)
		if err != nil {
			return nil, err
		}
		return scheme, nil

	case TFHE:
		lit, ok := tfhePresets[cfg.Preset]
		if !ok {
			return nil, fmt.Errorf("%w: tfhe preset %q", ErrUnknownBackend, cfg.Preset)
		}
		return openTFHE(lit, cfg.KeyFile)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Name)
	}
}

// OpenPublic creates the evaluating half of the scheme described by cfg. The
// result cannot decrypt. On tfhe it encrypts under the public key, and the
// secret key is dropped once the public and bootstrap keys are derived.
func OpenPublic(cfg Config) (he.PublicScheme, error) {
	if cfg.Name != TFHE {
		scheme, err := Open(cfg)
		if err != nil {
			return nil, err
		}
		return publicOnly{scheme}, nil
	}

	lit, ok := tfhePresets[cfg.Preset]
	if !ok {
		return nil, fmt.Errorf("%w: tfhe preset %q", ErrUnknownBackend, cfg.Preset)
	}
	params, err := tfhe.NewParametersFromLiteral(lit)
	if err != nil {
		return nil, err
	}

	sk, err := loadOrCreateKey(params, cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	kgen := tfhe.NewKeyGenerator(params)
	return tfhe.NewPublicScheme(params, kgen.GenPublicKey(sk), kgen.GenBootstrapKey(sk)), nil
}

// publicOnly hides the Decryptor of a scheme that has no separate public
// half.
type publicOnly struct {
	he.PublicScheme
}

func openTFHE(lit tfhe.ParametersLiteral, keyFile string) (he.Scheme, error) {
	params, err := tfhe.NewParametersFromLiteral(lit)
	if err != nil {
		return nil, err
	}

	sk, err := loadOrCreateKey(params, keyFile)
	if err != nil {
		return nil, err
	}
	return tfhe.NewScheme(params, sk), nil
}

func loadOrCreateKey(params tfhe.Parameters, keyFile string) (*tfhe.SecretKey, error) {
	if keyFile == "" {
		return tfhe.NewKeyGenerator(params).GenSecretKey(), nil
	}

	data, err := os.ReadFile(keyFile)
	switch {
	case err == nil:
		sk := new(tfhe.SecretKey)
		if err := sk.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("load key %s: %w", keyFile, err)
		}
		return sk, nil

	case os.IsNotExist(err):
		sk := tfhe.NewKeyGenerator(params).GenSecretKey()
		data, err := sk.MarshalBinary()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(keyFile, data, 0600); err != nil {
			return nil, fmt.Errorf("write key %s: %w", keyFile, err)
		}
		return sk, nil

	default:
		return nil, fmt.Errorf("read key %s: %w", keyFile, err)
	}
}
