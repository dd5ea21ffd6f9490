package backend

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/cryptobit/he"
	"github.com/luxfi/cryptobit/sim"
	"github.com/luxfi/cryptobit/tfhe"
)

func TestOpenSim(t *testing.T) {
	scheme, err := Open(Config{Name: Sim, Preset: "deep"})
	require.NoError(t, err)
	require.IsType(t, &sim.Scheme{}, scheme)

	ct, err := scheme.Encrypt(true)
	require.NoError(t, err)
	nb, err := scheme.NoiseBudget(ct)
	require.NoError(t, err)
	require.Equal(t, sim.Deep.FreshBudget, nb)
}

func TestOpenPublicSim(t *testing.T) {
	scheme, err := OpenPublic(Config{Name: Sim})
	require.NoError(t, err)

	_, ok := scheme.(he.Decryptor)
	require.False(t, ok)

	ct, err := scheme.Encrypt(true)
	require.NoError(t, err)
	nb, err := scheme.NoiseBudget(ct)
	require.NoError(t, err)
	require.Equal(t, sim.Default.FreshBudget, nb)

	_, err = OpenPublic(Config{Name: "ckks"})
	require.ErrorIs(t, err, ErrUnknownBackend)
	_, err = OpenPublic(Config{Name: TFHE, Preset: "PN9"})
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpenErrors(t *testing.T) {
	_, err := Open(Config{Name: "ckks"})
	require.ErrorIs(t, err, ErrUnknownBackend)
	_, err = Open(Config{Name: Sim, Preset: "huge"})
	require.ErrorIs(t, err, ErrUnknownBackend)
	_, err = Open(Config{Name: TFHE, Preset: "PN9"})
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestOpenTFHEKeyFile(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping bootstrap key generation in short mode")
	}

	keyFile := filepath.Join(t.TempDir(), "sk.bin")

	first, err := Open(Config{Name: TFHE, KeyFile: keyFile})
	require.NoError(t, err)
	require.IsType(t, &tfhe.Scheme{}, first)
	require.FileExists(t, keyFile)

	second, err := Open(Config{Name: TFHE, KeyFile: keyFile})
	require.NoError(t, err)

	// Both schemes share the stored secret key.
	ct, err := first.Encrypt(true)
	require.NoError(t, err)
	v, err := second.Decrypt(ct)
	require.NoError(t, err)
	require.True(t, v)
}

func TestOpenPublicTFHE(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping bootstrap key generation in short mode")
	}

	keyFile := filepath.Join(t.TempDir(), "sk.bin")

	full, err := Open(Config{Name: TFHE, KeyFile: keyFile})
	require.NoError(t, err)

	public, err := OpenPublic(Config{Name: TFHE, KeyFile: keyFile})
	require.NoError(t, err)
	require.IsType(t, &tfhe.PublicScheme{}, public)

	_, ok := public.(he.Decryptor)
	require.False(t, ok)

	// Public encryptions decrypt under the stored secret key.
	ct, err := public.Encrypt(true)
	require.NoError(t, err)
	v, err := full.Decrypt(ct)
	require.NoError(t, err)
	require.True(t, v)
}
