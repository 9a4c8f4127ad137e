package rsakey

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/leekcheck/internal/der"
)

func sequence(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = big.NewInt(int64(i + 100))
	}
	return out
}

func TestParsePrivateKey(t *testing.T) {
	key, err := ParsePrivateKey(sequence(9))
	require.NoError(t, err)

	assert.Equal(t, int64(100), key.Version.Int64())
	assert.Equal(t, int64(101), key.Modulus.Int64())
	assert.Equal(t, int64(102), key.PublicExponent.Int64())
	assert.Equal(t, int64(103), key.PrivateExponent.Int64())
	assert.Equal(t, int64(104), key.Prime1.Int64())
	assert.Equal(t, int64(105), key.Prime2.Int64())
	assert.Equal(t, int64(106), key.Exponent1.Int64())
	assert.Equal(t, int64(107), key.Exponent2.Int64())
	assert.Equal(t, int64(108), key.Coefficient.Int64())
	assert.Len(t, key.Fields(), 9)
}

func TestParsePrivateKeyArity(t *testing.T) {
	for _, n := range []int{0, 2, 8, 10} {
		_, err := ParsePrivateKey(sequence(n))
		assert.ErrorIs(t, err, ErrInvalidKeyStructure, "arity %d", n)
	}
}

func TestParsePrivateKeyNilField(t *testing.T) {
	fields := sequence(9)
	fields[4] = nil
	_, err := ParsePrivateKey(fields)
	assert.ErrorIs(t, err, ErrInvalidKeyStructure)
}

func TestDecodePrivateKey(t *testing.T) {
	encoded, err := der.Encode(sequence(9))
	require.NoError(t, err)

	key, err := DecodePrivateKey(encoded)
	require.NoError(t, err)
	assert.Equal(t, int64(101), key.Modulus.Int64())

	for _, n := range []int{8, 10} {
		encoded, err := der.Encode(sequence(n))
		require.NoError(t, err)
		_, err = DecodePrivateKey(encoded)
		assert.ErrorIs(t, err, ErrInvalidKeyStructure, "arity %d", n)
	}

	_, err = DecodePrivateKey(encoded[:len(encoded)-1])
	assert.ErrorIs(t, err, der.ErrMalformedEncoding)
	assert.NotErrorIs(t, err, ErrInvalidKeyStructure)
}

func TestPublicKey(t *testing.T) {
	modulus, ok := new(big.Int).SetString("c3a5f0e1d2b4968778695a4b3c2d1e0f", 16)
	require.True(t, ok)
	fields := sequence(9)
	fields[1] = modulus
	fields[2] = big.NewInt(65537)

	key, err := ParsePrivateKey(fields)
	require.NoError(t, err)

	pub := key.PublicKey()
	assert.Zero(t, pub.Modulus.Cmp(modulus))
	assert.Equal(t, int64(65537), pub.PublicExponent.Int64())
	assert.Equal(t, 128, pub.Bits())
	assert.Len(t, pub.Fields(), 2)

	// The derived key does not alias the private key's integers.
	key.Modulus.SetInt64(1)
	assert.Equal(t, 128, pub.Bits())
}
