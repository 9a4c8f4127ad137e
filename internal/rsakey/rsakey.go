// Package rsakey maps decoded DER integers onto the PKCS #1 RSA key layout.
package rsakey

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/user/leekcheck/internal/der"
)

// privateKeyFields is the PKCS #1 RSAPrivateKey arity for two-prime keys.
const privateKeyFields = 9

var ErrInvalidKeyStructure = errors.New("rsakey: invalid key structure")

// PrivateKey holds the nine RSAPrivateKey integers in DER field order.
// No relation between the fields is checked.
type PrivateKey struct {
	Version         *big.Int
	Modulus         *big.Int
	PublicExponent  *big.Int
	PrivateExponent *big.Int
	Prime1          *big.Int
	Prime2          *big.Int
	Exponent1       *big.Int
	Exponent2       *big.Int
	Coefficient     *big.Int
}

type PublicKey struct {
	Modulus        *big.Int
	PublicExponent *big.Int
}

func ParsePrivateKey(fields []*big.Int) (*PrivateKey, error) {
	if len(fields) != privateKeyFields {
		return nil, fmt.Errorf("%w: got %d integers, want %d", ErrInvalidKeyStructure, len(fields), privateKeyFields)
	}
	for i, f := range fields {
		if f == nil {
			return nil, fmt.Errorf("%w: field %d is missing", ErrInvalidKeyStructure, i)
		}
	}

	return &PrivateKey{
		Version:         fields[0],
		Modulus:         fields[1],
		PublicExponent:  fields[2],
		PrivateExponent: fields[3],
		Prime1:          fields[4],
		Prime2:          fields[5],
		Exponent1:       fields[6],
		Exponent2:       fields[7],
		Coefficient:     fields[8],
	}, nil
}

// DecodePrivateKey decodes PKCS #1 DER bytes. Codec errors are returned as is.
func DecodePrivateKey(data []byte) (*PrivateKey, error) {
	fields, err := der.Decode(data)
	if err != nil {
		return nil, err
	}
	return ParsePrivateKey(fields)
}

// PublicKey returns the modulus and public exponent. The values are copies,
// so the result stays valid whatever happens to k.
func (k *PrivateKey) PublicKey() PublicKey {
	return PublicKey{
		Modulus:        new(big.Int).Set(k.Modulus),
		PublicExponent: new(big.Int).Set(k.PublicExponent),
	}
}

// Fields returns the integers in DER field order.
func (k *PrivateKey) Fields() []*big.Int {
	return []*big.Int{
		k.Version,
		k.Modulus,
		k.PublicExponent,
		k.PrivateExponent,
		k.Prime1,
		k.Prime2,
		k.Exponent1,
		k.Exponent2,
		k.Coefficient,
	}
}

func (p PublicKey) Bits() int {
	return p.Modulus.BitLen()
}

// Fields returns (modulus, publicExponent), the RSAPublicKey field order.
func (p PublicKey) Fields() []*big.Int {
	return []*big.Int{p.Modulus, p.PublicExponent}
}
