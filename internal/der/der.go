// Package der reads and writes the one ASN.1 shape an RSA key file needs:
// a DER SEQUENCE whose elements are all non-negative INTEGERs.
//
// Only canonical encodings are accepted. A key file that is not canonical DER
// was produced by a broken or hostile generator, so it is rejected rather than
// normalized.
package der

import (
	"errors"
	"fmt"
	"math/big"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

var ErrMalformedEncoding = errors.New("der: malformed encoding")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedEncoding, fmt.Sprintf(format, args...))
}

// Decode parses a DER SEQUENCE of INTEGERs. The whole buffer must be consumed
// by the SEQUENCE.
func Decode(data []byte) ([]*big.Int, error) {
	input := cryptobyte.String(data)
	if len(input) == 0 {
		return nil, malformed("empty input")
	}
	if !input.PeekASN1Tag(asn1.SEQUENCE) {
		return nil, malformed("unexpected tag 0x%02x, want SEQUENCE", data[0])
	}

	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) {
		return nil, malformed("invalid SEQUENCE length")
	}
	if !input.Empty() {
		return nil, malformed("%d trailing bytes after SEQUENCE", len(input))
	}

	var ints []*big.Int
	for !seq.Empty() {
		idx := len(ints)
		if !seq.PeekASN1Tag(asn1.INTEGER) {
			return nil, malformed("element %d: unexpected tag 0x%02x, want INTEGER", idx, seq[0])
		}
		n := new(big.Int)
		// ReadASN1Integer enforces shortest-form lengths and minimal
		// two's-complement contents.
		if !seq.ReadASN1Integer(n) {
			return nil, malformed("element %d: invalid INTEGER encoding", idx)
		}
		if n.Sign() < 0 {
			return nil, malformed("element %d: negative INTEGER", idx)
		}
		ints = append(ints, n)
	}

	return ints, nil
}

// Encode writes ints as a canonical DER SEQUENCE of INTEGERs.
func Encode(ints []*big.Int) ([]byte, error) {
	for i, n := range ints {
		if n == nil {
			return nil, malformed("element %d: nil INTEGER", i)
		}
		if n.Sign() < 0 {
			return nil, malformed("element %d: negative INTEGER", i)
		}
	}

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(seq *cryptobyte.Builder) {
		for _, n := range ints {
			seq.AddASN1BigInt(n)
		}
	})

	out, err := b.Bytes()
	if err != nil {
		return nil, fmt.Errorf("der: failed to build SEQUENCE: %w", err)
	}
	return out, nil
}
