// Package onion derives v2 onion-service addresses from RSA keys and checks
// claimed addresses against them.
//
// The address is the lower-case, unpadded base32 encoding of the first 10
// bytes of the SHA-1 digest of the DER RSAPublicKey.
package onion

import (
	"crypto/sha1"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/user/leekcheck/internal/der"
	"github.com/user/leekcheck/internal/rsakey"
)

const (
	// AddressLen is the length of a derived address in characters.
	AddressLen = 16
	// Suffix is appended to an address to form the host name.
	Suffix = ".onion"

	digestPrefix = 10
)

var addressEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// PublicKeyDER encodes pub as a two-element RSAPublicKey SEQUENCE.
func PublicKeyDER(pub rsakey.PublicKey) ([]byte, error) {
	return der.Encode(pub.Fields())
}

// Fingerprint returns the address for the given DER public key bytes.
func Fingerprint(publicDER []byte) string {
	digest := sha1.Sum(publicDER)
	return strings.ToLower(addressEncoding.EncodeToString(digest[:digestPrefix]))
}

// Check reports whether claimed is the address of the private key in
// privateDER. Decoding errors are returned, never reported as a mismatch.
func Check(claimed string, privateDER []byte) (bool, error) {
	id, err := NewIdentity(privateDER)
	if err != nil {
		return false, err
	}
	return id.Matches(claimed), nil
}

// ValidAddress reports whether s has the shape of a derived address.
func ValidAddress(s string) bool {
	if len(s) != AddressLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z') && !(c >= '2' && c <= '7') {
			return false
		}
	}
	return true
}

// Identity is a decoded private key together with everything derived from
// it. It is immutable once built.
type Identity struct {
	private   *rsakey.PrivateKey
	public    rsakey.PublicKey
	publicDER []byte
	address   string
}

func NewIdentity(privateDER []byte) (*Identity, error) {
	priv, err := rsakey.DecodePrivateKey(privateDER)
	if err != nil {
		return nil, err
	}

	pub := priv.PublicKey()
	pubDER, err := PublicKeyDER(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to encode public key: %w", err)
	}

	return &Identity{
		private:   priv,
		public:    pub,
		publicDER: pubDER,
		address:   Fingerprint(pubDER),
	}, nil
}

func (id *Identity) Address() string {
	return id.address
}

func (id *Identity) Hostname() string {
	return id.address + Suffix
}

// Matches compares claimed with the derived address, case-sensitively.
func (id *Identity) Matches(claimed string) bool {
	return claimed == id.address
}

func (id *Identity) PublicKey() rsakey.PublicKey {
	return id.public
}

func (id *Identity) PrivateKey() *rsakey.PrivateKey {
	return id.private
}

// PublicKeyDER returns a copy of the canonical public key bytes.
func (id *Identity) PublicKeyDER() []byte {
	out := make([]byte, len(id.publicDER))
	copy(out, id.publicDER)
	return out
}

func (id *Identity) PublicKeyBase64() string {
	return base64.StdEncoding.EncodeToString(id.publicDER)
}

func (id *Identity) Bits() int {
	return id.public.Bits()
}

// Exponent returns the public exponent in hex with a 0x prefix.
func (id *Identity) Exponent() string {
	return fmt.Sprintf("0x%x", id.public.PublicExponent)
}
