package checker

import (
	"time"

	"github.com/user/leekcheck/internal/keyfile"
	"github.com/user/leekcheck/internal/onion"
)

// CheckSource reads and checks one key. Any failure before the comparison
// is reported as StatusError so a bad file is never confused with a wrong
// address.
func CheckSource(src Source) Result {
	start := time.Now()
	result := Result{
		Source:  src.Name(),
		Claimed: src.Claimed(),
	}

	finish := func(status Status, err error) Result {
		result.Status = status
		if err != nil {
			result.Error = err.Error()
		}
		result.Duration = time.Since(start)
		result.CheckedAt = time.Now()
		return result
	}

	text, err := src.Read()
	if err != nil {
		return finish(StatusError, err)
	}

	der, err := keyfile.Decode(text)
	if err != nil {
		return finish(StatusError, err)
	}

	id, err := onion.NewIdentity(der)
	if err != nil {
		return finish(StatusError, err)
	}

	result.Address = id.Address()
	result.KeyBits = id.Bits()
	result.Exponent = id.Exponent()
	result.PublicKey = id.PublicKeyBase64()

	if !id.Matches(result.Claimed) {
		return finish(StatusMismatch, nil)
	}
	return finish(StatusOK, nil)
}
