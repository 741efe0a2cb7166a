package engine

import (
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"github.com/tink-crypto/tink-go/v2/subtle/random"
)

// SystemRandom reads from the operating system CSPRNG via crypto/rand.
type SystemRandom struct{}

func (SystemRandom) Fill(p []byte) error {
	if _, err := io.ReadFull(rand.Reader, p); err != nil {
		return errors.Wrap(err, "unable to read random bytes")
	}
	return nil
}

// TinkRandom draws random bytes from Tink's subtle random primitive. It is
// interchangeable with SystemRandom and exists for deployments that already
// standardize on Tink.
type TinkRandom struct{}

func (TinkRandom) Fill(p []byte) error {
	copy(p, random.GetRandomBytes(uint32(len(p))))
	return nil
}

// DefaultRandom returns the default random source used when a configuration
// does not supply one.
func DefaultRandom() RandomSource {
	return SystemRandom{}
}
