package symmetric

import (
	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

// KeyDerivationConfiguration holds the argon2id parameters used by
// DeriveKey.
type KeyDerivationConfiguration struct {
	Iterations  uint32
	Memory      bytesize.ByteSize
	Parallelism uint8
}

func toKB(mem bytesize.ByteSize) uint32 {
	return uint32(mem / bytesize.KB)
}

// DeriveKey derives a key of the configured key size from a passphrase and
// salt using argon2id, stores it as the adapter's current key and returns a
// copy. A nil cfg selects 3 iterations, 64MB memory and parallelism 2.
func (a *Algorithm) DeriveKey(passphrase, salt []byte, cfg *KeyDerivationConfiguration) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "passphrase must not be empty")
	}
	if len(salt) == 0 {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "salt must not be empty")
	}
	c := KeyDerivationConfiguration{Iterations: 3, Memory: 64 * bytesize.MB, Parallelism: 2}
	if cfg != nil {
		c = *cfg
	}
	if c.Iterations == 0 || c.Parallelism == 0 || toKB(c.Memory) == 0 {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "iterations, memory and parallelism must all be non-zero")
	}
	key := argon2.IDKey(passphrase, salt, c.Iterations, toKB(c.Memory), c.Parallelism, uint32(a.cfg.KeySize))
	zero(a.key)
	a.key = key
	return a.Key(), nil
}
