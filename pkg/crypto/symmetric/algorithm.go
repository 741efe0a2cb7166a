package symmetric

import (
	"github.com/pkg/errors"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

// Defaults for the AES adapter.
const (
	DefaultAlgorithm = engine.AlgorithmAES
	DefaultBlockSize = 16
	DefaultKeySize   = 32
)

var (
	legalKeySizes = map[string][]int{
		engine.AlgorithmAES: {16, 24, 32},
	}
	legalBlockSizes = map[string][]int{
		engine.AlgorithmAES: {16},
	}
)

type Configuration struct {
	// Engine performing the cipher arithmetic. Nil selects engine.Default().
	Engine engine.Engine
	// Rand supplies key and IV material. Nil selects engine.DefaultRandom().
	Rand engine.RandomSource
	// Provider passed to the engine when opening the algorithm.
	Provider string
	// Algorithm is the cipher algorithm name. Defaults to AES.
	Algorithm string
	// Mode is the chaining mode. Immutable once the adapter is constructed.
	Mode engine.ChainingMode
	// Padding is the padding scheme applied at finalize. Defaults to PKCS7.
	Padding PaddingScheme
	// BlockSize in bytes. Defaults to 16.
	BlockSize int
	// KeySize in bytes. Defaults to 32.
	KeySize int
}

// Algorithm binds block size, key size constraints, chaining mode and
// padding, and constructs cipher transforms in either direction. Transforms
// snapshot the configuration at creation time; mutating the adapter
// afterwards does not affect them.
type Algorithm struct {
	cfg Configuration
	key []byte
	iv  []byte
}

// NewAlgorithm validates the configuration and returns an adapter. No engine
// handle is opened until a transform is created.
func NewAlgorithm(cfg *Configuration) (*Algorithm, error) {
	c := Configuration{}
	if cfg != nil {
		c = *cfg
	}
	if c.Engine == nil {
		c.Engine = engine.Default()
	}
	if c.Rand == nil {
		c.Rand = engine.DefaultRandom()
	}
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	if c.BlockSize == 0 {
		c.BlockSize = DefaultBlockSize
	}
	if c.KeySize == 0 {
		c.KeySize = DefaultKeySize
	}
	if !c.Padding.valid() {
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "unknown padding scheme %d", c.Padding)
	}
	if _, ok := legalBlockSizes[c.Algorithm]; !ok {
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "unknown algorithm %q", c.Algorithm)
	}
	if !contains(legalBlockSizes[c.Algorithm], c.BlockSize) {
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "illegal block size %d for %s", c.BlockSize, c.Algorithm)
	}
	if !contains(legalKeySizes[c.Algorithm], c.KeySize) {
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "illegal key size %d for %s", c.KeySize, c.Algorithm)
	}
	return &Algorithm{cfg: c}, nil
}

func contains(sizes []int, n int) bool {
	for _, s := range sizes {
		if s == n {
			return true
		}
	}
	return false
}

// LegalKeySizes returns the permitted key sizes in bytes.
func (a *Algorithm) LegalKeySizes() []int {
	return append([]int(nil), legalKeySizes[a.cfg.Algorithm]...)
}

// LegalBlockSizes returns the permitted block sizes in bytes.
func (a *Algorithm) LegalBlockSizes() []int {
	return append([]int(nil), legalBlockSizes[a.cfg.Algorithm]...)
}

func (a *Algorithm) Mode() engine.ChainingMode { return a.cfg.Mode }
func (a *Algorithm) Padding() PaddingScheme    { return a.cfg.Padding }
func (a *Algorithm) BlockSize() int            { return a.cfg.BlockSize }
func (a *Algorithm) KeySize() int              { return a.cfg.KeySize }

// SetPadding changes the padding scheme used by transforms created later.
func (a *Algorithm) SetPadding(p PaddingScheme) error {
	if !p.valid() {
		return errors.Wrapf(engine.ErrInvalidArgument, "unknown padding scheme %d", p)
	}
	a.cfg.Padding = p
	return nil
}

// SetBlockSize re-validates against the algorithm's legal block sizes. A
// stored key is re-validated against the key sizes legal under the new block
// size rather than silently accepted.
func (a *Algorithm) SetBlockSize(n int) error {
	if !contains(legalBlockSizes[a.cfg.Algorithm], n) {
		return errors.Wrapf(engine.ErrInvalidArgument, "illegal block size %d for %s", n, a.cfg.Algorithm)
	}
	if a.key != nil && !contains(legalKeySizes[a.cfg.Algorithm], len(a.key)) {
		return errors.Wrapf(engine.ErrInvalidArgument, "stored key of %d bytes is illegal for block size %d", len(a.key), n)
	}
	if n != a.cfg.BlockSize && a.iv != nil {
		zero(a.iv)
		a.iv = nil
	}
	a.cfg.BlockSize = n
	return nil
}

// SetKeySize changes the size used by GenerateKey. A stored key of a
// different length is discarded.
func (a *Algorithm) SetKeySize(n int) error {
	if !contains(legalKeySizes[a.cfg.Algorithm], n) {
		return errors.Wrapf(engine.ErrInvalidArgument, "illegal key size %d for %s", n, a.cfg.Algorithm)
	}
	if a.key != nil && len(a.key) != n {
		zero(a.key)
		a.key = nil
	}
	a.cfg.KeySize = n
	return nil
}

// Key returns a copy of the stored key, or nil when none is set.
func (a *Algorithm) Key() []byte {
	if a.key == nil {
		return nil
	}
	return append([]byte(nil), a.key...)
}

// SetKey stores a copy of key after validating its length.
func (a *Algorithm) SetKey(key []byte) error {
	if len(key) == 0 {
		return errors.Wrap(engine.ErrInvalidArgument, "key must not be empty")
	}
	if !contains(legalKeySizes[a.cfg.Algorithm], len(key)) {
		return errors.Wrapf(engine.ErrInvalidArgument, "illegal key size %d for %s", len(key), a.cfg.Algorithm)
	}
	zero(a.key)
	a.key = append([]byte(nil), key...)
	return nil
}

// IV returns a copy of the stored IV, or nil when none is set.
func (a *Algorithm) IV() []byte {
	if a.iv == nil {
		return nil
	}
	return append([]byte(nil), a.iv...)
}

// SetIV stores a copy of iv after validating its length against the block
// size.
func (a *Algorithm) SetIV(iv []byte) error {
	if len(iv) != a.cfg.BlockSize {
		return errors.Wrapf(engine.ErrInvalidArgument, "iv must be %d bytes, got %d", a.cfg.BlockSize, len(iv))
	}
	zero(a.iv)
	a.iv = append([]byte(nil), iv...)
	return nil
}

// GenerateKey produces a fresh random key of the configured key size, stores
// it and returns a copy.
func (a *Algorithm) GenerateKey() ([]byte, error) {
	key := make([]byte, a.cfg.KeySize)
	if err := a.cfg.Rand.Fill(key); err != nil {
		return nil, err
	}
	zero(a.key)
	a.key = key
	return a.Key(), nil
}

// GenerateIV produces a fresh random IV of the configured block size, stores
// it and returns a copy.
func (a *Algorithm) GenerateIV() ([]byte, error) {
	iv := make([]byte, a.cfg.BlockSize)
	if err := a.cfg.Rand.Fill(iv); err != nil {
		return nil, err
	}
	zero(a.iv)
	a.iv = iv
	return a.IV(), nil
}

// CreateEncryptor returns an encrypting transform bound to key and iv under
// the adapter's current block size, mode and padding.
func (a *Algorithm) CreateEncryptor(key, iv []byte) (*CipherTransform, error) {
	return a.createTransform(key, iv, engine.Encrypt)
}

// CreateDecryptor returns a decrypting transform bound to key and iv under
// the adapter's current block size, mode and padding.
func (a *Algorithm) CreateDecryptor(key, iv []byte) (*CipherTransform, error) {
	return a.createTransform(key, iv, engine.Decrypt)
}

// NewEncryptor is CreateEncryptor using the stored key and IV, generating
// either on demand.
func (a *Algorithm) NewEncryptor() (*CipherTransform, error) {
	key, iv, err := a.ensureKeyIV()
	if err != nil {
		return nil, err
	}
	return a.createTransform(key, iv, engine.Encrypt)
}

// NewDecryptor is CreateDecryptor using the stored key and IV, generating
// either on demand.
func (a *Algorithm) NewDecryptor() (*CipherTransform, error) {
	key, iv, err := a.ensureKeyIV()
	if err != nil {
		return nil, err
	}
	return a.createTransform(key, iv, engine.Decrypt)
}

func (a *Algorithm) ensureKeyIV() ([]byte, []byte, error) {
	if a.key == nil {
		if _, err := a.GenerateKey(); err != nil {
			return nil, nil, err
		}
	}
	if a.iv == nil && a.cfg.Mode.UsesIV() {
		if _, err := a.GenerateIV(); err != nil {
			return nil, nil, err
		}
	}
	return a.key, a.iv, nil
}

func (a *Algorithm) createTransform(key, iv []byte, direction engine.Direction) (*CipherTransform, error) {
	if len(key) == 0 {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "key must not be empty")
	}
	if !contains(legalKeySizes[a.cfg.Algorithm], len(key)) {
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "illegal key size %d for %s", len(key), a.cfg.Algorithm)
	}
	if a.cfg.Mode.UsesIV() && len(iv) != a.cfg.BlockSize {
		return nil, errors.Wrapf(engine.ErrInvalidArgument, "iv must be %d bytes, got %d", a.cfg.BlockSize, len(iv))
	}
	handle, err := a.cfg.Engine.OpenAlgorithm(a.cfg.Algorithm, a.cfg.Provider)
	if err != nil {
		return nil, err
	}
	if err := handle.SetProperty(engine.PropertyChainingMode, a.cfg.Mode.String()); err != nil {
		_ = handle.Close()
		return nil, err
	}
	ctx, err := handle.NewCipherContext(key, iv, direction)
	if err != nil {
		_ = handle.Close()
		return nil, err
	}
	return newCipherTransform(handle, ctx, direction, a.cfg.Mode, a.cfg.Padding, a.cfg.BlockSize), nil
}
