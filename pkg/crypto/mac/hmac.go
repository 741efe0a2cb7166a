package mac

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

// Defaults for the HMAC-SHA384 variant. The digest and block sizes are fixed
// per algorithm and interoperate with previously computed MAC values.
const (
	DefaultAlgorithm = engine.AlgorithmSHA384
	DefaultBlockSize = 128
)

type HmacConfiguration struct {
	// Engine performing the hash arithmetic. Nil selects engine.Default().
	Engine engine.Engine
	// Provider passed to the engine when opening the algorithm. Empty
	// selects the engine's default provider.
	Provider string
	// Algorithm is the hash algorithm name, e.g. engine.AlgorithmSHA384.
	Algorithm string
	// BlockSize is the internal block size of the hash in bytes.
	BlockSize int
}

// HmacTransform computes a keyed hash over an arbitrary-length byte stream.
// The instance is reusable: after Finalize, Initialize begins a new
// computation with the same key. Not safe for concurrent use.
type HmacTransform struct {
	cfg       HmacConfiguration
	key       []byte
	handle    engine.AlgorithmHandle
	ctx       engine.HashContext
	digestLen int
	finalized bool
	closed    bool
}

// NewHmacTransform opens an engine handle for the configured hash algorithm
// keyed with key. The key is copied; no data is hashed until ProcessBytes.
func NewHmacTransform(key []byte, cfg *HmacConfiguration) (*HmacTransform, error) {
	if len(key) == 0 {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "key must not be empty")
	}
	c := HmacConfiguration{}
	if cfg != nil {
		c = *cfg
	}
	if c.Engine == nil {
		c.Engine = engine.Default()
	}
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	handle, err := c.Engine.OpenAlgorithm(c.Algorithm, c.Provider)
	if err != nil {
		return nil, err
	}
	t := &HmacTransform{
		cfg:    c,
		key:    append([]byte(nil), key...),
		handle: handle,
	}
	t.digestLen, err = propertyInt(handle, engine.PropertyHashDigestLength)
	if err != nil {
		_ = handle.Close()
		return nil, err
	}
	if t.cfg.BlockSize == 0 {
		t.cfg.BlockSize, err = propertyInt(handle, engine.PropertyBlockLength)
		if err != nil {
			_ = handle.Close()
			return nil, err
		}
	}
	return t, nil
}

func propertyInt(handle engine.AlgorithmHandle, name string) (int, error) {
	v, err := handle.GetProperty(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(engine.ErrInvalidArgument, "property %s has non-numeric value %q", name, v)
	}
	return n, nil
}

// Initialize resets the running state to begin a new computation with the
// current key. It may be called before any data has been processed.
func (t *HmacTransform) Initialize() error {
	if t.closed {
		return errors.Wrap(engine.ErrInvalidState, "transform is closed")
	}
	ctx, err := t.handle.NewHashContext(t.key)
	if err != nil {
		return err
	}
	t.ctx = ctx
	t.finalized = false
	return nil
}

// ProcessBytes feeds count bytes starting at offset into the running hash
// state. The running state is created lazily on the first call.
func (t *HmacTransform) ProcessBytes(buf []byte, offset, count int) error {
	if t.closed {
		return errors.Wrap(engine.ErrInvalidState, "transform is closed")
	}
	if t.finalized {
		return errors.Wrap(engine.ErrInvalidState, "transform is finalized; call Initialize to reuse it")
	}
	if offset < 0 || count < 0 || offset+count > len(buf) {
		return errors.Wrapf(engine.ErrInvalidArgument, "range [%d, %d) is outside the buffer of length %d", offset, offset+count, len(buf))
	}
	if t.ctx == nil {
		if err := t.Initialize(); err != nil {
			return err
		}
	}
	return t.ctx.Process(buf[offset : offset+count])
}

// Finalize produces the MAC value, sized to the algorithm's digest length
// (48 bytes for SHA384). The running state is consumed; Initialize starts a
// fresh computation with the same key.
func (t *HmacTransform) Finalize() ([]byte, error) {
	if t.closed {
		return nil, errors.Wrap(engine.ErrInvalidState, "transform is closed")
	}
	if t.finalized {
		return nil, errors.Wrap(engine.ErrInvalidState, "transform is already finalized")
	}
	if t.ctx == nil {
		if err := t.Initialize(); err != nil {
			return nil, err
		}
	}
	digest, err := t.ctx.Finish()
	if err != nil {
		return nil, err
	}
	t.ctx = nil
	t.finalized = true
	if len(digest) != t.digestLen {
		return nil, errors.Wrapf(engine.ErrValidationFailure, "engine produced a %d byte digest, want %d", len(digest), t.digestLen)
	}
	return digest, nil
}

// Key returns a copy of the current key.
func (t *HmacTransform) Key() []byte {
	return append([]byte(nil), t.key...)
}

// SetKey re-keys the transform. Any in-progress computation is discarded;
// the next ProcessBytes starts a fresh state under the new key.
func (t *HmacTransform) SetKey(key []byte) error {
	if t.closed {
		return errors.Wrap(engine.ErrInvalidState, "transform is closed")
	}
	if len(key) == 0 {
		return errors.Wrap(engine.ErrInvalidArgument, "key must not be empty")
	}
	zero(t.key)
	t.key = append([]byte(nil), key...)
	t.ctx = nil
	t.finalized = false
	return nil
}

// CanReuseTransform reports that the transform may be reset via Initialize.
func (t *HmacTransform) CanReuseTransform() bool { return true }

// CanTransformMultipleBlocks reports that ProcessBytes accepts input of any
// length.
func (t *HmacTransform) CanTransformMultipleBlocks() bool { return true }

// InputBlockSize returns the internal block size of the hash in bytes.
func (t *HmacTransform) InputBlockSize() int { return t.cfg.BlockSize }

// OutputBlockSize returns the internal block size of the hash in bytes.
func (t *HmacTransform) OutputBlockSize() int { return t.cfg.BlockSize }

// HashSize returns the size of the MAC in bits.
func (t *HmacTransform) HashSize() int { return t.digestLen * 8 }

// Close releases the engine handle and zeroes the key. Idempotent; Close
// does not require Finalize to have run.
func (t *HmacTransform) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.ctx = nil
	zero(t.key)
	return t.handle.Close()
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
