package engine

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strconv"
	"sync"

	"github.com/dchest/siphash"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// DefaultProvider is the provider name of the engine shipped with this
// package, backed by the Go runtime crypto primitives.
const DefaultProvider = "go-runtime"

// Algorithm names accepted by the default engine.
const (
	AlgorithmAES     = "AES"
	AlgorithmSHA256  = "SHA256"
	AlgorithmSHA384  = "SHA384"
	AlgorithmSHA512  = "SHA512"
	AlgorithmSHA3256 = "SHA3-256"
	AlgorithmSHA3384 = "SHA3-384"
	AlgorithmSHA3512 = "SHA3-512"
)

type hashAlgorithm struct {
	factory    func() hash.Hash
	blockSize  int
	digestSize int
}

var hashAlgorithms = map[string]hashAlgorithm{
	AlgorithmSHA256:  {sha256.New, 64, 32},
	AlgorithmSHA384:  {sha512.New384, 128, 48},
	AlgorithmSHA512:  {sha512.New, 128, 64},
	AlgorithmSHA3256: {func() hash.Hash { return sha3.New256() }, 136, 32},
	AlgorithmSHA3384: {func() hash.Hash { return sha3.New384() }, 104, 48},
	AlgorithmSHA3512: {func() hash.Hash { return sha3.New512() }, 72, 64},
}

// StdEngine is the default Engine implementation. It is stateless and safe
// for concurrent use; the handles it opens are not.
type StdEngine struct {
	provider string
	log      *log.Helper
}

// NewStdEngine creates an engine instance. A nil logger falls back to the
// kratos default logger.
func NewStdEngine(logger log.Logger) *StdEngine {
	if logger == nil {
		logger = log.DefaultLogger
	}
	return &StdEngine{provider: DefaultProvider, log: log.NewHelper(logger)}
}

var defaultEngine = NewStdEngine(log.DefaultLogger)

// Default returns the process-default engine. It is a fixed instance, not a
// mutable global; code that needs a different provider passes one explicitly.
func Default() Engine {
	return defaultEngine
}

func (e *StdEngine) OpenAlgorithm(name, provider string) (AlgorithmHandle, error) {
	if provider == "" {
		provider = DefaultProvider
	}
	if provider != e.provider {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown provider %q", provider)
	}
	h := &stdHandle{
		id:        uuid.NewString(),
		algorithm: name,
		provider:  provider,
		log:       e.log,
	}
	if ha, ok := hashAlgorithms[name]; ok {
		h.hash = &ha
	} else if name != AlgorithmAES {
		return nil, errors.Wrapf(ErrInvalidArgument, "unknown algorithm %q", name)
	}
	e.log.Debugf("opened algorithm handle id=%s algorithm=%s provider=%s", h.id, name, provider)
	return h, nil
}

type stdHandle struct {
	id        string
	algorithm string
	provider  string
	hash      *hashAlgorithm // nil for cipher algorithms
	mode      string         // chaining mode identifier, cipher only
	closeOnce sync.Once
	closed    bool
	log       *log.Helper
}

func (h *stdHandle) SetProperty(name, value string) error {
	if h.closed {
		return errors.Wrap(ErrInvalidState, "handle is closed")
	}
	switch name {
	case PropertyChainingMode:
		if h.hash != nil {
			return errors.Wrapf(ErrInvalidArgument, "%s does not apply to hash algorithm %s", name, h.algorithm)
		}
		if _, err := ParseChainingMode(value); err != nil {
			return err
		}
		h.mode = value
		return nil
	case PropertyBlockLength, PropertyHashDigestLength, PropertyObjectLength:
		return errors.Wrapf(ErrInvalidArgument, "property %s is read-only", name)
	default:
		return errors.Wrapf(ErrInvalidArgument, "unknown property %q", name)
	}
}

func (h *stdHandle) GetProperty(name string) (string, error) {
	if h.closed {
		return "", errors.Wrap(ErrInvalidState, "handle is closed")
	}
	switch name {
	case PropertyChainingMode:
		if h.mode == "" {
			return ChainingModeNA, nil
		}
		return h.mode, nil
	case PropertyBlockLength:
		if h.hash != nil {
			return strconv.Itoa(h.hash.blockSize), nil
		}
		return strconv.Itoa(aes.BlockSize), nil
	case PropertyHashDigestLength:
		if h.hash == nil {
			return "", errors.Wrapf(ErrInvalidArgument, "%s does not apply to cipher algorithm %s", name, h.algorithm)
		}
		return strconv.Itoa(h.hash.digestSize), nil
	case PropertyObjectLength:
		if h.hash != nil {
			return strconv.Itoa(h.hash.digestSize), nil
		}
		return strconv.Itoa(aes.BlockSize), nil
	default:
		return "", errors.Wrapf(ErrInvalidArgument, "unknown property %q", name)
	}
}

func (h *stdHandle) NewHashContext(key []byte) (HashContext, error) {
	if h.closed {
		return nil, errors.Wrap(ErrInvalidState, "handle is closed")
	}
	if h.hash == nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s is not a hash algorithm", h.algorithm)
	}
	var hh hash.Hash
	if key != nil {
		hh = hmac.New(h.hash.factory, key)
	} else {
		hh = h.hash.factory()
	}
	h.log.Debugf("created hash context handle=%s algorithm=%s key=%s", h.id, h.algorithm, keyFingerprint(key))
	return &stdHashContext{h: hh}, nil
}

func (h *stdHandle) NewCipherContext(key, iv []byte, direction Direction) (CipherContext, error) {
	if h.closed {
		return nil, errors.Wrap(ErrInvalidState, "handle is closed")
	}
	if h.hash != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "%s is not a cipher algorithm", h.algorithm)
	}
	if h.mode == "" {
		return nil, errors.Wrap(ErrInvalidState, "chaining mode is not configured")
	}
	mode, err := ParseChainingMode(h.mode)
	if err != nil {
		return nil, err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidArgument, "invalid key size %d", len(key))
	}
	if mode.UsesIV() && len(iv) != block.BlockSize() {
		return nil, errors.Wrapf(ErrInvalidArgument, "iv must be %d bytes, got %d", block.BlockSize(), len(iv))
	}
	ctx := &stdCipherContext{mode: mode, blockSize: block.BlockSize()}
	switch mode {
	case ModeCBC:
		if direction == Encrypt {
			ctx.bm = cipher.NewCBCEncrypter(block, iv)
		} else {
			ctx.bm = cipher.NewCBCDecrypter(block, iv)
		}
	case ModeCFB:
		if direction == Encrypt {
			ctx.stream = cipher.NewCFBEncrypter(block, iv)
		} else {
			ctx.stream = cipher.NewCFBDecrypter(block, iv)
		}
	case ModeCTR:
		ctx.stream = cipher.NewCTR(block, iv)
	case ModeECB:
		ctx.block = block
		ctx.direction = direction
	}
	h.log.Debugf("created cipher context handle=%s mode=%s key=%s", h.id, h.mode, keyFingerprint(key))
	return ctx, nil
}

func (h *stdHandle) Close() error {
	h.closeOnce.Do(func() {
		h.closed = true
		h.log.Debugf("closed algorithm handle id=%s algorithm=%s", h.id, h.algorithm)
	})
	return nil
}

type stdHashContext struct {
	h    hash.Hash
	done bool
}

func (c *stdHashContext) Process(p []byte) error {
	if c.done {
		return errors.Wrap(ErrInvalidState, "hash context is finished")
	}
	if _, err := c.h.Write(p); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (c *stdHashContext) Finish() ([]byte, error) {
	if c.done {
		return nil, errors.Wrap(ErrInvalidState, "hash context is finished")
	}
	c.done = true
	return c.h.Sum(nil), nil
}

type stdCipherContext struct {
	mode      ChainingMode
	blockSize int
	direction Direction // ECB only
	bm        cipher.BlockMode
	stream    cipher.Stream
	block     cipher.Block
	done      bool
}

func (c *stdCipherContext) Process(p []byte) ([]byte, error) {
	if c.done {
		return nil, errors.Wrap(ErrInvalidState, "cipher context is finished")
	}
	if !c.mode.IsStream() && len(p)%c.blockSize != 0 {
		return nil, errors.Wrapf(ErrInvalidState, "input length %d is not a multiple of the block size %d", len(p), c.blockSize)
	}
	out := make([]byte, len(p))
	switch {
	case c.bm != nil:
		c.bm.CryptBlocks(out, p)
	case c.stream != nil:
		c.stream.XORKeyStream(out, p)
	default:
		for i := 0; i < len(p); i += c.blockSize {
			if c.direction == Encrypt {
				c.block.Encrypt(out[i:i+c.blockSize], p[i:i+c.blockSize])
			} else {
				c.block.Decrypt(out[i:i+c.blockSize], p[i:i+c.blockSize])
			}
		}
	}
	return out, nil
}

func (c *stdCipherContext) Finish(p []byte) ([]byte, error) {
	out, err := c.Process(p)
	if err != nil {
		return nil, err
	}
	c.done = true
	return out, nil
}

// Fixed SipHash key for key fingerprints in debug logs. The fingerprint is
// one-way and short; raw key material never reaches the logger.
const (
	fingerprintK0 = 0x676f2d6372797074
	fingerprintK1 = 0x6f2d657874656e64
)

func keyFingerprint(key []byte) string {
	if len(key) == 0 {
		return "-"
	}
	return strconv.FormatUint(siphash.Hash(fingerprintK0, fingerprintK1, key), 16)
}
