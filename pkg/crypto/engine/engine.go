package engine

import (
	"github.com/pkg/errors"
)

// Error taxonomy shared by every transform built on top of the engine.
// ErrValidationFailure is deliberately distinct from ErrInvalidArgument:
// it may indicate tampering and callers react to it differently.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidState      = errors.New("invalid state")
	ErrValidationFailure = errors.New("validation failure")
)

// Direction selects the transform direction of a cipher context.
type Direction int

const (
	Encrypt Direction = iota
	Decrypt
)

// Engine is the native cryptographic capability consumed by the transforms.
// Implementations must delegate the actual hash/cipher arithmetic to a
// trusted provider; this package ships a default backed by the Go runtime.
type Engine interface {
	// OpenAlgorithm opens a handle for the named algorithm from the given
	// provider. An empty provider selects the engine's default provider.
	OpenAlgorithm(name, provider string) (AlgorithmHandle, error)
}

// AlgorithmHandle is an open native algorithm context. A handle has exactly
// one owner and must be released exactly once via Close; Close is a no-op on
// an already closed handle.
type AlgorithmHandle interface {
	// SetProperty configures the handle. Property names and values must be
	// taken from the identifier tables in this package.
	SetProperty(name, value string) error

	// GetProperty returns the current value of the named property.
	GetProperty(name string) (string, error)

	// NewHashContext creates a running hash state. A non-nil key selects
	// keyed (HMAC) use; a nil key selects the plain hash.
	NewHashContext(key []byte) (HashContext, error)

	// NewCipherContext creates a running cipher state bound to key, iv and
	// direction. The chaining mode property must be set beforehand.
	NewCipherContext(key, iv []byte, direction Direction) (CipherContext, error)

	// Close releases the native context. Idempotent.
	Close() error
}

// HashContext is a running hash computation. Not safe for concurrent use.
type HashContext interface {
	Process(p []byte) error
	// Finish consumes the state and returns the digest. The context is
	// invalid afterwards.
	Finish() ([]byte, error)
}

// CipherContext is a running cipher computation. Not safe for concurrent use.
// Block chaining modes require Process input to be a multiple of the block
// size; callers are expected to buffer partial blocks.
type CipherContext interface {
	Process(p []byte) ([]byte, error)
	// Finish processes the final input and consumes the state. The context
	// is invalid afterwards.
	Finish(p []byte) ([]byte, error)
}

// RandomSource supplies cryptographically strong random bytes. Implementations
// must be safe for concurrent use from multiple transforms.
type RandomSource interface {
	Fill(p []byte) error
}
