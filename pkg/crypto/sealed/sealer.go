package sealed

import (
	"context"
)

// Sealer provides authenticated encryption of small payloads into a
// printable wire format.
type Sealer interface {
	// Seal encrypts and authenticates plain and returns the sealed text.
	Seal(ctx context.Context, plain []byte) (string, error)
	// Unseal authenticates and decrypts the sealed text and returns the
	// plain data.
	Unseal(ctx context.Context, sealed string) ([]byte, error)
}
