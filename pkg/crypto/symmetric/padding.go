package symmetric

import (
	"github.com/pkg/errors"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

// PaddingScheme describes how the final partial block is completed on
// encryption and validated on decryption.
type PaddingScheme int

const (
	// PaddingPKCS7 fills the final block with n bytes of value n. A full
	// extra block is appended when the plaintext is already aligned.
	PaddingPKCS7 PaddingScheme = iota
	// PaddingNone performs no padding; block chaining modes then require
	// block-aligned input.
	PaddingNone
	// PaddingZeros fills the final block with zero bytes. Zero padding is
	// ambiguous and is not removed on decryption.
	PaddingZeros
)

func (p PaddingScheme) String() string {
	switch p {
	case PaddingPKCS7:
		return "PKCS7"
	case PaddingNone:
		return "None"
	case PaddingZeros:
		return "Zeros"
	}
	return "Unknown"
}

func (p PaddingScheme) valid() bool {
	return p == PaddingPKCS7 || p == PaddingNone || p == PaddingZeros
}

func applyPadding(scheme PaddingScheme, data []byte, blockSize int) []byte {
	switch scheme {
	case PaddingPKCS7:
		n := blockSize - len(data)%blockSize
		for i := 0; i < n; i++ {
			data = append(data, byte(n))
		}
	case PaddingZeros:
		for len(data)%blockSize != 0 {
			data = append(data, 0)
		}
	}
	return data
}

// removePadding validates and strips PKCS7 padding. A bad value is a
// validation failure, not an argument error: it may indicate tampering. The
// padding bytes are checked with a bitwise fold rather than an early exit.
func removePadding(scheme PaddingScheme, data []byte, blockSize int) ([]byte, error) {
	if scheme != PaddingPKCS7 {
		return data, nil
	}
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, errors.Wrap(engine.ErrValidationFailure, "padded data is not block aligned")
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, errors.Wrap(engine.ErrValidationFailure, "invalid padding")
	}
	var fold byte
	for _, b := range data[len(data)-n:] {
		fold |= b ^ byte(n)
	}
	if fold != 0 {
		return nil, errors.Wrap(engine.ErrValidationFailure, "invalid padding")
	}
	return data[:len(data)-n], nil
}
