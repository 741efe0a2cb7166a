package sealed

import (
	"context"
	"encoding/base64"

	"github.com/pkg/errors"
	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/keyset"
	"github.com/tink-crypto/tink-go/v2/tink"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

type TinkConfiguration struct {
	// KeySetHandle holds the AEAD keyset. Nil generates a fresh
	// AES-256-GCM keyset; callers that need durable keys supply their own.
	KeySetHandle *keyset.Handle
	// AssociatedData is bound to every sealed message.
	AssociatedData []byte
}

// TinkSealer seals with a Tink AEAD primitive. It is safe for concurrent
// use.
type TinkSealer struct {
	ksh  *keyset.Handle
	aead tink.AEAD
	ad   []byte
}

func NewTinkSealer(c *TinkConfiguration) (*TinkSealer, error) {
	cfg := TinkConfiguration{}
	if c != nil {
		cfg = *c
	}
	handle := cfg.KeySetHandle
	if handle == nil {
		var err error
		handle, err = keyset.NewHandle(aead.AES256GCMKeyTemplate())
		if err != nil {
			return nil, errors.Wrap(err, "unable to create keyset")
		}
	}
	primitive, err := aead.New(handle)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create aead")
	}
	return &TinkSealer{ksh: handle, aead: primitive, ad: cfg.AssociatedData}, nil
}

func (s *TinkSealer) Seal(ctx context.Context, plain []byte) (string, error) {
	cipher, err := s.aead.Encrypt(plain, s.ad)
	if err != nil {
		return "", errors.Wrap(err, "unable to encrypt")
	}
	return base64.RawStdEncoding.EncodeToString(cipher), nil
}

func (s *TinkSealer) Unseal(ctx context.Context, sealedText string) ([]byte, error) {
	cipher, err := base64.RawStdEncoding.DecodeString(sealedText)
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode")
	}
	plain, err := s.aead.Decrypt(cipher, s.ad)
	if err != nil {
		return nil, errors.Wrap(engine.ErrValidationFailure, "unable to decrypt")
	}
	return plain, nil
}
