package sealed

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/pkg/errors"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
	"github.com/achuala/go-crypto-extn/pkg/crypto/mac"
	"github.com/achuala/go-crypto-extn/pkg/crypto/symmetric"
)

const partSeparator = "$$"

type EtmConfiguration struct {
	// EncryptionKey is the AES key, 16, 24 or 32 bytes.
	EncryptionKey []byte
	// MacKey keys the HMAC-SHA384 tag.
	MacKey []byte
	// Engine, nil selects engine.Default().
	Engine engine.Engine
	// Rand supplies per-message IVs. Nil selects engine.DefaultRandom().
	Rand engine.RandomSource
}

// EtmSealer seals with AES-CBC-PKCS7 then authenticates iv||ciphertext with
// HMAC-SHA384 (encrypt-then-MAC). Wire format:
//
//	base64(iv || ciphertext) + "$$" + base64(tag)
//
// Not safe for concurrent use; the MAC transform is reused across calls.
type EtmSealer struct {
	alg    *symmetric.Algorithm
	hmac   *mac.HmacTransform
	encKey []byte
}

func NewEtmSealer(cfg *EtmConfiguration) (*EtmSealer, error) {
	if cfg == nil {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "configuration is required")
	}
	alg, err := symmetric.NewAlgorithm(&symmetric.Configuration{
		Engine:  cfg.Engine,
		Rand:    cfg.Rand,
		Mode:    engine.ModeCBC,
		Padding: symmetric.PaddingPKCS7,
		KeySize: len(cfg.EncryptionKey),
	})
	if err != nil {
		return nil, err
	}
	if err := alg.SetKey(cfg.EncryptionKey); err != nil {
		return nil, err
	}
	hm, err := mac.NewHmacTransform(cfg.MacKey, &mac.HmacConfiguration{Engine: cfg.Engine})
	if err != nil {
		return nil, err
	}
	return &EtmSealer{alg: alg, hmac: hm, encKey: append([]byte(nil), cfg.EncryptionKey...)}, nil
}

func (s *EtmSealer) Seal(ctx context.Context, plain []byte) (string, error) {
	iv, err := s.alg.GenerateIV()
	if err != nil {
		return "", err
	}
	enc, err := s.alg.CreateEncryptor(s.encKey, iv)
	if err != nil {
		return "", err
	}
	defer enc.Close()
	ct, err := enc.TransformFinalBlock(plain)
	if err != nil {
		return "", err
	}
	msg := append(iv, ct...)
	tag, err := s.tag(msg)
	if err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(msg) + partSeparator + base64.RawStdEncoding.EncodeToString(tag), nil
}

func (s *EtmSealer) Unseal(ctx context.Context, sealedText string) ([]byte, error) {
	parts := strings.Split(sealedText, partSeparator)
	if len(parts) != 2 {
		return nil, errors.Wrap(engine.ErrInvalidArgument, "invalid format for the sealed data")
	}
	msg, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode")
	}
	tag, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errors.Wrap(err, "unable to decode")
	}
	want, err := s.tag(msg)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(tag, want) != 1 {
		return nil, errors.Wrap(engine.ErrValidationFailure, "tag mismatch")
	}
	bs := s.alg.BlockSize()
	if len(msg) < bs {
		return nil, errors.Wrap(engine.ErrValidationFailure, "sealed data is too short")
	}
	dec, err := s.alg.CreateDecryptor(s.encKey, msg[:bs])
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.TransformFinalBlock(msg[bs:])
}

func (s *EtmSealer) tag(msg []byte) ([]byte, error) {
	if err := s.hmac.Initialize(); err != nil {
		return nil, err
	}
	if err := s.hmac.ProcessBytes(msg, 0, len(msg)); err != nil {
		return nil, err
	}
	return s.hmac.Finalize()
}

// Close releases the MAC transform's engine handle.
func (s *EtmSealer) Close() error {
	return s.hmac.Close()
}
