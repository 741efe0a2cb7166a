package sealed

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

var (
	encKey = []byte("0123456789abcdef0123456789abcdef")
	macKey = []byte("another secret for the mac layer")
)

func newEtm(t *testing.T) *EtmSealer {
	t.Helper()
	s, err := NewEtmSealer(&EtmConfiguration{EncryptionKey: encKey, MacKey: macKey})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestEtmRoundTrip(t *testing.T) {
	s := newEtm(t)
	plain := []byte("James Bond")
	sealedText, err := s.Seal(context.Background(), plain)
	require.NoError(t, err)
	assert.NotContains(t, sealedText, string(plain))

	got, err := s.Unseal(context.Background(), sealedText)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestEtmFreshIVPerMessage(t *testing.T) {
	s := newEtm(t)
	a, err := s.Seal(context.Background(), []byte("same plaintext"))
	require.NoError(t, err)
	b, err := s.Seal(context.Background(), []byte("same plaintext"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestEtmTamperDetection(t *testing.T) {
	s := newEtm(t)
	sealedText, err := s.Seal(context.Background(), []byte("sensitive"))
	require.NoError(t, err)

	tampered := []byte(sealedText)
	tampered[3] ^= 1
	_, err = s.Unseal(context.Background(), string(tampered))
	require.Error(t, err)

	_, err = s.Unseal(context.Background(), "not a sealed value")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
}

func TestEtmWrongMacKey(t *testing.T) {
	s := newEtm(t)
	sealedText, err := s.Seal(context.Background(), []byte("sensitive"))
	require.NoError(t, err)

	other, err := NewEtmSealer(&EtmConfiguration{EncryptionKey: encKey, MacKey: []byte("a different mac key, still fine!")})
	require.NoError(t, err)
	defer other.Close()
	_, err = other.Unseal(context.Background(), sealedText)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrValidationFailure))
}

func TestTinkRoundTrip(t *testing.T) {
	s, err := NewTinkSealer(&TinkConfiguration{AssociatedData: []byte("ctx")})
	require.NoError(t, err)

	plain := []byte("James Bond")
	sealedText, err := s.Seal(context.Background(), plain)
	require.NoError(t, err)
	got, err := s.Unseal(context.Background(), sealedText)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func TestTinkTamperDetection(t *testing.T) {
	s, err := NewTinkSealer(nil)
	require.NoError(t, err)
	sealedText, err := s.Seal(context.Background(), []byte("sensitive"))
	require.NoError(t, err)

	tampered := []byte(sealedText)
	tampered[len(tampered)-1] ^= 1
	_, err = s.Unseal(context.Background(), string(tampered))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrValidationFailure))
}
