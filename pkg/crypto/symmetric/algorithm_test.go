package symmetric

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

func TestNewAlgorithmDefaults(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)
	assert.Equal(t, engine.ModeCBC, alg.Mode())
	assert.Equal(t, PaddingPKCS7, alg.Padding())
	assert.Equal(t, 16, alg.BlockSize())
	assert.Equal(t, 32, alg.KeySize())
	assert.Equal(t, []int{16, 24, 32}, alg.LegalKeySizes())
	assert.Equal(t, []int{16}, alg.LegalBlockSizes())
}

func TestNewAlgorithmValidation(t *testing.T) {
	_, err := NewAlgorithm(&Configuration{KeySize: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

	_, err = NewAlgorithm(&Configuration{BlockSize: 8})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

	_, err = NewAlgorithm(&Configuration{Algorithm: "DES"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
}

func TestGenerateKeyAndIV(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)

	key, err := alg.GenerateKey()
	require.NoError(t, err)
	assert.Len(t, key, 32)
	assert.NotEqual(t, make([]byte, 32), key)
	assert.Equal(t, key, alg.Key())

	iv1, err := alg.GenerateIV()
	require.NoError(t, err)
	assert.Len(t, iv1, 16)
	iv2, err := alg.GenerateIV()
	require.NoError(t, err)
	assert.NotEqual(t, iv1, iv2)
	assert.Equal(t, iv2, alg.IV())
}

func TestCreateTransformValidation(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)

	_, err = alg.CreateEncryptor(nil, make([]byte, 16))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

	_, err = alg.CreateEncryptor(make([]byte, 20), make([]byte, 16))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

	_, err = alg.CreateDecryptor(make([]byte, 16), make([]byte, 12))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
}

func TestTransformSnapshotsConfiguration(t *testing.T) {
	alg, err := NewAlgorithm(&Configuration{Mode: engine.ModeCBC, Padding: PaddingPKCS7})
	require.NoError(t, err)
	key := make([]byte, 32)
	iv := make([]byte, 16)

	enc, err := alg.CreateEncryptor(key, iv)
	require.NoError(t, err)
	defer enc.Close()

	// mutating the adapter must not affect the already-created transform
	require.NoError(t, alg.SetPadding(PaddingNone))

	ct, err := enc.TransformFinalBlock([]byte("hi")) // only valid if PKCS7 stuck
	require.NoError(t, err)
	require.Len(t, ct, 16)

	require.NoError(t, alg.SetPadding(PaddingPKCS7))
	dec, err := alg.CreateDecryptor(key, iv)
	require.NoError(t, err)
	defer dec.Close()
	pt, err := dec.TransformFinalBlock(ct)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), pt)
}

func TestSetKeyValidation(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)

	err = alg.SetKey(make([]byte, 10))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

	require.NoError(t, alg.SetKey(make([]byte, 24)))
	assert.Len(t, alg.Key(), 24)
}

func TestSetIVValidation(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)

	err = alg.SetIV(make([]byte, 8))
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

	require.NoError(t, alg.SetIV(make([]byte, 16)))
	assert.Len(t, alg.IV(), 16)
}

func TestSetBlockSize(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)
	require.NoError(t, alg.SetKey(make([]byte, 32)))

	err = alg.SetBlockSize(32)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))

	// the only legal AES block size; stored key is re-validated, not
	// silently accepted
	require.NoError(t, alg.SetBlockSize(16))
	assert.Len(t, alg.Key(), 32)
}

func TestSetKeySizeDiscardsMismatchedKey(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)
	require.NoError(t, alg.SetKey(make([]byte, 32)))

	require.NoError(t, alg.SetKeySize(16))
	assert.Nil(t, alg.Key())

	err = alg.SetKeySize(20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrInvalidArgument))
}

func TestNewEncryptorGeneratesMaterial(t *testing.T) {
	alg, err := NewAlgorithm(nil)
	require.NoError(t, err)
	assert.Nil(t, alg.Key())
	assert.Nil(t, alg.IV())

	enc, err := alg.NewEncryptor()
	require.NoError(t, err)
	defer enc.Close()
	require.Len(t, alg.Key(), 32)
	require.Len(t, alg.IV(), 16)

	plain := []byte("generated on demand")
	ct, err := enc.TransformFinalBlock(plain)
	require.NoError(t, err)

	dec, err := alg.NewDecryptor()
	require.NoError(t, err)
	defer dec.Close()
	pt, err := dec.TransformFinalBlock(ct)
	require.NoError(t, err)
	assert.Equal(t, plain, pt)
}
