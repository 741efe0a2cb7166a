package symmetric

import (
	"github.com/pkg/errors"

	"github.com/achuala/go-crypto-extn/pkg/crypto/engine"
)

// CipherTransform streams plaintext or ciphertext through a cipher context
// opened by an Algorithm. Input that is not block aligned is buffered until
// more data arrives or TransformFinalBlock runs. The direction is fixed at
// construction. Not safe for concurrent use.
type CipherTransform struct {
	handle    engine.AlgorithmHandle
	ctx       engine.CipherContext
	direction engine.Direction
	mode      engine.ChainingMode
	padding   PaddingScheme
	blockSize int
	pending   []byte
	finalized bool
	closed    bool
}

func newCipherTransform(handle engine.AlgorithmHandle, ctx engine.CipherContext,
	direction engine.Direction, mode engine.ChainingMode, padding PaddingScheme, blockSize int) *CipherTransform {
	return &CipherTransform{
		handle:    handle,
		ctx:       ctx,
		direction: direction,
		mode:      mode,
		padding:   padding,
		blockSize: blockSize,
	}
}

// BlockSize returns the cipher block size in bytes.
func (t *CipherTransform) BlockSize() int { return t.blockSize }

// Direction returns the transform direction fixed at construction.
func (t *CipherTransform) Direction() engine.Direction { return t.direction }

func (t *CipherTransform) state() error {
	if t.closed {
		return errors.Wrap(engine.ErrInvalidState, "transform is closed")
	}
	if t.finalized {
		return errors.Wrap(engine.ErrInvalidState, "transform is finalized")
	}
	return nil
}

// processable returns how many buffered bytes may be handed to the engine
// now. Decryption with removable padding withholds the last full block: the
// padding lives there and it must not be emitted before finalize proves it
// is not the final block.
func (t *CipherTransform) processable() int {
	n := len(t.pending) / t.blockSize * t.blockSize
	if t.direction == engine.Decrypt && t.padding == PaddingPKCS7 && n == len(t.pending) && n > 0 {
		n -= t.blockSize
	}
	return n
}

// TransformBlock feeds input into the cipher and returns whatever complete
// output is available. A trailing partial block is withheld internally.
func (t *CipherTransform) TransformBlock(input []byte) ([]byte, error) {
	if err := t.state(); err != nil {
		return nil, err
	}
	t.pending = append(t.pending, input...)
	n := t.processable()
	if n == 0 {
		return nil, nil
	}
	out, err := t.ctx.Process(t.pending[:n])
	if err != nil {
		return nil, err
	}
	rest := append([]byte(nil), t.pending[n:]...)
	zero(t.pending)
	t.pending = rest
	return out, nil
}

// TransformFinalBlock consumes the buffered data plus input, applies the
// padding scheme and returns the final output. On decryption, invalid
// padding is reported as a validation failure and no plaintext is returned.
// The engine handle is released; the transform accepts no further calls.
func (t *CipherTransform) TransformFinalBlock(input []byte) ([]byte, error) {
	if err := t.state(); err != nil {
		return nil, err
	}
	data := append(t.pending, input...)
	t.pending = nil

	if len(data)%t.blockSize != 0 {
		padsToAlignment := t.direction == engine.Encrypt && t.padding != PaddingNone
		streamAcceptsAny := t.mode.IsStream() && t.padding == PaddingNone
		if !padsToAlignment && !streamAcceptsAny {
			t.release()
			return nil, errors.Wrapf(engine.ErrInvalidState, "final input length %d is not a multiple of the block size %d", len(data), t.blockSize)
		}
	}

	if t.direction == engine.Encrypt {
		data = applyPadding(t.padding, data, t.blockSize)
	}
	out, err := t.ctx.Finish(data)
	zero(data)
	t.release()
	if err != nil {
		return nil, err
	}
	if t.direction == engine.Decrypt {
		plain, err := removePadding(t.padding, out, t.blockSize)
		if err != nil {
			zero(out)
			return nil, err
		}
		return plain, nil
	}
	return out, nil
}

func (t *CipherTransform) release() {
	t.finalized = true
	t.ctx = nil
	_ = t.handle.Close()
}

// Close releases the engine handle whether or not finalize ever ran.
// Idempotent.
func (t *CipherTransform) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.ctx = nil
	zero(t.pending)
	t.pending = nil
	return t.handle.Close()
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
