package protocol

import (
	"crypto/aes"
	"fmt"
)

const (
	// KeySize is the AES-128 key length used by the deployed firmware.
	KeySize = 16

	keyInfo = "nrflink-v1|aes128"
)

// Transform is a reversible in-place byte transform over a whole message buffer.
type Transform interface {
	Forward(buf []byte) error
	Inverse(buf []byte) error
}

// BlockAligned is implemented by transforms that only work on whole cipher
// blocks. MsgSize must be a multiple of BlockSize.
type BlockAligned interface {
	BlockSize() int
}

// Identity is the transform used when encryption is disabled.
type Identity struct{}

func (Identity) Forward([]byte) error { return nil }
func (Identity) Inverse([]byte) error { return nil }

func checkKeyLen(key []byte) error {
	switch len(key) {
	case 16, 24, 32:
		return nil
	default:
		return fmt.Errorf("aes transform: invalid key length %d", len(key))
	}
}

// ecb keys the cipher once per message and walks the buffer block by block.
// There is no IV: equal plaintext blocks give equal ciphertext.
func ecb(key, buf []byte, encrypt bool) error {
	if len(buf)%aes.BlockSize != 0 {
		return fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrInvalidPayload, len(buf), aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("aes transform: %w", err)
	}
	for i := 0; i < len(buf); i += aes.BlockSize {
		if encrypt {
			block.Encrypt(buf[i:i+aes.BlockSize], buf[i:i+aes.BlockSize])
		} else {
			block.Decrypt(buf[i:i+aes.BlockSize], buf[i:i+aes.BlockSize])
		}
	}
	return nil
}
