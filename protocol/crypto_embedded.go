//go:build tinygo || baremetal

package protocol

import (
	"crypto/aes"
	"errors"
)

// AESTransform is the firmware build of the transform: no locked memory on a
// microcontroller, the key is kept in a plain array and zeroed on Close.
type AESTransform struct {
	key    [32]byte
	keyLen int
}

// NewAESTransform copies key and wipes the caller's slice.
func NewAESTransform(key []byte) (*AESTransform, error) {
	if err := checkKeyLen(key); err != nil {
		return nil, err
	}
	t := &AESTransform{keyLen: len(key)}
	copy(t.key[:], key)
	clear(key)
	return t, nil
}

func (t *AESTransform) BlockSize() int { return aes.BlockSize }

func (t *AESTransform) Forward(buf []byte) error { return t.apply(buf, true) }

func (t *AESTransform) Inverse(buf []byte) error { return t.apply(buf, false) }

func (t *AESTransform) apply(buf []byte, encrypt bool) error {
	if t == nil || t.keyLen == 0 {
		return errors.New("aes transform: key destroyed")
	}
	return ecb(t.key[:t.keyLen], buf, encrypt)
}

func (t *AESTransform) Close() {
	if t != nil {
		clear(t.key[:])
		t.keyLen = 0
	}
}
