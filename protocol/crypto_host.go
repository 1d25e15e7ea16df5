//go:build !tinygo && !baremetal

package protocol

import (
	"crypto/aes"
	crand "crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/hkdf"
)

// AESTransform encrypts every cipher block of the buffer independently with a
// pre-shared key. The key lives in a memguard locked buffer until Close.
type AESTransform struct {
	key *memguard.LockedBuffer
}

// NewAESTransform copies key into locked memory and wipes the caller's slice.
func NewAESTransform(key []byte) (*AESTransform, error) {
	if err := checkKeyLen(key); err != nil {
		return nil, err
	}
	return &AESTransform{key: memguard.NewBufferFromBytes(key)}, nil
}

func (t *AESTransform) BlockSize() int { return aes.BlockSize }

func (t *AESTransform) Forward(buf []byte) error { return t.apply(buf, true) }

func (t *AESTransform) Inverse(buf []byte) error { return t.apply(buf, false) }

func (t *AESTransform) apply(buf []byte, encrypt bool) error {
	if t == nil || t.key == nil || !t.key.IsAlive() {
		return errors.New("aes transform: key destroyed")
	}
	return ecb(t.key.Bytes(), buf, encrypt)
}

// Close destroys the key material.
func (t *AESTransform) Close() {
	if t != nil && t.key != nil {
		t.key.Destroy()
	}
}

// DeriveKey stretches a shared passphrase into a KeySize key with HKDF-SHA256.
func DeriveKey(passphrase, salt []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("derive key: empty passphrase")
	}
	r := hkdf.New(sha256.New, passphrase, salt, []byte(keyInfo))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return key, nil
}

// GenerateKey returns a cryptographically random KeySize key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := crand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}
