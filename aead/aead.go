// Package aead seals and opens Encrypted section bodies
// using XChaCha20-Poly1305: a 24-byte random nonce is prepended to the
// ciphertext and a 16-byte Poly1305 tag is appended by the AEAD itself, with
// no associated data.
package aead

import (
	"crypto/cipher"
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/ridewithgps/rwtf/errs"
)

// KeySize is the required length of caller-supplied key material.
const KeySize = chacha20poly1305.KeySize // 32

// NonceSize is the length of the random nonce prepended to a sealed body.
const NonceSize = chacha20poly1305.NonceSizeX // 24

// Overhead is the number of bytes a sealed body carries beyond its
// plaintext length: the nonce plus the Poly1305 tag.
const Overhead = NonceSize + chacha20poly1305.Overhead // 24 + 16

// Seal encrypts plaintext under key and returns nonce‖ciphertext‖tag.
// Returns errs.ErrKeyMaterial if key is not exactly KeySize bytes.
func Seal(key, plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}

	out := make([]byte, 0, NonceSize+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)

	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Open decrypts a nonce‖ciphertext‖tag body produced by Seal. Returns
// errs.ErrKeyMaterial if key is not exactly KeySize bytes, or
// errs.ErrDecryptFailed if authentication fails.
func Open(key, sealed []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}

	if len(sealed) < NonceSize {
		return nil, errs.ErrDecryptFailed
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errs.ErrDecryptFailed
	}

	return plaintext, nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, errs.ErrKeyMaterial
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, errs.ErrKeyMaterial
	}

	return aead, nil
}
