// Package cryptox holds the client-side cryptographic primitives: secure
// random bytes, password alphabet sampling, scrypt key stretching, AES-GCM
// authenticated encryption and the client half of SRP-6a.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

const (
	// KeySize is the length of every key produced by Stretch.
	KeySize = 32
	// SaltSize is the length of the random salts generated by callers.
	SaltSize = 32
	// NonceSize is the length of freshly generated AES-GCM nonces.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag length.
	TagSize = 16
)

// scrypt parameters are part of the protocol: changing any of them makes
// previously encrypted data and registered verifiers unusable.
const (
	scryptN = 1 << 16
	scryptR = 8
	scryptP = 4
)

var (
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrInvalidKeySize        = errors.New("invalid key size")
	ErrInvalidNonce          = errors.New("invalid nonce")
)

// RandomBytes returns n bytes read from the operating system CSPRNG.
func RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to read random bytes: %w", err)
	}
	return b, nil
}

// NewSalt returns SaltSize random bytes.
func NewSalt() ([]byte, error) {
	return RandomBytes(SaltSize)
}

// NewNonce returns a random nonce of the size AES-GCM expects natively.
func NewNonce() ([]byte, error) {
	return RandomBytes(NonceSize)
}

// Stretch derives a KeySize key from key and salt with scrypt
// (N=2^16, r=8, p=4). The result is deterministic for equal inputs.
func Stretch(key, salt []byte) ([]byte, error) {
	dk, err := scrypt.Key(key, salt, scryptN, scryptR, scryptP, KeySize)
	if err != nil {
		return nil, fmt.Errorf("scrypt: %w", err)
	}
	return dk, nil
}

// newGCM accepts any non-empty nonce length. Nonces other than 12 bytes go
// through the GHASH-derived counter block, which keeps data sealed with the
// legacy 32-byte IVs readable.
func newGCM(key []byte, nonceSize int) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if nonceSize == 0 {
		return nil, ErrInvalidNonce
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if nonceSize == NonceSize {
		return cipher.NewGCM(block)
	}
	return cipher.NewGCMWithNonceSize(block, nonceSize)
}

// Encrypt seals plaintext with AES-256-GCM and returns ciphertext||tag.
// The caller must never reuse iv with the same key.
func Encrypt(plaintext, key, iv []byte) ([]byte, error) {
	aead, err := newGCM(key, len(iv))
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, iv, plaintext, nil), nil
}

// Decrypt opens ciphertext||tag. A wrong key, wrong iv or any tampering
// yields ErrAuthenticationFailure and no plaintext.
func Decrypt(ciphertext, key, iv []byte) ([]byte, error) {
	aead, err := newGCM(key, len(iv))
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < TagSize {
		return nil, ErrAuthenticationFailure
	}

	plaintext, err := aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, ErrAuthenticationFailure
	}
	return plaintext, nil
}

// Wipe overwrites b with zeros. It is safe to call with nil.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
