// Package protect encrypts submitted content and signs it for integrity.
// Confidentiality (AES-256-GCM) and integrity (HMAC-SHA256 over the original
// plaintext) use independent keys, so a signature stays meaningful even if
// the encryption key rotates.
package protect

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
)

var (
	// ErrDecryptionFailed indicates a malformed blob or an authentication
	// failure. Undecryptable data is never passed through as plaintext.
	ErrDecryptionFailed = errors.New("protect: decryption failed")

	// ErrSignatureMismatch indicates the content does not match its
	// integrity signature.
	ErrSignatureMismatch = errors.New("protect: signature mismatch")
)

const keyLen = 32

// Protector performs symmetric encryption and keyed integrity signing.
// It is stateless and safe for concurrent use.
type Protector struct {
	aead       cipher.AEAD
	signingKey []byte
}

// New builds a Protector from a 32-byte encryption key and an independent
// 32-byte signing key.
func New(encryptionKey, signingKey []byte) (*Protector, error) {
	if len(encryptionKey) != keyLen {
		return nil, fmt.Errorf("protect: encryption key must be %d bytes, got %d", keyLen, len(encryptionKey))
	}
	if len(signingKey) != keyLen {
		return nil, fmt.Errorf("protect: signing key must be %d bytes, got %d", keyLen, len(signingKey))
	}
	if bytes.Equal(encryptionKey, signingKey) {
		return nil, errors.New("protect: encryption and signing keys must differ")
	}
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	key := make([]byte, keyLen)
	copy(key, signingKey)
	return &Protector{aead: aead, signingKey: key}, nil
}

// Encrypt seals plaintext with a fresh random nonce. The nonce is prefixed
// to the returned blob; it is not secret, only never reused.
func (p *Protector) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, p.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return p.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt. Any parse or authentication
// failure maps to ErrDecryptionFailed.
func (p *Protector) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < p.aead.NonceSize() {
		return nil, ErrDecryptionFailed
	}
	nonce, ciphertext := blob[:p.aead.NonceSize()], blob[p.aead.NonceSize():]
	plaintext, err := p.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// Sign computes the keyed integrity signature over the original plaintext.
func (p *Protector) Sign(plaintext []byte) []byte {
	mac := hmac.New(sha256.New, p.signingKey)
	mac.Write(plaintext)
	return mac.Sum(nil)
}

// VerifySignature reports whether signature matches plaintext. Comparison
// is constant time.
func (p *Protector) VerifySignature(plaintext, signature []byte) bool {
	return hmac.Equal(p.Sign(plaintext), signature)
}
