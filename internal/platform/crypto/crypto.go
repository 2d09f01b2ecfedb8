package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/scrypt"
)

const saltLen = 16

var ErrInvalidCiphertext = errors.New("crypto: invalid ciphertext")

// Box encrypts and decrypts small secrets (SMTP credentials) with
// AES-256-GCM. The key is derived from a passphrase with scrypt, using a
// fresh salt per encryption so the passphrase can be rotated without
// re-keying old rows all at once.
type Box struct {
	passphrase []byte
}

func NewBox(passphrase string) *Box {
	return &Box{passphrase: []byte(passphrase)}
}

func (b *Box) deriveKey(salt []byte) ([]byte, error) {
	return scrypt.Key(b.passphrase, salt, 1<<15, 8, 1, 32)
}

// Encrypt returns base64(salt || nonce || ciphertext).
func (b *Box) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}
	key, err := b.deriveKey(salt)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	out := make([]byte, 0, saltLen+len(nonce)+len(plaintext)+gcm.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Tampered or truncated input fails with
// ErrInvalidCiphertext.
func (b *Box) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	if len(raw) < saltLen {
		return "", ErrInvalidCiphertext
	}
	salt, rest := raw[:saltLen], raw[saltLen:]
	key, err := b.deriveKey(salt)
	if err != nil {
		return "", err
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	if len(rest) < gcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, ct := rest[:gcm.NonceSize()], rest[gcm.NonceSize():]
	pt, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(pt), nil
}
