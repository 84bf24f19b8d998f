package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// Secrets encrypts and decrypts stored credentials.
type Secrets interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

const nonceSize = 24

// secretsSalt namespaces the scrypt key derivation.
var secretsSalt = []byte("seo-auditor/site-credentials/v1")

// ErrDecrypt is returned when a ciphertext fails authentication.
var ErrDecrypt = errors.New("failed to decrypt secret")

// SecretBox implements Secrets with NaCl secretbox and an scrypt-derived key.
type SecretBox struct {
	key [32]byte
}

// NewSecretBox derives a key from passphrase.
func NewSecretBox(passphrase string) (*SecretBox, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("secrets passphrase cannot be empty")
	}
	derived, err := scrypt.Key([]byte(passphrase), secretsSalt, 1<<15, 8, 1, 32)
	if err != nil {
		return nil, fmt.Errorf("failed to derive secrets key: %w", err)
	}
	box := &SecretBox{}
	copy(box.key[:], derived)
	return box, nil
}

// Encrypt seals plaintext and returns base64(nonce || box).
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &b.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (b *SecretBox) Decrypt(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < nonceSize+secretbox.Overhead {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &b.key)
	if !ok {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// PlainSecrets stores credentials unencrypted. Used when no passphrase is configured.
type PlainSecrets struct{}

// Encrypt returns plaintext unchanged.
func (PlainSecrets) Encrypt(plaintext string) (string, error) { return plaintext, nil }

// Decrypt returns ciphertext unchanged.
func (PlainSecrets) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

// NewSecrets returns a SecretBox for a non-empty passphrase and PlainSecrets otherwise.
func NewSecrets(passphrase string) (Secrets, error) {
	if passphrase == "" {
		return PlainSecrets{}, nil
	}
	return NewSecretBox(passphrase)
}
