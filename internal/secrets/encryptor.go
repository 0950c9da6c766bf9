// Feedloom - Social Feed Aggregation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedloom

package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// hkdfSalt binds derived keys to this application's secret store.
	hkdfSalt = "feedloom-secret-store"
	hkdfInfo = "service-credentials-v1"

	aesKeySize   = 32
	gcmNonceSize = 12
)

var (
	// ErrEmptyKey is returned when no secret key is configured.
	ErrEmptyKey = errors.New("secret key cannot be empty")

	// ErrDecryptionFailed is returned for tampered data or a wrong key.
	ErrDecryptionFailed = errors.New("decryption failed: invalid ciphertext or authentication tag")

	// ErrCiphertextTooShort is returned when the sealed value cannot hold a nonce and tag.
	ErrCiphertextTooShort = errors.New("ciphertext too short")
)

// Encryptor seals values with AES-256-GCM.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor derives a 256-bit key from secretKey using HKDF-SHA256.
func NewEncryptor(secretKey string) (*Encryptor, error) {
	if secretKey == "" {
		return nil, ErrEmptyKey
	}

	key := make([]byte, aesKeySize)
	r := hkdf.New(sha256.New, []byte(secretKey), []byte(hkdfSalt), []byte(hkdfInfo))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &Encryptor{aead: aead}, nil
}

// Seal encrypts plaintext. The output is nonce || ciphertext || tag.
// additional is authenticated but not encrypted.
func (e *Encryptor) Seal(plaintext, additional []byte) ([]byte, error) {
	nonce := make([]byte, gcmNonceSize, gcmNonceSize+len(plaintext)+e.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, additional), nil
}

// Open reverses Seal.
func (e *Encryptor) Open(sealed, additional []byte) ([]byte, error) {
	if len(sealed) < gcmNonceSize+e.aead.Overhead() {
		return nil, ErrCiphertextTooShort
	}
	plaintext, err := e.aead.Open(nil, sealed[:gcmNonceSize], sealed[gcmNonceSize:], additional)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
