package utils

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrNoEncKey is returned when ENC_KEY is not configured
var ErrNoEncKey = errors.New("ENC_KEY is not set")

// parseEncKey decodes a 64 hex char ENC_KEY into a 32-byte key
func parseEncKey(encKeyHex string) ([]byte, error) {
	if encKeyHex == "" {
		return nil, ErrNoEncKey
	}
	key, err := hex.DecodeString(encKeyHex)
	if err != nil {
		return nil, errors.New("invalid ENC_KEY format")
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("ENC_KEY must be %d bytes (%d hex chars)", chacha20poly1305.KeySize, chacha20poly1305.KeySize*2)
	}
	return key, nil
}

// SealSecret encrypts a credential for storage (XChaCha20-Poly1305).
// Output is base64(nonce || ciphertext).
func SealSecret(encKeyHex, plaintext string) (string, error) {
	key, err := parseEncKey(encKeyHex)
	if err != nil {
		return "", err
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// OpenSecret reverses SealSecret
func OpenSecret(encKeyHex, sealed string) (string, error) {
	key, err := parseEncKey(encKeyHex)
	if err != nil {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.New("sealed secret is not valid base64")
	}

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", errors.New("sealed secret too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.New("decryption failed: invalid auth tag or corrupted data")
	}
	return string(plaintext), nil
}
