package cryptoutil

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher is the pluggable encryption strategy the session state store holds.
// Stores that encrypt persist the sealed blob plus the nonce next to it.
type Cipher interface {
	Seal(plaintext []byte) (blob, nonce []byte, err error)
	Open(blob, nonce []byte) ([]byte, error)
}

// NoopCipher stores payloads in the clear. It is the default when no
// encryption key is configured.
type NoopCipher struct{}

func (NoopCipher) Seal(plaintext []byte) ([]byte, []byte, error) {
	return plaintext, nil, nil
}

func (NoopCipher) Open(blob, _ []byte) ([]byte, error) {
	return blob, nil
}

// ChaChaCipher encrypts with ChaCha20-Poly1305. The key is external
// configuration: it must be stable across restarts or previously written
// state becomes unreadable.
type ChaChaCipher struct {
	key []byte
}

// NewChaChaCipher builds a cipher from a hex-encoded 32-byte key.
func NewChaChaCipher(hexKey string) (*ChaChaCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode session encryption key: %w", err)
	}
	if len(key) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("session encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(key))
	}
	return &ChaChaCipher{key: key}, nil
}

func (c *ChaChaCipher) Seal(plaintext []byte) ([]byte, []byte, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}
	return aead.Seal(nil, nonce, plaintext, nil), nonce, nil
}

func (c *ChaChaCipher) Open(blob, nonce []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt session state: %w", err)
	}
	return plaintext, nil
}
