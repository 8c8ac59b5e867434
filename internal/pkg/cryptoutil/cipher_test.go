package cryptoutil

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChaChaCipherRoundTrip(t *testing.T) {
	key := hex.EncodeToString(make([]byte, 32))
	c, err := NewChaChaCipher(key)
	require.NoError(t, err)

	plaintext := []byte(`{"id":"sess-1","version":1}`)
	blob, nonce, err := c.Seal(plaintext)
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, blob)
	assert.Len(t, nonce, 12)

	back, err := c.Open(blob, nonce)
	require.NoError(t, err)
	assert.Equal(t, plaintext, back)
}

func TestChaChaCipherWrongNonce(t *testing.T) {
	key := hex.EncodeToString(make([]byte, 32))
	c, err := NewChaChaCipher(key)
	require.NoError(t, err)

	blob, _, err := c.Seal([]byte("payload"))
	require.NoError(t, err)

	_, err = c.Open(blob, make([]byte, 12))
	assert.Error(t, err)
}

func TestNewChaChaCipherRejectsBadKeys(t *testing.T) {
	_, err := NewChaChaCipher("not-hex")
	assert.Error(t, err)

	_, err = NewChaChaCipher(hex.EncodeToString(make([]byte, 16)))
	assert.Error(t, err)
}

func TestNoopCipherPassesThrough(t *testing.T) {
	blob, nonce, err := NoopCipher{}.Seal([]byte("plain"))
	require.NoError(t, err)
	assert.Nil(t, nonce)

	back, err := NoopCipher{}.Open(blob, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("plain"), back)
}
