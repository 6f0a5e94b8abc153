package crypto

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey = "vqwn3p22uics8xv8"
	testIV  = "s0Q~ioZ(AYJxyvLQ"
)

func TestEncryptDecrypt(t *testing.T) {
	t.Run("Round trip", func(t *testing.T) {
		plaintext := []byte(`{"code":10000,"msg":"ok"}`)

		encoded, err := EncryptToBase64(plaintext, testKey, testIV)
		require.NoError(t, err)

		decoded, err := DecryptBase64(encoded, testKey, testIV)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decoded)
	})

	t.Run("Matches a known vector", func(t *testing.T) {
		encoded, err := EncryptToBase64([]byte(`{"code":10000}`), testKey, testIV)
		require.NoError(t, err)
		assert.Equal(t, "a0yMH3OZn1SXthY+K6zL+Q==", encoded)
	})

	t.Run("Block aligned input gains a padding block", func(t *testing.T) {
		out, err := Encrypt(make([]byte, 16), testKey, testIV)
		require.NoError(t, err)
		assert.Len(t, out, 32)
	})

	t.Run("Deterministic under a fixed IV", func(t *testing.T) {
		a, err := EncryptToBase64([]byte("same"), testKey, testIV)
		require.NoError(t, err)
		b, err := EncryptToBase64([]byte("same"), testKey, testIV)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("Different key gives different ciphertext", func(t *testing.T) {
		a, err := EncryptToBase64([]byte("same"), testKey, testIV)
		require.NoError(t, err)
		b, err := EncryptToBase64([]byte("same"), "0123456789abcdef", testIV)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

func TestEncryptRejectsBadMaterial(t *testing.T) {
	_, err := Encrypt([]byte("x"), "short", testIV)
	assert.Error(t, err)

	_, err = Encrypt([]byte("x"), testKey, "short")
	assert.Error(t, err)
}

func TestDecryptRejectsTruncatedCiphertext(t *testing.T) {
	_, err := DecryptBase64(base64.StdEncoding.EncodeToString([]byte("abc")), testKey, testIV)
	assert.Error(t, err)

	_, err = DecryptBase64("%%%", testKey, testIV)
	assert.Error(t, err)
}
